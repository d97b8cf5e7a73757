package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultsToActive(t *testing.T) {
	u := NewUser("alex", "alex@gmail.com")

	assert.Equal(t, "alex", u.Username)
	assert.Equal(t, "alex@gmail.com", u.Email)
	assert.True(t, u.Active)
	assert.Zero(t, u.ID)
	assert.True(t, u.CreatedDate.IsZero())
}

func TestUser_ToJSON(t *testing.T) {
	u := User{ID: 7, Username: "alex", Email: "alex@gmail.com", Active: true, CreatedDate: time.Now()}

	b, err := json.Marshal(u.ToJSON())
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Len(t, got, 4)
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, "alex", got["username"])
	assert.Equal(t, "alex@gmail.com", got["email"])
	assert.Equal(t, true, got["active"])
}

func TestToJSONList_KeepsOrder(t *testing.T) {
	list := ToJSONList([]User{
		{ID: 1, Username: "alex"},
		{ID: 2, Username: "ender"},
	})

	require.Len(t, list, 2)
	assert.Equal(t, "alex", list[0].Username)
	assert.Equal(t, "ender", list[1].Username)
	assert.NotNil(t, ToJSONList(nil))
}
