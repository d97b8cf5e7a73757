package httpHandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"users-service/entities"
	"users-service/metrics"
	"users-service/repositories"
	"users-service/usecases"
)

// memRepo mimics the users table: both columns unique, ids never reused.
type memRepo struct {
	mu        sync.Mutex
	nextID    uint
	users     []entities.User
	createErr error
	listErr   error
}

func (m *memRepo) Create(ctx context.Context, u *entities.User) repositories.CreateResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return repositories.CreateResult{Outcome: repositories.OtherFailure, Err: m.createErr}
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repositories.CreateResult{Outcome: repositories.DuplicateEmail, Err: errors.New("uq_users_email")}
		}
		if existing.Username == u.Username {
			return repositories.CreateResult{Outcome: repositories.DuplicateUsername, Err: errors.New("uq_users_username")}
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.users = append(m.users, *u)
	return repositories.CreateResult{Outcome: repositories.Created, User: u}
}

func (m *memRepo) CreateBatch(ctx context.Context, users []*entities.User) error {
	for _, u := range users {
		if res := m.Create(ctx, u); res.Outcome != repositories.Created {
			return res.Err
		}
	}
	return nil
}

func (m *memRepo) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memRepo) GetAll(ctx context.Context) ([]entities.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entities.User(nil), m.users...), nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testAPI struct {
	router  *gin.Engine
	repo    *memRepo
	metrics *metrics.Metrics
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &memRepo{}
	m := metrics.New()
	h := NewUsersHandler(usecases.NewUsersUseCase(repo, nil), m)

	r := gin.New()
	users := r.Group("/users")
	users.GET("/ping", h.Ping)
	users.POST("", h.AddUser)
	users.GET("", h.GetAllUsers)
	users.GET("/:id", h.GetSingleUser)

	return &testAPI{router: r, repo: repo, metrics: m}
}

func (a *testAPI) do(t *testing.T, method, path string, body []byte) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (a *testAPI) postJSON(t *testing.T, payload any) (int, envelope) {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return a.do(t, http.MethodPost, "/users", b)
}

func (a *testAPI) addUser(t *testing.T, username, email string) *entities.User {
	t.Helper()
	u := entities.NewUser(username, email)
	res := a.repo.Create(context.Background(), u)
	require.Equal(t, repositories.Created, res.Outcome)
	return u
}

func TestPing(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/users/ping", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "pong!", env.Message)
}

func TestAddUser(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.postJSON(t, map[string]string{
		"username": "alex",
		"email":    "alexsanchez@upeu.edu.pe",
	})
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "alexsanchez@upeu.edu.pe was added!", env.Message)
	assert.Equal(t, float64(1), testutil.ToFloat64(api.metrics.UsersCreated.WithLabelValues("created")))
}

func TestAddUser_InvalidJSON(t *testing.T) {
	api := newTestAPI(t)

	for _, body := range []string{`{}`, ``, `not json`, `[]`, `null`, `"alex"`} {
		code, env := api.do(t, http.MethodPost, "/users", []byte(body))
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, "fail", env.Status, body)
		assert.Equal(t, "Invalid payload.", env.Message, body)
	}
	assert.Empty(t, api.repo.users)
}

func TestAddUser_InvalidJSONKeys(t *testing.T) {
	api := newTestAPI(t)

	payloads := []map[string]any{
		{"email": "alexsanchez@upeu.edu.pe"},
		{"email": "alexsanchez@upeu.edu.pe", "name": "alex"},
		{"username": "alex"},
		{"username": "alex", "email": "not-an-email"},
		{"username": 12, "email": "alexsanchez@upeu.edu.pe"},
	}
	for _, p := range payloads {
		code, env := api.postJSON(t, p)
		assert.Equal(t, http.StatusBadRequest, code, p)
		assert.Equal(t, "fail", env.Status, p)
		assert.Equal(t, "Invalid payload.", env.Message, p)
	}
	assert.Empty(t, api.repo.users)
}

func TestAddUser_DuplicateEmail(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.postJSON(t, map[string]string{"username": "alex", "email": "alexsanchez@upeu.edu.pe"})
	require.Equal(t, http.StatusCreated, code)

	code, env := api.postJSON(t, map[string]string{"username": "ender", "email": "alexsanchez@upeu.edu.pe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "Sorry. That email already exists.", env.Message)
	assert.Len(t, api.repo.users, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(api.metrics.UsersCreated.WithLabelValues("duplicate_email")))
}

func TestAddUser_DuplicateUsername(t *testing.T) {
	api := newTestAPI(t)
	api.addUser(t, "alex", "alexsanchez@upeu.edu.pe")

	code, env := api.postJSON(t, map[string]string{"username": "alex", "email": "ender@upeu.edu.pe"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Sorry. That username already exists.", env.Message)
	assert.Len(t, api.repo.users, 1)
}

func TestAddUser_DatabaseFailure(t *testing.T) {
	api := newTestAPI(t)
	api.repo.createErr = errors.New("connection refused")

	code, env := api.postJSON(t, map[string]string{"username": "alex", "email": "alexsanchez@upeu.edu.pe"})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(api.metrics.UsersCreated.WithLabelValues("other_failure")))
}

func TestAddUser_ThenFetch(t *testing.T) {
	api := newTestAPI(t)

	code, _ := api.postJSON(t, map[string]string{"username": "alex", "email": "alexsanchez@upeu.edu.pe"})
	require.Equal(t, http.StatusCreated, code)

	code, env := api.do(t, http.MethodGet, "/users/1", nil)
	require.Equal(t, http.StatusOK, code)

	var u entities.UserJSON
	require.NoError(t, json.Unmarshal(env.Data, &u))
	assert.Equal(t, uint(1), u.ID)
	assert.Equal(t, "alex", u.Username)
	assert.Equal(t, "alexsanchez@upeu.edu.pe", u.Email)
	assert.True(t, u.Active)
}

func TestSingleUser(t *testing.T) {
	api := newTestAPI(t)
	user := api.addUser(t, "alex", "alexsanchez@upeu.edu.pe")

	code, env := api.do(t, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, map[string]any{
		"id":       float64(user.ID),
		"username": "alex",
		"email":    "alexsanchez@upeu.edu.pe",
		"active":   true,
	}, data)
}

func TestSingleUser_NoID(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/users/blah", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", env.Status)
	assert.Equal(t, "User does not exist", env.Message)
}

func TestSingleUser_IncorrectID(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/users/999", "/users/3000000000"} {
		code, env := api.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, code, path)
		assert.Equal(t, "fail", env.Status, path)
		assert.Equal(t, "User does not exist", env.Message, path)
	}
}

func TestAllUsers(t *testing.T) {
	api := newTestAPI(t)
	api.addUser(t, "alex", "alexsanchez@upeu.edu.pe")
	api.addUser(t, "ender", "endersanchez@upeu.edu.pe")

	code, env := api.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	var data struct {
		Users []entities.UserJSON `json:"users"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Users, 2)
	assert.Equal(t, "alex", data.Users[0].Username)
	assert.Equal(t, "alexsanchez@upeu.edu.pe", data.Users[0].Email)
	assert.Equal(t, "ender", data.Users[1].Username)
	assert.Equal(t, "endersanchez@upeu.edu.pe", data.Users[1].Email)
}

func TestAllUsers_Empty(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"users":[]}`, string(env.Data))
}

func TestAllUsers_DatabaseFailure(t *testing.T) {
	api := newTestAPI(t)
	api.repo.listErr = errors.New("connection refused")

	code, env := api.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "fail", env.Status)
}
