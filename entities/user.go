package entities

import "time"

// User is a registered account of the users service.
type User struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_users_username" json:"username"`
	Email       string    `gorm:"type:varchar(128);not null;uniqueIndex:uq_users_email" json:"email"`
	Active      bool      `gorm:"not null;default:true" json:"active"`
	CreatedDate time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

func (User) TableName() string { return "users" }

// NewUser returns an active user; ID and CreatedDate are filled on insert.
func NewUser(username, email string) *User {
	return &User{
		Username: username,
		Email:    email,
		Active:   true,
	}
}

// UserJSON is the wire form of a user.
type UserJSON struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Active   bool   `json:"active"`
}

func (u User) ToJSON() UserJSON {
	return UserJSON{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Active:   u.Active,
	}
}

func ToJSONList(users []User) []UserJSON {
	out := make([]UserJSON, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToJSON())
	}
	return out
}
