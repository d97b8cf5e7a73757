package repositories

import (
	"context"
	"errors"

	"users-service/entities"
)

var ErrUserNotFound = errors.New("user not found")

// CreateOutcome classifies the result of an insert.
type CreateOutcome int

const (
	Created CreateOutcome = iota
	DuplicateEmail
	DuplicateUsername
	OtherFailure
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case DuplicateEmail:
		return "duplicate_email"
	case DuplicateUsername:
		return "duplicate_username"
	default:
		return "other_failure"
	}
}

// CreateResult carries the stored user on Created and the driver error on
// OtherFailure.
type CreateResult struct {
	Outcome CreateOutcome
	User    *entities.User
	Err     error
}

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) CreateResult
	CreateBatch(ctx context.Context, users []*entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetAll(ctx context.Context) ([]entities.User, error)
}
