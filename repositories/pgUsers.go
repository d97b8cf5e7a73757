package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"users-service/db"
	"users-service/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

// Create inserts the user in its own transaction. A unique violation rolls
// the transaction back and is reported as a duplicate outcome.
func (r *userPgRepository) Create(ctx context.Context, user *entities.User) CreateResult {
	err := r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	})
	if err == nil {
		return CreateResult{Outcome: Created, User: user}
	}
	return CreateResult{Outcome: classifyCreateError(err), Err: err}
}

// CreateBatch inserts all users or none.
func (r *userPgRepository) CreateBatch(ctx context.Context, users []*entities.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.db.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("insert %s: %w", u.Username, err)
			}
		}
		return nil
	})
}

func (r *userPgRepository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
		}
		return nil, err
	}
	return &user, nil
}

// GetAll returns users in insertion order.
func (r *userPgRepository) GetAll(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.GetDB().WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func classifyCreateError(err error) CreateOutcome {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return OtherFailure
	}
	switch {
	case constraint == db.ConstraintUsersEmail, strings.Contains(constraint, "email"):
		return DuplicateEmail
	case constraint == db.ConstraintUsersUsername, strings.Contains(constraint, "username"):
		return DuplicateUsername
	}
	// unnamed constraint
	return DuplicateEmail
}
