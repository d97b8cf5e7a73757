package usecases

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"users-service/entities"
	"users-service/repositories"
)

var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUserNotFound   = errors.New("user does not exist")
)

// NewUserInput is the body of a create request. Pointers tell an absent key
// apart from an empty string.
type NewUserInput struct {
	Username *string `json:"username" validate:"required,min=1,max=128"`
	Email    *string `json:"email" validate:"required,email,max=128"`
}

// UserNotifier is told about every user that was stored.
type UserNotifier interface {
	UserCreated(user entities.User)
}

// SeedUsers are the sample accounts inserted by the seed command.
var SeedUsers = []NewUserInput{
	{Username: strPtr("alex"), Email: strPtr("alexsanchez@upeu.edu.pe")},
	{Username: strPtr("ender"), Email: strPtr("endersanchez@upeu.edu.pe")},
}

type UsersUseCase struct {
	repo     repositories.UserRepository
	validate *validator.Validate
	notifier UserNotifier
}

func NewUsersUseCase(repo repositories.UserRepository, notifier UserNotifier) *UsersUseCase {
	return &UsersUseCase{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		notifier: notifier,
	}
}

// Validate checks that both keys are present and the email is plausible.
func (uc *UsersUseCase) Validate(in NewUserInput) error {
	if err := uc.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s:%s", strings.ToLower(fe.Field()), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(fields, ","))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// AddUser validates the input and stores a new active user. Validation
// failures return ErrInvalidPayload; otherwise the persistence outcome is
// returned as is.
func (uc *UsersUseCase) AddUser(ctx context.Context, in NewUserInput) (repositories.CreateResult, error) {
	if err := uc.Validate(in); err != nil {
		return repositories.CreateResult{}, err
	}

	user := entities.NewUser(*in.Username, *in.Email)
	res := uc.repo.Create(ctx, user)

	switch res.Outcome {
	case repositories.Created:
		log.Printf("user %d created (%s)", res.User.ID, res.User.Email)
		if uc.notifier != nil {
			uc.notifier.UserCreated(*res.User)
		}
	case repositories.OtherFailure:
		log.Printf("error creating user %s: %v", user.Email, res.Err)
	default:
		log.Printf("user %s rejected: %s", user.Email, res.Outcome)
	}
	return res, nil
}

// GetUser resolves a raw path id. A non-numeric id, or one outside the
// int4 range of users.id, is reported the same way as a missing row.
func (uc *UsersUseCase) GetUser(ctx context.Context, rawID string) (*entities.User, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(rawID), 10, 31)
	if err != nil || id == 0 {
		return nil, ErrUserNotFound
	}

	user, err := uc.repo.GetByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetAllUsers returns every user in insertion order.
func (uc *UsersUseCase) GetAllUsers(ctx context.Context) ([]entities.User, error) {
	return uc.repo.GetAll(ctx)
}

// Seed inserts the sample users in one transaction.
func (uc *UsersUseCase) Seed(ctx context.Context) ([]*entities.User, error) {
	users := make([]*entities.User, 0, len(SeedUsers))
	for _, in := range SeedUsers {
		if err := uc.Validate(in); err != nil {
			return nil, err
		}
		users = append(users, entities.NewUser(*in.Username, *in.Email))
	}
	if err := uc.repo.CreateBatch(ctx, users); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return users, nil
}

func strPtr(s string) *string { return &s }
