package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	ConstraintUsersUsername = "uq_users_username"
	ConstraintUsersEmail    = "uq_users_email"
)

const uniqueViolationCode = "23505"

// UniqueViolation reports whether err is a unique-constraint violation and,
// when the driver exposes it, which constraint fired.
func UniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "", true
	}
	return "", false
}
