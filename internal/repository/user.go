package repository

import (
	"context"

	"user-service/internal/domain"
)

// UserRepository defines persistence operations for User records.
//
// Delete is a soft delete: callers set IsDeleted before calling it. Update
// writes every field of the record in a single statement.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, user *domain.User) error
}
