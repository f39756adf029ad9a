package repo

import (
	"context"
	"github.com/google/uuid"

	"github.com/quillist/auth-core/internal/domain/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	GetUserByUsername(ctx context.Context, username string) (model.User, error)

	UpdateUser(ctx context.Context, u model.User) error

	DeleteUser(ctx context.Context, id uuid.UUID) error
}
