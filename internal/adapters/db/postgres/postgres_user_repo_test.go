package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/quillist/auth-core/internal/domain/auth/errors"
	"github.com/quillist/auth-core/internal/domain/auth/model"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestPostgresUserRepo_CRUD(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()
	user := model.User{ID: uuid.New(), Email: "e@e", Username: "u", PasswordHash: "h", Role: model.RoleUser, CreatedAt: time.Now()}
	id, err := repo.CreateUser(ctx, user)
	if err != nil || id != user.ID {
		t.Fatalf("create %v", err)
	}
	got, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil || got.ID != user.ID {
		t.Fatalf("get by email %v", err)
	}
	got2, err := repo.GetUserByID(ctx, user.ID)
	if err != nil || got2.Email != user.Email {
		t.Fatalf("get by id %v", err)
	}
	got3, err := repo.GetUserByUsername(ctx, user.Username)
	if err != nil || got3.ID != user.ID {
		t.Fatalf("get by username %v", err)
	}

	got.IsVerified = true
	if err := repo.UpdateUser(ctx, got); err != nil {
		t.Fatalf("update %v", err)
	}
	if u, _ := repo.GetUserByID(ctx, user.ID); !u.IsVerified {
		t.Fatal("update not persisted")
	}

	if err := repo.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("delete %v", err)
	}
	if _, err := repo.GetUserByID(ctx, user.ID); !errors.IsNotFound(err) {
		t.Fatalf("expected not found")
	}
}

func TestPostgresUserRepo_DuplicateUsername(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	first := model.User{ID: uuid.New(), Email: "a@example.com", Username: "alice", PasswordHash: "h", Role: model.RoleUser}
	if _, err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("create %v", err)
	}

	dup := model.User{ID: uuid.New(), Email: "other@example.com", Username: "alice", PasswordHash: "h", Role: model.RoleUser}
	if _, err := repo.CreateUser(ctx, dup); !errors.IsAlreadyExists(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPostgresUserRepo_DuplicateEmail(t *testing.T) {
	repo := NewPostgresUserRepo(setupDB(t))
	ctx := context.Background()

	first := model.User{ID: uuid.New(), Email: "a@example.com", Username: "alice", PasswordHash: "h", Role: model.RoleUser}
	if _, err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("create %v", err)
	}

	dup := model.User{ID: uuid.New(), Email: "a@example.com", Username: "bob", PasswordHash: "h", Role: model.RoleUser}
	if _, err := repo.CreateUser(ctx, dup); !errors.IsAlreadyExists(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
