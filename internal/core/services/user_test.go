package services

import (
	"context"
	"strings"
	"testing"

	"github.com/custodia-labs/metatext-core/internal/core/domain"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

func newTestUserService() (*mocks.MockUserStore, *userService) {
	userStore := mocks.NewMockUserStore()
	svc := NewUserService(userStore, mocks.NewMockAuthAdapter()).(*userService)
	return userStore, svc
}

func TestUserService_Create(t *testing.T) {
	_, svc := newTestUserService()

	tests := []struct {
		name    string
		req     driving.CreateUserRequest
		wantErr error
	}{
		{
			name: "valid member",
			req: driving.CreateUserRequest{
				Email:    "Reader@Example.com",
				Password: "password123",
				Name:     "Reader",
			},
		},
		{
			name: "valid admin",
			req: driving.CreateUserRequest{
				Email:    "admin@example.com",
				Password: "password123",
				Name:     "Admin",
				Role:     domain.RoleAdmin,
			},
		},
		{
			name: "missing email",
			req: driving.CreateUserRequest{
				Password: "password123",
				Name:     "No Email",
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "short password",
			req: driving.CreateUserRequest{
				Email:    "short@example.com",
				Password: "short",
				Name:     "Short",
			},
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "unknown role",
			req: driving.CreateUserRequest{
				Email:    "role@example.com",
				Password: "password123",
				Name:     "Role",
				Role:     "owner",
			},
			wantErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Create(context.Background(), tt.req)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user.ID == "" {
				t.Error("expected user ID to be generated")
			}
			if !user.Active {
				t.Error("expected new user to be active")
			}
			if user.Role == "" {
				t.Error("expected role to default")
			}
			if user.Email != strings.ToLower(tt.req.Email) {
				t.Errorf("expected lower-cased email, got %s", user.Email)
			}
			if user.PasswordHash == tt.req.Password {
				t.Error("expected password to be hashed")
			}
		})
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	_, svc := newTestUserService()
	req := driving.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "password123",
		Name:     "Dup",
	}

	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("first create: %v", err)
	}

	req.Email = "DUP@example.com"
	if _, err := svc.Create(context.Background(), req); err != domain.ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUserService_Setup(t *testing.T) {
	userStore, svc := newTestUserService()
	req := driving.CreateUserRequest{
		Email:    "first@example.com",
		Password: "password123",
		Name:     "First",
		Role:     domain.RoleMember,
	}

	user, err := svc.Setup(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != domain.RoleAdmin {
		t.Errorf("expected setup user to be admin, got %s", user.Role)
	}
	if userStore.Count() != 1 {
		t.Errorf("expected 1 user, got %d", userStore.Count())
	}

	req.Email = "second@example.com"
	if _, err := svc.Setup(context.Background(), req); err != domain.ErrForbidden {
		t.Errorf("expected ErrForbidden once users exist, got %v", err)
	}
}

func TestUserService_GetAndList(t *testing.T) {
	_, svc := newTestUserService()

	created, err := svc.Create(context.Background(), driving.CreateUserRequest{
		Email:    "get@example.com",
		Password: "password123",
		Name:     "Get",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "get@example.com" {
		t.Errorf("expected get@example.com, got %s", got.Email)
	}

	if _, err := svc.Get(context.Background(), "missing"); err != domain.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}
