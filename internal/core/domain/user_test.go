package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserToSummary(t *testing.T) {
	now := time.Now()
	user := &User{
		ID:           "user-123",
		Email:        "test@example.com",
		PasswordHash: "secret-hash",
		Name:         "Test User",
		Role:         RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  &now,
	}

	summary := user.ToSummary()

	if summary.ID != user.ID {
		t.Errorf("expected ID %s, got %s", user.ID, summary.ID)
	}
	if summary.Email != user.Email {
		t.Errorf("expected Email %s, got %s", user.Email, summary.Email)
	}
	if summary.Name != user.Name {
		t.Errorf("expected Name %s, got %s", user.Name, summary.Name)
	}
	if summary.Role != user.Role {
		t.Errorf("expected Role %s, got %s", user.Role, summary.Role)
	}
	if summary.Active != user.Active {
		t.Errorf("expected Active %v, got %v", user.Active, summary.Active)
	}
	if summary.LastLoginAt == nil {
		t.Error("expected LastLoginAt to be set")
	}
}

func TestUserSummaryOmitsPasswordHash(t *testing.T) {
	user := &User{ID: "user-1", PasswordHash: "secret-hash"}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-hash") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
	if user.ToSummary().ID != "user-1" {
		t.Error("expected summary to keep the user ID")
	}
}

func TestUserIsAdmin(t *testing.T) {
	tests := []struct {
		role     Role
		expected bool
	}{
		{RoleAdmin, true},
		{RoleMember, false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			user := &User{Role: tt.role}
			if user.IsAdmin() != tt.expected {
				t.Errorf("expected IsAdmin() = %v for role %q", tt.expected, tt.role)
			}
		})
	}
}

func TestRoleConstants(t *testing.T) {
	if RoleAdmin != "admin" {
		t.Errorf("expected RoleAdmin = 'admin', got %s", RoleAdmin)
	}
	if RoleMember != "member" {
		t.Errorf("expected RoleMember = 'member', got %s", RoleMember)
	}
}
