package testutil

import (
	"context"
	"testing"

	"github.com/abrezinsky/surveydesk/internal/models"
	"github.com/abrezinsky/surveydesk/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// CreateUser inserts a user with a throwaway password hash and returns its ID
func CreateUser(t *testing.T, repo repository.UserRepository, email, role string) int {
	t.Helper()

	id, err := repo.CreateUser(context.Background(), models.User{
		Email:        email,
		Name:         email,
		PasswordHash: "x",
		Role:         role,
	})
	if err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return int(id)
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int { return &n }
