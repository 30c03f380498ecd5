package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"technotes-api/internal/model"
	"technotes-api/internal/repository"
)

func TestMain(m *testing.M) {
	passwordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func seedUser(t *testing.T, store *repository.MemoryStore, id string, username string, password string, active bool, roles ...string) model.User {
	t.Helper()

	hash, err := hashPassword(password)
	require.NoError(t, err)

	if len(roles) == 0 {
		roles = []string{model.RoleEmployee}
	}
	user := model.User{
		ID:           id,
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		Active:       active,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}
