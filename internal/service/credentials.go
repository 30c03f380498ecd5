package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"technotes-api/internal/model"
	"technotes-api/internal/repository"
)

var passwordHashCost = 12

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type CredentialVerifier struct {
	users     repository.UserRepository
	dummyHash []byte
}

func NewCredentialVerifier(users repository.UserRepository) (*CredentialVerifier, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("technotes-timing-equalizer"), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("prepare credential verifier: %w", err)
	}
	return &CredentialVerifier{users: users, dummyHash: dummy}, nil
}

// Verify checks a username/password pair. Unknown and inactive users yield
// model.ErrUserNotFound, a wrong password yields model.ErrInvalidCredentials.
// A bcrypt comparison runs on every path so timing does not reveal which.
func (v *CredentialVerifier) Verify(ctx context.Context, username string, password string) (model.User, error) {
	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
			return model.User{}, model.ErrUserNotFound
		}
		return model.User{}, err
	}

	if !user.Active {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
		return model.User{}, model.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}
