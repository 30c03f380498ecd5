package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"technotes-api/internal/event"
	"technotes-api/internal/model"
	"technotes-api/internal/repository"
)

type AuthService struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	verifier *CredentialVerifier
	issuer   *TokenIssuer
	bus      event.Bus
	rotate   bool
}

// NewAuthService wires the login, refresh and logout flows. With rotate set,
// refresh tokens are recorded by jti and exchanged for a new one on each use.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	verifier *CredentialVerifier,
	issuer *TokenIssuer,
	bus event.Bus,
	rotate bool,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		issuer:   issuer,
		bus:      bus,
		rotate:   rotate,
	}
}

func (s *AuthService) RefreshTTL() time.Duration { return s.issuer.RefreshTTL() }

func (s *AuthService) RotatesRefreshTokens() bool { return s.rotate }

// Login returns model.ErrInvalidCredentials for both unknown users and wrong
// passwords; the distinction only reaches the auth event log.
func (s *AuthService) Login(ctx context.Context, username string, password string) (model.Session, error) {
	user, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) || errors.Is(err, model.ErrInvalidCredentials) {
			publish(s.bus, event.TypeLoginFailed, "", map[string]any{"username": username, "reason": err.Error()})
			return model.Session{}, model.ErrInvalidCredentials
		}
		return model.Session{}, err
	}

	access, err := s.issuer.IssueAccessToken(user.ID, user.Username, user.Roles)
	if err != nil {
		return model.Session{}, err
	}

	refresh, err := s.issueRefresh(ctx, user.ID)
	if err != nil {
		return model.Session{}, err
	}

	publish(s.bus, event.TypeLoginSucceeded, user.ID, map[string]any{"username": user.Username})

	return model.Session{AccessToken: access, RefreshToken: &refresh, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. Token failures
// surface as model.ErrTokenExpired or model.ErrTokenInvalid; a missing or
// deactivated owner as model.ErrUnauthorized. Session.RefreshToken is only
// set when rotation is on.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.Session, error) {
	claims, err := s.issuer.VerifyRefreshToken(refreshToken)
	if err != nil {
		publish(s.bus, event.TypeRefreshRejected, "", map[string]any{"reason": err.Error()})
		return model.Session{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			publish(s.bus, event.TypeRefreshRejected, claims.UserID, map[string]any{"reason": "user not found"})
			return model.Session{}, model.ErrUnauthorized
		}
		return model.Session{}, err
	}
	if !user.Active {
		publish(s.bus, event.TypeRefreshRejected, user.ID, map[string]any{"reason": "user inactive"})
		return model.Session{}, model.ErrUnauthorized
	}

	var rotated *model.IssuedToken
	if s.rotate {
		owner, err := s.tokens.Validate(ctx, claims.TokenID)
		if err != nil {
			if errors.Is(err, model.ErrTokenNotFound) {
				publish(s.bus, event.TypeRefreshRejected, user.ID, map[string]any{"reason": "token revoked"})
				return model.Session{}, model.ErrTokenInvalid
			}
			return model.Session{}, err
		}
		if owner != user.ID {
			return model.Session{}, model.ErrTokenInvalid
		}
		if err := s.tokens.Revoke(ctx, claims.TokenID); err != nil {
			if errors.Is(err, model.ErrTokenNotFound) {
				publish(s.bus, event.TypeRefreshRejected, user.ID, map[string]any{"reason": "token already used"})
				return model.Session{}, model.ErrTokenInvalid
			}
			return model.Session{}, err
		}

		next, err := s.issueRefresh(ctx, user.ID)
		if err != nil {
			return model.Session{}, err
		}
		rotated = &next
	}

	access, err := s.issuer.IssueAccessToken(user.ID, user.Username, user.Roles)
	if err != nil {
		return model.Session{}, err
	}

	publish(s.bus, event.TypeTokenRefreshed, user.ID, map[string]any{"rotated": rotated != nil})

	return model.Session{AccessToken: access, RefreshToken: rotated, User: user}, nil
}

// Logout never fails on a bad or missing token; only store errors are returned.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	actorID := ""
	if refreshToken != "" {
		if claims, err := s.issuer.VerifyRefreshToken(refreshToken); err == nil {
			actorID = claims.UserID
			if s.rotate {
				if err := s.tokens.Revoke(ctx, claims.TokenID); err != nil && !errors.Is(err, model.ErrTokenNotFound) {
					return err
				}
			}
		}
	}

	publish(s.bus, event.TypeLogout, actorID, nil)
	return nil
}

func (s *AuthService) CleanExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.CleanExpired(ctx)
}

func (s *AuthService) issueRefresh(ctx context.Context, userID string) (model.IssuedToken, error) {
	refresh, err := s.issuer.IssueRefreshToken(userID)
	if err != nil {
		return model.IssuedToken{}, err
	}

	if s.rotate {
		record := model.RefreshTokenRecord{
			TokenID:   refresh.TokenID,
			UserID:    userID,
			CreatedAt: refresh.IssuedAt,
			ExpiresAt: refresh.ExpiresAt,
		}
		if err := s.tokens.Store(ctx, record); err != nil {
			return model.IssuedToken{}, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return refresh, nil
}
