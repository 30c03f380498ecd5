package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"technotes-api/internal/model"
)

type tokenClaims struct {
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 tokens. Access and refresh tokens are
// signed with different secrets and carry their kind in the typ claim, so one
// can never be replayed as the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenIssuer(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*TokenIssuer, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// UseClock replaces the time source used for minting and verification.
func (i *TokenIssuer) UseClock(now func() time.Time) {
	i.now = now
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *TokenIssuer) IssueAccessToken(userID string, username string, roles []string) (model.IssuedToken, error) {
	return i.issue(tokenClaims{
		Username: username,
		Roles:    roles,
		Type:     model.TokenTypeAccess,
	}, userID, i.accessTTL, i.accessSecret)
}

func (i *TokenIssuer) IssueRefreshToken(userID string) (model.IssuedToken, error) {
	return i.issue(tokenClaims{Type: model.TokenTypeRefresh}, userID, i.refreshTTL, i.refreshSecret)
}

func (i *TokenIssuer) VerifyAccessToken(token string) (*model.AccessClaims, error) {
	claims, err := i.parse(token, model.TokenTypeAccess, i.accessSecret)
	if err != nil {
		return nil, err
	}

	return &model.AccessClaims{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Roles:     claims.Roles,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (i *TokenIssuer) VerifyRefreshToken(token string) (*model.RefreshClaims, error) {
	claims, err := i.parse(token, model.TokenTypeRefresh, i.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &model.RefreshClaims{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (i *TokenIssuer) issue(claims tokenClaims, subject string, ttl time.Duration, secret []byte) (model.IssuedToken, error) {
	if subject == "" {
		return model.IssuedToken{}, errors.New("token subject is required")
	}

	issuedAt := i.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	tokenID := uuid.NewString()

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return model.IssuedToken{}, fmt.Errorf("sign %s token: %w", claims.Type, err)
	}

	return model.IssuedToken{
		Token:     signed,
		TokenID:   tokenID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (i *TokenIssuer) parse(token string, expectedType string, secret []byte) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}

	if !parsed.Valid || claims.Type != expectedType || claims.Subject == "" || claims.IssuedAt == nil {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}
