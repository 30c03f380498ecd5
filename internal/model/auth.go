package model

import (
	"slices"
	"time"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Credential is the authenticated identity attached to a request by the
// session middleware and handed to operations that need authorization.
type Credential struct {
	UserID   string
	Username string
	Roles    []string
}

func (c Credential) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if slices.Contains(c.Roles, role) {
			return true
		}
	}
	return false
}

func (c Credential) IsManager() bool {
	return c.HasAnyRole(RoleManager, RoleAdmin)
}

type AccessClaims struct {
	UserID    string
	Username  string
	Roles     []string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c AccessClaims) Credential() Credential {
	return Credential{UserID: c.UserID, Username: c.Username, Roles: c.Roles}
}

type RefreshClaims struct {
	UserID    string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  IssuedToken
	RefreshToken *IssuedToken
	User         User
}

type RefreshTokenRecord struct {
	TokenID   string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}
