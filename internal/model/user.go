package model

import (
	"slices"
	"time"
)

const (
	RoleEmployee = "Employee"
	RoleManager  = "Manager"
	RoleAdmin    = "Admin"
)

var KnownRoles = []string{RoleEmployee, RoleManager, RoleAdmin}

func IsKnownRole(role string) bool {
	return slices.Contains(KnownRoles, role)
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	Roles        []string  `json:"roles" bson:"roles"`
	Active       bool      `json:"active" bson:"active"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PublicUser is the user shape returned to API clients.
type PublicUser struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Active   bool     `json:"active"`
}

func (u User) Public() PublicUser {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return PublicUser{ID: u.ID, Username: u.Username, Roles: roles, Active: u.Active}
}
