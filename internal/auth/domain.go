package auth

import (
	"context"
	"fmt"
	"time"
)

// Role names the privilege level of an identity.
type Role string

const (
	RoleUser        Role = "user"
	RoleAdmin       Role = "admin"
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// KnownRoles lists every role the system understands.
var KnownRoles = []Role{RoleUser, RoleAdmin, RoleInterviewer, RoleCandidate}

// Valid reports whether the role is one of KnownRoles.
func (r Role) Valid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

// RoleSet is the subset of roles a deployment accepts in role updates.
type RoleSet struct {
	roles []Role
}

// NewRoleSet builds a RoleSet. The set must contain user and admin and may
// only contain known roles.
func NewRoleSet(roles ...Role) (RoleSet, error) {
	seen := make(map[Role]struct{}, len(roles))
	ordered := make([]Role, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return RoleSet{}, fmt.Errorf("unknown role %q", r)
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		ordered = append(ordered, r)
	}
	for _, required := range []Role{RoleUser, RoleAdmin} {
		if _, ok := seen[required]; !ok {
			return RoleSet{}, fmt.Errorf("role set must include %q", required)
		}
	}
	return RoleSet{roles: ordered}, nil
}

// DefaultRoleSet accepts every known role.
func DefaultRoleSet() RoleSet {
	return RoleSet{roles: append([]Role(nil), KnownRoles...)}
}

// Contains reports whether r belongs to the set.
func (s RoleSet) Contains(r Role) bool {
	for _, role := range s.roles {
		if role == r {
			return true
		}
	}
	return false
}

// Roles returns a copy of the accepted roles.
func (s RoleSet) Roles() []Role {
	return append([]Role(nil), s.roles...)
}

// User is a stored account including its credential hash.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the user stripped of credential material.
func (u User) Identity() Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type contextKey struct{}

// WithIdentity attaches the identity to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity resolved for the request.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
