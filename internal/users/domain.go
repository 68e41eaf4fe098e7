package users

import (
	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/shared"
)

// ListFilters narrows the user listing.
type ListFilters struct {
	shared.PageRequest
	Role   auth.Role
	Search string
}

// RoleUpdate is the body of a role change request.
type RoleUpdate struct {
	Role string `json:"role" validate:"required"`
}
