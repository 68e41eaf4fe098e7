// Package authz decides whether an identity may perform an action on a
// record. Every ownership and participant check in the API goes through
// Authorize.
package authz

import (
	"fmt"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/shared"
)

// Kind names a protected resource type.
type Kind string

const (
	KindSession    Kind = "session"
	KindQuestion   Kind = "question"
	KindSubmission Kind = "submission"
	KindProblem    Kind = "problem"
	KindProblemTag Kind = "problem_tag"
	KindUserStats  Kind = "user_stats"
	KindUser       Kind = "user"
)

// Action names an operation on a resource.
type Action string

const (
	ActionRead     Action = "read"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionFeedback Action = "feedback"
	ActionAnswer   Action = "answer"
	ActionApprove  Action = "approve"
)

// Resource describes the record being accessed. OwnerID is the owning
// identity; Participants lists additional identities with owner-level
// access (session owner and interviewer for questions).
type Resource struct {
	Kind         Kind
	ID           string
	OwnerID      string
	Participants []string
}

type mode int

const (
	// anyone authenticated.
	modeOpen mode = iota
	// elevated roles only.
	modeRoles
	// elevated roles or the owner/participants.
	modeRolesOrOwner
	// owner/participants only, no role bypass.
	modeOwnerOnly
)

type rule struct {
	mode     mode
	elevated []auth.Role
}

var (
	open             = rule{mode: modeOpen}
	adminOnly        = rule{mode: modeRoles, elevated: []auth.Role{auth.RoleAdmin}}
	staffOnly        = rule{mode: modeRoles, elevated: []auth.Role{auth.RoleAdmin, auth.RoleInterviewer}}
	adminOrOwner     = rule{mode: modeRolesOrOwner, elevated: []auth.Role{auth.RoleAdmin}}
	staffOrOwner     = rule{mode: modeRolesOrOwner, elevated: []auth.Role{auth.RoleAdmin, auth.RoleInterviewer}}
	participantsOnly = rule{mode: modeOwnerOnly}
)

type key struct {
	kind   Kind
	action Action
}

var rules = map[key]rule{
	{KindSession, ActionRead}:     staffOrOwner,
	{KindSession, ActionUpdate}:   staffOrOwner,
	{KindSession, ActionFeedback}: staffOnly,
	{KindSession, ActionDelete}:   adminOnly,
	{KindSession, ActionCreate}:   open,

	{KindQuestion, ActionRead}:     adminOrOwner,
	{KindQuestion, ActionCreate}:   adminOrOwner,
	{KindQuestion, ActionAnswer}:   participantsOnly,
	{KindQuestion, ActionFeedback}: adminOnly,
	{KindQuestion, ActionDelete}:   adminOnly,

	{KindSubmission, ActionRead}:   adminOrOwner,
	{KindSubmission, ActionCreate}: open,
	{KindSubmission, ActionUpdate}: adminOnly,
	{KindSubmission, ActionDelete}: adminOnly,

	{KindProblem, ActionRead}:    open,
	{KindProblem, ActionCreate}:  open,
	{KindProblem, ActionUpdate}:  adminOrOwner,
	{KindProblem, ActionDelete}:  adminOrOwner,
	{KindProblem, ActionApprove}: adminOnly,

	{KindProblemTag, ActionRead}:   open,
	{KindProblemTag, ActionCreate}: adminOnly,
	{KindProblemTag, ActionDelete}: adminOnly,

	{KindUserStats, ActionRead}:   open,
	{KindUserStats, ActionUpdate}: adminOrOwner,

	{KindUser, ActionRead}:   adminOrOwner,
	{KindUser, ActionUpdate}: adminOnly,
	{KindUser, ActionDelete}: adminOnly,
}

// Authorize returns nil when subject may perform action on res and an error
// wrapping shared.ErrForbidden otherwise. Unknown kind/action pairs deny.
func Authorize(subject auth.Identity, res Resource, action Action) error {
	r, ok := rules[key{res.Kind, action}]
	if !ok {
		return fmt.Errorf("%w: no rule for %s %s", shared.ErrForbidden, action, res.Kind)
	}
	if subject.ID == "" {
		return fmt.Errorf("%w: anonymous subject", shared.ErrForbidden)
	}
	switch r.mode {
	case modeOpen:
		return nil
	case modeRoles:
		if auth.HasRole(subject, r.elevated...) {
			return nil
		}
	case modeRolesOrOwner:
		if auth.HasRole(subject, r.elevated...) || res.involves(subject.ID) {
			return nil
		}
	case modeOwnerOnly:
		if res.involves(subject.ID) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s %s denied for %s %s",
		shared.ErrForbidden, action, res.Kind, res.ID, subject.Role, subject.ID)
}

func (r Resource) involves(id string) bool {
	if id == "" {
		return false
	}
	if r.OwnerID == id {
		return true
	}
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}
