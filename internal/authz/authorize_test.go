package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/shared"
)

var (
	admin       = auth.Identity{ID: "admin-1", Role: auth.RoleAdmin}
	interviewer = auth.Identity{ID: "iv-1", Role: auth.RoleInterviewer}
	owner       = auth.Identity{ID: "owner-1", Role: auth.RoleUser}
	stranger    = auth.Identity{ID: "other-1", Role: auth.RoleCandidate}
)

func TestAuthorizeTable(t *testing.T) {
	session := Resource{Kind: KindSession, ID: "s1", OwnerID: owner.ID}
	question := Resource{Kind: KindQuestion, ID: "q1", OwnerID: owner.ID, Participants: []string{interviewer.ID}}
	submission := Resource{Kind: KindSubmission, ID: "sub1", OwnerID: owner.ID}
	problem := Resource{Kind: KindProblem, ID: "p1", OwnerID: owner.ID}
	tag := Resource{Kind: KindProblemTag, ID: "p1"}
	stats := Resource{Kind: KindUserStats, ID: owner.ID, OwnerID: owner.ID}

	cases := []struct {
		name    string
		subject auth.Identity
		res     Resource
		action  Action
		allowed bool
	}{
		{"session read owner", owner, session, ActionRead, true},
		{"session read interviewer", interviewer, session, ActionRead, true},
		{"session read stranger", stranger, session, ActionRead, false},
		{"session update stranger", stranger, session, ActionUpdate, false},
		{"session feedback owner", owner, session, ActionFeedback, false},
		{"session feedback interviewer", interviewer, session, ActionFeedback, true},
		{"session delete owner", owner, session, ActionDelete, false},
		{"session delete stranger", stranger, session, ActionDelete, false},
		{"session delete interviewer", interviewer, session, ActionDelete, false},
		{"session delete admin", admin, session, ActionDelete, true},
		{"session create anyone", stranger, Resource{Kind: KindSession}, ActionCreate, true},

		{"question read participant", interviewer, question, ActionRead, true},
		{"question read owner", owner, question, ActionRead, true},
		{"question read stranger", stranger, question, ActionRead, false},
		{"question create admin", admin, question, ActionCreate, true},
		{"question answer participant", owner, question, ActionAnswer, true},
		{"question answer admin", admin, question, ActionAnswer, false},
		{"question feedback owner", owner, question, ActionFeedback, false},
		{"question delete admin", admin, question, ActionDelete, true},

		{"submission read owner", owner, submission, ActionRead, true},
		{"submission read interviewer", interviewer, submission, ActionRead, false},
		{"submission update owner", owner, submission, ActionUpdate, false},
		{"submission delete admin", admin, submission, ActionDelete, true},

		{"problem read stranger", stranger, problem, ActionRead, true},
		{"problem update creator", owner, problem, ActionUpdate, true},
		{"problem update stranger", stranger, problem, ActionUpdate, false},
		{"problem delete admin", admin, problem, ActionDelete, true},
		{"problem approve creator", owner, problem, ActionApprove, false},

		{"tag read", stranger, tag, ActionRead, true},
		{"tag create user", owner, tag, ActionCreate, false},
		{"tag delete admin", admin, tag, ActionDelete, true},

		{"stats read anyone", stranger, stats, ActionRead, true},
		{"stats update self", owner, stats, ActionUpdate, true},
		{"stats update stranger", stranger, stats, ActionUpdate, false},
		{"stats update admin", admin, stats, ActionUpdate, true},

		{"unknown pair", admin, problem, ActionAnswer, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.subject, tc.res, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, shared.ErrForbidden)
		})
	}
}

func TestAdminPassesEveryAdminPath(t *testing.T) {
	for k, r := range rules {
		if r.mode == modeOwnerOnly {
			continue
		}
		res := Resource{Kind: k.kind, ID: "x", OwnerID: "someone-else"}
		assert.NoError(t, Authorize(admin, res, k.action), "%s %s", k.kind, k.action)
	}
}

func TestEmptyOwnerNeverMatchesAnonymous(t *testing.T) {
	res := Resource{Kind: KindSubmission, ID: "x"}
	assert.ErrorIs(t, Authorize(auth.Identity{Role: auth.RoleUser}, res, ActionRead), shared.ErrForbidden)
}
