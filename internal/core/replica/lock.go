package replica

import (
	"slices"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type Role string

const (
	RoleScorer        Role = "scorer"
	RoleAdministrator Role = "administrator"
	RoleUmpire        Role = "umpire"
	RoleViewer        Role = "viewer"
)

// ParseRole maps a header value onto a role. Unknown values are viewers.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleScorer, RoleAdministrator, RoleUmpire:
		return Role(s)
	}
	return RoleViewer
}

// Identity is the actor behind a request.
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Authorized reports whether the actor may score this match at all.
// Umpires must be listed on the match.
func Authorized(s *match.MatchState, who Identity) bool {
	if who.ID == "" {
		return false
	}
	switch who.Role {
	case RoleScorer, RoleAdministrator:
		return true
	case RoleUmpire:
		return slices.Contains(s.Umpires, who.ID)
	}
	return false
}

// LockedByOther reports that another actor holds the soft write lock.
func LockedByOther(s *match.MatchState, who Identity) bool {
	return s.ActiveScorerID != "" && s.ActiveScorerID != who.ID
}

// ReadOnly reports that who must not mutate the match. Administrators are
// never locked out.
func ReadOnly(s *match.MatchState, who Identity) bool {
	if !Authorized(s, who) {
		return true
	}
	return who.Role != RoleAdministrator && LockedByOther(s, who)
}

// ClaimID returns the scorer id a mutation by who should leave on the
// match, and whether it differs from the current holder. Administrators
// act without taking the lock.
func ClaimID(s *match.MatchState, who Identity) (string, bool) {
	if who.Role == RoleAdministrator || s.ActiveScorerID != "" {
		return s.ActiveScorerID, false
	}
	return who.ID, true
}
