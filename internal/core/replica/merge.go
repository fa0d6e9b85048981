package replica

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/mitchipooh/My-Cricket-Core-Pro/internal/core/state/match"
)

type Policy string

const (
	// LastWriteWins replaces local state with any remote snapshot that differs.
	LastWriteWins Policy = "lww"
	// Versioned replaces only when the remote version is newer.
	Versioned Policy = "versioned"
)

func ParsePolicy(s string) Policy {
	if Policy(s) == Versioned {
		return Versioned
	}
	return LastWriteWins
}

type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeEqual   Outcome = "equal"
	OutcomeStale   Outcome = "stale"
	OutcomeForeign Outcome = "foreign"
	// OutcomeEcho marks a snapshot this process wrote itself and has since
	// moved past. Set by the caller, which alone knows what it wrote.
	OutcomeEcho Outcome = "echo"
)

// Merger arbitrates remote snapshots against the local state.
type Merger struct {
	Policy Policy
}

func NewMerger(p Policy) Merger { return Merger{Policy: p} }

// Merge returns the state to keep and what happened. The returned state is
// remote itself when it wins.
func (m Merger) Merge(local, remote *match.MatchState) (*match.MatchState, Outcome) {
	if remote == nil {
		return local, OutcomeStale
	}
	if local == nil {
		return remote, OutcomeApplied
	}
	if local.ID != remote.ID {
		return local, OutcomeForeign
	}
	if Equal(local, remote) {
		return local, OutcomeEqual
	}
	if m.Policy == Versioned && remote.Version <= local.Version {
		return local, OutcomeStale
	}
	return remote, OutcomeApplied
}

// Equal compares two states structurally. Nil and empty slices are equal,
// so a state survives a JSON round trip unchanged.
func Equal(a, b *match.MatchState) bool {
	return cmp.Equal(a, b, cmpopts.EquateEmpty())
}
