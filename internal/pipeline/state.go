// Package pipeline drives a request from query to review through an explicit state machine.
package pipeline

import (
	"reviewero/internal/apperr"
	"reviewero/internal/media"
)

// State is a step of a resolution request.
type State int

const (
	Idle State = iota
	Resolving
	Disambiguating
	Synthesizing
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Disambiguating:
		return "disambiguating"
	case Synthesizing:
		return "synthesizing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed
}

// transitions lists the legal successors of each state. Disambiguating is
// left by re-entering Resolving with the caller's choice.
var transitions = map[State][]State{
	Idle:           {Resolving, Failed},
	Resolving:      {Disambiguating, Synthesizing, Failed},
	Disambiguating: {Resolving, Failed},
	Synthesizing:   {Succeeded, Failed},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Surface names the caller of a request.
type Surface string

const (
	Interactive Surface = "interactive"
	Protocol    Surface = "protocol"
)

// Outcome is what a request hands back to its caller. Exactly one of the
// following holds:
//   - State == Succeeded: Media and Review are set.
//   - State == Failed: Err is set.
//   - State == Disambiguating with Candidates: pick one and call Choose.
//   - State == Disambiguating with Pending and Seasons: pick an episode and call ChooseEpisode.
type Outcome struct {
	State      State
	Candidates []media.Canonical
	Pending    media.Canonical
	Seasons    []media.SeasonSummary
	Media      media.Canonical
	Review     media.Review
	Err        *apperr.Error
	RequestID  string
}

// NeedsTitle reports whether the caller must choose among Candidates.
func (o Outcome) NeedsTitle() bool {
	return o.State == Disambiguating && len(o.Candidates) > 0
}

// NeedsEpisode reports whether the caller must choose a season and episode of Pending.
func (o Outcome) NeedsEpisode() bool {
	return o.State == Disambiguating && len(o.Candidates) == 0
}
