package engine

import (
	"slices"

	"github.com/DoyleJ11/bracket-battle/internal/bracket"
)

func NewSession(id string, maxPlayers int) *Session {
	if maxPlayers < MinMaxPlayers {
		maxPlayers = MinMaxPlayers
	}
	return &Session{
		ID:           id,
		Players:      []Player{},
		Matchups:     []bracket.Matchup{},
		CurrentVotes: []Vote{},
		MaxPlayers:   maxPlayers,
	}
}

// IsOwner reports whether connID belongs to the first player to join.
func IsOwner(s *Session, connID string) bool {
	return len(s.Players) > 0 && s.Players[0].ID == connID
}

func Complete(s *Session) bool {
	return len(s.Matchups) > 0 && s.CurrentMatchupIndex >= len(s.Matchups)
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func DerivePhase(s *Session) Phase {
	switch {
	case Complete(s):
		return PhaseComplete
	case s.Started && s.Bracket != nil:
		return PhaseInProgress
	case s.Bracket != nil:
		return PhaseBracketSet
	case len(s.Players) > 0:
		return PhaseLobby
	default:
		return PhaseEmpty
	}
}

// Clone returns a copy that shares only immutable contestant data with s.
func (s *Session) Clone() Session {
	out := *s
	out.Players = slices.Clone(s.Players)
	out.Matchups = slices.Clone(s.Matchups)
	out.CurrentVotes = slices.Clone(s.CurrentVotes)
	return out
}
