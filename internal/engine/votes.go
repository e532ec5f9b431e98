package engine

import (
	"slices"

	"github.com/DoyleJ11/bracket-battle/internal/bracket"
)

// RecordVote adds playerID's vote for the current matchup.
func RecordVote(s *Session, playerID string, choice Choice) error {
	if s.Bracket == nil || len(s.Matchups) == 0 {
		return ErrNoBracket
	}
	if s.CurrentMatchupIndex >= len(s.Matchups) {
		return ErrTournamentComplete
	}
	if !choice.Valid() {
		return ErrInvalidChoice
	}
	if !slices.ContainsFunc(s.Players, func(p Player) bool { return p.ID == playerID }) {
		return ErrUnknownPlayer
	}
	if HasVoted(s, playerID) {
		return ErrAlreadyVoted
	}
	s.CurrentVotes = append(s.CurrentVotes, Vote{PlayerID: playerID, Choice: choice})
	return nil
}

// MaybeAdvance decides the current matchup once every player has voted.
// Ties are settled by rng.Intn(2): 0 picks left, 1 picks right.
func MaybeAdvance(s *Session, rng Rand) bool {
	if len(s.Players) == 0 || len(s.CurrentVotes) != len(s.Players) {
		return false
	}
	if s.CurrentMatchupIndex >= len(s.Matchups) {
		return false
	}

	idx := s.CurrentMatchupIndex
	m := &s.Matchups[idx]
	left, right := Tally(s)

	winner := m.Left
	switch {
	case right > left:
		winner = m.Right
	case left == right && rng.Intn(2) == 1:
		winner = m.Right
	}
	m.Winner = winner

	if parent, ok := bracket.Parent(idx); ok {
		if bracket.FillsLeft(idx) {
			s.Matchups[parent].Left = winner
		} else {
			s.Matchups[parent].Right = winner
		}
	}

	s.CurrentVotes = []Vote{}
	s.CurrentMatchupIndex++
	return true
}

// Tally counts left and right votes for the current matchup.
func Tally(s *Session) (left, right int) {
	for _, v := range s.CurrentVotes {
		switch v.Choice {
		case ChoiceLeft:
			left++
		case ChoiceRight:
			right++
		}
	}
	return left, right
}

func HasVoted(s *Session, playerID string) bool {
	return slices.ContainsFunc(s.CurrentVotes, func(v Vote) bool { return v.PlayerID == playerID })
}
