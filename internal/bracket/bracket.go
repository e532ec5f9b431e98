// Package bracket builds the fixed 16-contestant single-elimination tree.
//
// Nodes are stored in a flat slice: ids 0-7 are the round of sixteen,
// 8-11 the quarterfinals, 12-13 the semifinals and 14 the final.
package bracket

import (
	"errors"
	"slices"

	"github.com/DoyleJ11/bracket-battle/internal/store"
)

const (
	Size   = store.BracketSize
	Leaves = Size / 2
	Nodes  = Size - 1
	Final  = Nodes - 1
)

var ErrContestantCount = errors.New("bracket needs exactly 16 contestants")

type Matchup struct {
	ID     int               `json:"id"`
	Round  int               `json:"round"`
	Left   *store.Contestant `json:"left"`
	Right  *store.Contestant `json:"right"`
	Winner *store.Contestant `json:"winner"`
}

// Shuffler is satisfied by *math/rand.Rand.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Build shuffles a copy of contestants and lays out all fifteen matchups.
// Only the leaves are populated.
func Build(rng Shuffler, contestants []store.Contestant) ([]Matchup, error) {
	if len(contestants) != Size {
		return nil, ErrContestantCount
	}

	shuffled := slices.Clone(contestants)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	matchups := make([]Matchup, Nodes)
	for i := range matchups {
		matchups[i].ID = i
		matchups[i].Round = Round(i)
	}
	for i := range Leaves {
		matchups[i].Left = &shuffled[2*i]
		matchups[i].Right = &shuffled[2*i+1]
	}
	return matchups, nil
}
