package types

import (
	"github.com/DoyleJ11/bracket-battle/internal/bracket"
	"github.com/DoyleJ11/bracket-battle/internal/engine"
	"github.com/DoyleJ11/bracket-battle/internal/store"
)

type SessionCreated struct {
	SessionID string `json:"sessionId"`
}

type PlayerJoined struct {
	Players []engine.Player `json:"players"`
}

type VoteStatus struct {
	HasVoted bool `json:"hasVoted"`
}

type BracketSet struct {
	Bracket             *store.Definition `json:"bracket"`
	Matchups            []bracket.Matchup `json:"matchups"`
	CurrentMatchupIndex int               `json:"currentMatchupIndex"`
}

type VoteCast struct {
	CurrentVotes []engine.Vote   `json:"currentVotes"`
	Players      []engine.Player `json:"players"`
}

type MatchupAdvanced struct {
	Matchups            []bracket.Matchup `json:"matchups"`
	CurrentMatchupIndex int               `json:"currentMatchupIndex"`
}

func Message(typ string, data any) ServerMessage {
	return ServerMessage{Type: typ, Data: data}
}

func Error(msg string) ServerMessage {
	return ServerMessage{Type: TypeError, Data: msg}
}
