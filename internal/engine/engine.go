package engine

import (
	"errors"
	"slices"

	"github.com/DoyleJ11/bracket-battle/internal/bracket"
	"github.com/DoyleJ11/bracket-battle/internal/store"
)

var ErrSessionFull = errors.New("session is full")
var ErrAlreadyStarted = errors.New("game already started")
var ErrAlreadyJoined = errors.New("connection already joined as another player")
var ErrNotOwner = errors.New("only the session owner may do this")
var ErrBracketAlreadySet = errors.New("bracket already set")
var ErrNoBracket = errors.New("no bracket set")
var ErrBracketRequired = errors.New("bracket must be set before starting")
var ErrTournamentComplete = errors.New("tournament already complete")
var ErrUnknownPlayer = errors.New("not a player in this session")
var ErrAlreadyVoted = errors.New("already voted this round")
var ErrInvalidChoice = errors.New("invalid vote choice")
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	DefaultMaxPlayers = 10
	MinMaxPlayers     = 2
)

type Choice int

const (
	ChoiceLeft  Choice = 0
	ChoiceRight Choice = 1
)

func (c Choice) Valid() bool { return c == ChoiceLeft || c == ChoiceRight }

type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Vote struct {
	PlayerID string `json:"playerId"`
	Choice   Choice `json:"choice"`
}

type Phase string

const (
	PhaseEmpty      Phase = "EMPTY"
	PhaseLobby      Phase = "LOBBY"
	PhaseBracketSet Phase = "BRACKET_SET"
	PhaseInProgress Phase = "IN_PROGRESS"
	PhaseComplete   Phase = "COMPLETE"
)

// Session is one running game. It is owned by a single lobby goroutine and
// mutated in place.
type Session struct {
	ID                  string
	Bracket             *store.Definition
	Players             []Player
	Matchups            []bracket.Matchup
	CurrentMatchupIndex int
	CurrentVotes        []Vote
	Started             bool
	MaxPlayers          int
}

// Rand is the randomness the engine needs: a shuffle for bracket
// construction and a coin flip for ties. *math/rand.Rand satisfies it.
type Rand interface {
	bracket.Shuffler
	Intn(n int) int
}

type CommandType string

const (
	CmdJoin       CommandType = "Join"
	CmdSetBracket CommandType = "SetBracket"
	CmdVote       CommandType = "Vote"
	CmdStartGame  CommandType = "StartGame"
)

/*
	CmdJoin       -> EvtPlayerJoined
	CmdSetBracket -> EvtBracketSet
	CmdVote       -> EvtVoteCast [-> EvtMatchupAdvanced [-> EvtGameCompleted]]
	CmdStartGame  -> EvtGameStarted
*/

// Command is one client action. PlayerID is the sender's connection id.
type Command struct {
	Type     CommandType
	PlayerID string
	Name     string
	Choice   Choice
	Bracket  *store.Definition
}

type EventType string

const (
	EvtPlayerJoined    EventType = "PlayerJoined"
	EvtBracketSet      EventType = "BracketSet"
	EvtVoteCast        EventType = "VoteCast"
	EvtMatchupAdvanced EventType = "MatchupAdvanced"
	EvtGameStarted     EventType = "GameStarted"
	EvtGameCompleted   EventType = "GameCompleted"
)

type Event struct {
	Type     EventType
	PlayerID string
	// PreviousID is the connection a reconnecting player left behind.
	PreviousID string
	// Votes is a copy of the round's votes at the time of a VoteCast.
	Votes []Vote
	// Matchup is the node decided by a MatchupAdvanced.
	Matchup int
}

// Apply runs cmd against s. On error s is left untouched.
func Apply(s *Session, cmd Command, rng Rand) ([]Event, error) {
	switch cmd.Type {
	case CmdJoin:
		prev, err := Join(s, cmd.PlayerID, cmd.Name)
		if err != nil {
			return nil, err
		}
		return []Event{{Type: EvtPlayerJoined, PlayerID: cmd.PlayerID, PreviousID: prev}}, nil

	case CmdSetBracket:
		if err := SetBracket(s, cmd.PlayerID, cmd.Bracket, rng); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtBracketSet, PlayerID: cmd.PlayerID}}, nil

	case CmdVote:
		if err := RecordVote(s, cmd.PlayerID, cmd.Choice); err != nil {
			return nil, err
		}
		events := []Event{{Type: EvtVoteCast, PlayerID: cmd.PlayerID, Votes: slices.Clone(s.CurrentVotes)}}

		decided := s.CurrentMatchupIndex
		if MaybeAdvance(s, rng) {
			events = append(events, Event{Type: EvtMatchupAdvanced, Matchup: decided})
			if Complete(s) {
				events = append(events, Event{Type: EvtGameCompleted, Matchup: decided})
			}
		}
		return events, nil

	case CmdStartGame:
		if err := Start(s, cmd.PlayerID); err != nil {
			return nil, err
		}
		return []Event{{Type: EvtGameStarted, PlayerID: cmd.PlayerID}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}

// Join adds a player, or re-binds an existing player with the same display
// name to connID. prev is the replaced connection id on a reconnect.
func Join(s *Session, connID, name string) (prev string, err error) {
	byName := slices.IndexFunc(s.Players, func(p Player) bool { return p.Name == name })
	byConn := slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == connID })

	// A known name always rebinds, even in a full or started session, so a
	// dropped player can resume. Capacity only limits new names.
	if byName >= 0 {
		if byConn >= 0 && byConn != byName {
			return "", ErrAlreadyJoined
		}
		prev = s.Players[byName].ID
		if prev == connID {
			return "", nil
		}
		s.Players[byName].ID = connID
		// An in-flight vote follows the player to the new connection.
		for i := range s.CurrentVotes {
			if s.CurrentVotes[i].PlayerID == prev {
				s.CurrentVotes[i].PlayerID = connID
			}
		}
		return prev, nil
	}

	if byConn >= 0 {
		return "", ErrAlreadyJoined
	}
	if len(s.Players) >= s.MaxPlayers {
		return "", ErrSessionFull
	}
	if s.Started {
		return "", ErrAlreadyStarted
	}
	s.Players = append(s.Players, Player{ID: connID, Name: name})
	return "", nil
}

// CanSetBracket reports whether connID may set the bracket now, without
// consulting the store.
func CanSetBracket(s *Session, connID string) error {
	if s.Bracket != nil {
		return ErrBracketAlreadySet
	}
	if s.Started {
		return ErrAlreadyStarted
	}
	if !IsOwner(s, connID) {
		return ErrNotOwner
	}
	return nil
}

// SetBracket stores def and builds the matchup tree. The bracket is
// write-once.
func SetBracket(s *Session, connID string, def *store.Definition, rng bracket.Shuffler) error {
	if err := CanSetBracket(s, connID); err != nil {
		return err
	}
	if def == nil {
		return ErrNoBracket
	}
	matchups, err := bracket.Build(rng, def.Contestants)
	if err != nil {
		return err
	}
	s.Bracket = def
	s.Matchups = matchups
	return nil
}

func Start(s *Session, connID string) error {
	if s.Started {
		return ErrAlreadyStarted
	}
	if !IsOwner(s, connID) {
		return ErrNotOwner
	}
	if s.Bracket == nil {
		return ErrBracketRequired
	}
	s.Started = true
	return nil
}
