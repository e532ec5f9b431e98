// Package types is the websocket wire protocol. Every frame is
//
//	{"type": "<name>", "data": <payload>}
//
// Client -> Server
//
//	create_session: {}
//	join:           {sessionId, playerName}
//	set_bracket:    {sessionId, code}
//	vote:           {sessionId, choice: 0|1}
//	start_game:     {sessionId}
//
// Server -> Client
//
//	session_created:    {sessionId}                            creator only
//	player_joined:      {players}                              session
//	enter_bracket_code: no payload                             first joiner only
//	vote_status:        {hasVoted}                             joiner only
//	bracket_set:        {bracket, matchups, currentMatchupIndex} session
//	vote_cast:          {currentVotes, players}                session
//	matchup_advanced:   {matchups, currentMatchupIndex}        session
//	game_started:       no payload                             session
//	error:              "message"                              offending client only
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	TypeCreateSession = "create_session"
	TypeJoin          = "join"
	TypeSetBracket    = "set_bracket"
	TypeVote          = "vote"
	TypeStartGame     = "start_game"
)

const (
	TypeSessionCreated   = "session_created"
	TypePlayerJoined     = "player_joined"
	TypeEnterBracketCode = "enter_bracket_code"
	TypeVoteStatus       = "vote_status"
	TypeBracketSet       = "bracket_set"
	TypeVoteCast         = "vote_cast"
	TypeMatchupAdvanced  = "matchup_advanced"
	TypeGameStarted      = "game_started"
	TypeError            = "error"
)

const MaxPlayerNameLen = 32

var (
	ErrBadJSON        = errors.New("bad json")
	ErrUnknownType    = errors.New("unknown type")
	ErrInvalidPayload = errors.New("invalid payload")
)

type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound is one decoded, validated client message.
type Inbound interface{ isInbound() }

// Targeted messages name the session they act on.
type Targeted interface {
	Inbound
	Session() string
}

type CreateSession struct{}

type Join struct {
	SessionID  string `json:"sessionId"`
	PlayerName string `json:"playerName"`
}

type SetBracket struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

type Vote struct {
	SessionID string `json:"sessionId"`
	Choice    *int   `json:"choice"`
}

type StartGame struct {
	SessionID string `json:"sessionId"`
}

func (CreateSession) isInbound() {}
func (Join) isInbound()          {}
func (SetBracket) isInbound()    {}
func (Vote) isInbound()          {}
func (StartGame) isInbound()     {}

func (m Join) Session() string       { return m.SessionID }
func (m SetBracket) Session() string { return m.SessionID }
func (m Vote) Session() string       { return m.SessionID }
func (m StartGame) Session() string  { return m.SessionID }

// Decode parses and validates one client frame.
func Decode(raw []byte) (Inbound, error) {
	var cm ClientMessage
	if err := json.Unmarshal(raw, &cm); err != nil {
		return nil, ErrBadJSON
	}

	switch cm.Type {
	case TypeCreateSession:
		return CreateSession{}, nil

	case TypeJoin:
		var m Join
		if err := decodeData(cm.Data, &m); err != nil {
			return nil, err
		}
		m.PlayerName = strings.TrimSpace(m.PlayerName)
		if m.PlayerName == "" || utf8.RuneCountInString(m.PlayerName) > MaxPlayerNameLen {
			return nil, fmt.Errorf("%w: playerName must be 1-%d characters", ErrInvalidPayload, MaxPlayerNameLen)
		}
		return targeted(m)

	case TypeSetBracket:
		var m SetBracket
		if err := decodeData(cm.Data, &m); err != nil {
			return nil, err
		}
		m.Code = strings.TrimSpace(m.Code)
		if m.Code == "" {
			return nil, fmt.Errorf("%w: code is required", ErrInvalidPayload)
		}
		return targeted(m)

	case TypeVote:
		var m Vote
		if err := decodeData(cm.Data, &m); err != nil {
			return nil, err
		}
		if m.Choice == nil || (*m.Choice != 0 && *m.Choice != 1) {
			return nil, fmt.Errorf("%w: choice must be 0 or 1", ErrInvalidPayload)
		}
		return targeted(m)

	case TypeStartGame:
		var m StartGame
		if err := decodeData(cm.Data, &m); err != nil {
			return nil, err
		}
		return targeted(m)

	default:
		return nil, ErrUnknownType
	}
}

func decodeData(data json.RawMessage, into any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", ErrInvalidPayload)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func targeted(m Targeted) (Inbound, error) {
	if strings.TrimSpace(m.Session()) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrInvalidPayload)
	}
	return m, nil
}
