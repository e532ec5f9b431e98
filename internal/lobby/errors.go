package lobby

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/engine"
	"github.com/DoyleJ11/bracket-battle/internal/store"
	"github.com/DoyleJ11/bracket-battle/pkg/types"
)

const msgInternal = "Something went wrong, please try again"

// silent rejections are expected under duplicate delivery and UI races.
var silent = []error{
	engine.ErrNoBracket,
	engine.ErrTournamentComplete,
	engine.ErrAlreadyVoted,
	engine.ErrUnknownPlayer,
	engine.ErrInvalidChoice,
	engine.ErrBracketAlreadySet,
}

// userMessage maps a rejection to the text shown to the requester. ok is
// false when the rejection is dropped without telling anyone.
func userMessage(err error) (msg string, ok bool) {
	for _, s := range silent {
		if errors.Is(err, s) {
			return "", false
		}
	}
	switch {
	case errors.Is(err, engine.ErrSessionFull):
		return "Session is full", true
	case errors.Is(err, engine.ErrAlreadyStarted):
		return "Game has already started", true
	case errors.Is(err, engine.ErrAlreadyJoined):
		return "You have already joined this session", true
	case errors.Is(err, engine.ErrBracketRequired):
		return "Set a bracket before starting the game", true
	case errors.Is(err, engine.ErrNotOwner):
		return "Only the session owner can do that", true
	case errors.Is(err, store.ErrNotFound):
		return "Invalid bracket code", true
	default:
		return msgInternal, true
	}
}

func (l *Lobby) reject(c Client, err error) {
	msg, ok := userMessage(err)
	switch {
	case !ok:
		l.log.Debug("ignored", zap.String("conn_id", c.ID()), zap.Error(err))
		return
	case msg == msgInternal:
		l.log.Error("request failed", zap.String("conn_id", c.ID()), zap.Error(err))
	default:
		l.log.Info("rejected", zap.String("conn_id", c.ID()), zap.Error(err))
	}
	c.Send(types.Error(msg))
}
