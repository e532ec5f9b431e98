package lobby

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/bracket"
	"github.com/DoyleJ11/bracket-battle/internal/engine"
	"github.com/DoyleJ11/bracket-battle/internal/store"
	"github.com/DoyleJ11/bracket-battle/pkg/types"
)

const resolveTimeout = 5 * time.Second

// Client is one connection's view of the session.
type Client interface {
	ID() string
	// Send must not block; it reports false when the client's buffer is full.
	Send(msg types.ServerMessage) bool
	// Kick disconnects a client that fell behind.
	Kick()
}

// Resolver looks up bracket definitions by code.
type Resolver interface {
	Resolve(ctx context.Context, code string) (store.Definition, error)
}

type Msg interface{ isLobbyMsg() }

// Host subscribes the creating connection and replies session_created.
type Host struct {
	Client Client
}

func (Host) isLobbyMsg() {}

type FromClient struct {
	Client Client
	Msg    types.Targeted
}

func (FromClient) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	NumClients int
	Phase      engine.Phase
	Session    engine.Session
}

type Options struct {
	MaxPlayers int
	Rand       engine.Rand
	Store      Resolver
	Logger     *zap.Logger
}

// Lobby owns one Session. Every message is handled to completion on the
// lobby goroutine before the next one is read.
type Lobby struct {
	inbox      chan Msg
	session    *engine.Session
	rng        engine.Rand
	store      Resolver
	log        *zap.Logger
	clients    map[string]Client
	lastActive atomic.Int64
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewLobby(parent context.Context, id string, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		session: engine.NewSession(id, opts.MaxPlayers),
		rng:     rng,
		store:   opts.Store,
		log:     log.With(zap.String("session_id", id)),
		clients: make(map[string]Client),
		ctx:     ctx,
		cancel:  cancel,
	}
	l.touch()

	go l.loop()
	return l
}

func (l *Lobby) ID() string { return l.session.ID }

// Inbox exposes the raw inbox for tests.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Send delivers m unless the lobby has shut down.
func (l *Lobby) Send(m Msg) bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.inbox <- m:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Close stops the lobby without going through the inbox.
func (l *Lobby) Close() { l.cancel() }

// LastActive is the time the last client message was handled.
func (l *Lobby) LastActive() time.Time {
	return time.Unix(0, l.lastActive.Load())
}

func (l *Lobby) touch() { l.lastActive.Store(time.Now().UnixNano()) }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Host:
				l.clients[msg.Client.ID()] = msg.Client
				msg.Client.Send(types.Message(types.TypeSessionCreated, types.SessionCreated{SessionID: l.session.ID}))
				l.log.Info("session created", zap.String("conn_id", msg.Client.ID()))

			case Leave:
				delete(l.clients, msg.ClientID)

			case FromClient:
				l.touch()
				l.handle(msg.Client, msg.Msg)

			case GetState:
				msg.Reply <- View{
					NumClients: len(l.clients),
					Phase:      engine.DerivePhase(l.session),
					Session:    l.session.Clone(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) shutdown() {
	clear(l.clients)
	l.cancel()
}

func (l *Lobby) handle(c Client, m types.Targeted) {
	switch msg := m.(type) {
	case types.Join:
		l.handleJoin(c, msg)
	case types.SetBracket:
		l.handleSetBracket(c, msg)
	case types.Vote:
		l.handleVote(c, msg)
	case types.StartGame:
		l.handleStartGame(c)
	}
}

func (l *Lobby) handleJoin(c Client, msg types.Join) {
	events, err := engine.Apply(l.session, engine.Command{Type: engine.CmdJoin, PlayerID: c.ID(), Name: msg.PlayerName}, l.rng)
	if err != nil {
		l.reject(c, err)
		return
	}

	if prev := events[0].PreviousID; prev != "" && prev != c.ID() {
		delete(l.clients, prev)
	}
	l.clients[c.ID()] = c
	l.log.Info("player joined",
		zap.String("conn_id", c.ID()),
		zap.String("player", msg.PlayerName),
		zap.Bool("reconnect", events[0].PreviousID != ""),
	)

	c.Send(types.Message(types.TypeVoteStatus, types.VoteStatus{HasVoted: engine.HasVoted(l.session, c.ID())}))
	l.broadcast(types.Message(types.TypePlayerJoined, l.playerJoined()))

	if len(l.session.Players) == 1 {
		c.Send(types.Message(types.TypeEnterBracketCode, nil))
	} else if l.session.Bracket != nil {
		c.Send(types.Message(types.TypeBracketSet, l.bracketSet()))
	}
}

func (l *Lobby) handleSetBracket(c Client, msg types.SetBracket) {
	if err := engine.CanSetBracket(l.session, c.ID()); err != nil {
		l.reject(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(l.ctx, resolveTimeout)
	def, err := l.store.Resolve(ctx, msg.Code)
	cancel()
	if err != nil {
		l.reject(c, err)
		return
	}

	if _, err := engine.Apply(l.session, engine.Command{Type: engine.CmdSetBracket, PlayerID: c.ID(), Bracket: &def}, l.rng); err != nil {
		l.reject(c, err)
		return
	}
	l.log.Info("bracket set", zap.String("code", def.Code))
	l.broadcast(types.Message(types.TypeBracketSet, l.bracketSet()))
}

func (l *Lobby) handleVote(c Client, msg types.Vote) {
	events, err := engine.Apply(l.session, engine.Command{Type: engine.CmdVote, PlayerID: c.ID(), Choice: engine.Choice(*msg.Choice)}, l.rng)
	if err != nil {
		l.reject(c, err)
		return
	}

	for _, evt := range events {
		switch evt.Type {
		case engine.EvtVoteCast:
			l.broadcast(types.Message(types.TypeVoteCast, types.VoteCast{
				CurrentVotes: evt.Votes,
				Players:      l.players(),
			}))
		case engine.EvtMatchupAdvanced:
			l.broadcast(types.Message(types.TypeMatchupAdvanced, types.MatchupAdvanced{
				Matchups:            l.matchups(),
				CurrentMatchupIndex: l.session.CurrentMatchupIndex,
			}))
			l.log.Debug("matchup decided",
				zap.Int("matchup", evt.Matchup),
				zap.String("winner", l.session.Matchups[evt.Matchup].Winner.Name),
			)
		case engine.EvtGameCompleted:
			l.log.Info("tournament complete", zap.String("champion", l.session.Matchups[evt.Matchup].Winner.Name))
		}
	}
}

func (l *Lobby) handleStartGame(c Client) {
	_, err := engine.Apply(l.session, engine.Command{Type: engine.CmdStartGame, PlayerID: c.ID()}, l.rng)
	if errors.Is(err, engine.ErrAlreadyStarted) {
		l.log.Debug("ignored", zap.String("conn_id", c.ID()), zap.Error(err))
		return
	}
	if err != nil {
		l.reject(c, err)
		return
	}
	l.log.Info("game started")
	l.broadcast(types.Message(types.TypeGameStarted, nil))
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	for id, c := range l.clients {
		if !c.Send(msg) {
			// Client is slow/full - drop them.
			l.log.Warn("dropping slow client", zap.String("conn_id", id))
			delete(l.clients, id)
			c.Kick()
		}
	}
}

// players and matchups copy session slices so queued messages never share
// memory the lobby keeps mutating.
func (l *Lobby) players() []engine.Player { return slices.Clone(l.session.Players) }

func (l *Lobby) matchups() []bracket.Matchup { return slices.Clone(l.session.Matchups) }

func (l *Lobby) playerJoined() types.PlayerJoined {
	return types.PlayerJoined{Players: l.players()}
}

func (l *Lobby) bracketSet() types.BracketSet {
	return types.BracketSet{
		Bracket:             l.session.Bracket,
		Matchups:            l.matchups(),
		CurrentMatchupIndex: l.session.CurrentMatchupIndex,
	}
}
