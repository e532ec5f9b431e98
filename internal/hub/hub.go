package hub

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/engine"
	"github.com/DoyleJ11/bracket-battle/internal/lobby"
)

const maxIDAttempts = 1000

var ErrIDSpaceExhausted = errors.New("no free session id")
var ErrHubClosed = errors.New("hub closed")

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Reply chan CreateResult
}

type CreateResult struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	MaxPlayers int
	// IdleTimeout > 0 evicts sessions with no client activity for that long.
	IdleTimeout time.Duration
	Store       lobby.Resolver
	Logger      *zap.Logger
	// NewID and NewRand are replaced in tests.
	NewID   func() (string, error)
	NewRand func() engine.Rand
}

// Hub is the session registry. It owns the id -> lobby map on its own
// goroutine.
type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	opts    Options
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = GenerateCode
	}
	if opts.NewRand == nil {
		opts.NewRand = func() engine.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = engine.DefaultMaxPlayers
	}

	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		opts:    opts,
		log:     opts.Logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Create registers a new empty session under a fresh id.
func (h *Hub) Create(ctx context.Context) (*lobby.Lobby, error) {
	reply := make(chan CreateResult, 1)
	if err := h.send(ctx, CreateLobby{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case res := <-reply:
		return res.Lobby, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.ctx.Done():
		return nil, ErrHubClosed
	}
}

// Get looks a session up by exact id.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, bool) {
	reply := make(chan *lobby.Lobby, 1)
	if err := h.send(ctx, GetLobby{Code: code, Reply: reply}); err != nil {
		return nil, false
	}
	select {
	case lb := <-reply:
		return lb, lb != nil
	case <-ctx.Done():
		return nil, false
	case <-h.ctx.Done():
		return nil, false
	}
}

func (h *Hub) Shutdown() {
	_ = h.send(context.Background(), ShutdownHub{})
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	if h.ctx.Err() != nil {
		return ErrHubClosed
	}
	select {
	case h.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

func (h *Hub) loop() {
	var sweep <-chan time.Time
	if h.opts.IdleTimeout > 0 {
		ticker := time.NewTicker(h.opts.IdleTimeout / 2)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case now := <-sweep:
			h.evictIdle(now)

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				lb, err := h.create()
				msg.Reply <- CreateResult{Lobby: lb, Err: err}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create() (*lobby.Lobby, error) {
	for range maxIDAttempts {
		id, err := h.opts.NewID()
		if err != nil {
			return nil, err
		}
		if _, taken := h.lobbies[id]; taken {
			h.log.Debug("collision on session id, regenerating", zap.String("session_id", id))
			continue
		}
		lb := lobby.NewLobby(h.ctx, id, lobby.Options{
			MaxPlayers: h.opts.MaxPlayers,
			Rand:       h.opts.NewRand(),
			Store:      h.opts.Store,
			Logger:     h.log,
		})
		h.lobbies[id] = lb
		return lb, nil
	}
	return nil, ErrIDSpaceExhausted
}

func (h *Hub) evictIdle(now time.Time) {
	cutoff := now.Add(-h.opts.IdleTimeout)
	for id, lb := range h.lobbies {
		if lb.LastActive().Before(cutoff) {
			h.log.Info("evicting idle session", zap.String("session_id", id))
			lb.Close()
			delete(h.lobbies, id)
		}
	}
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Close()
	}
	clear(h.lobbies)
	h.cancel()
}
