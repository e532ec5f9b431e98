package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/lobby"
	"github.com/DoyleJ11/bracket-battle/pkg/types"
)

const (
	outboxSize   = 32
	readLimit    = 4096
	writeTimeout = 3 * time.Second
	pingInterval = 30 * time.Second
)

const msgInvalidFrame = "Invalid message"

// Registry is the slice of the hub the transport needs.
type Registry interface {
	Create(ctx context.Context) (*lobby.Lobby, error)
	Get(ctx context.Context, code string) (*lobby.Lobby, bool)
}

type Options struct {
	// OriginPatterns is passed to websocket.Accept. "*" allows any origin.
	OriginPatterns []string
	Logger         *zap.Logger
}

// client is one websocket connection. Lobbies write to out; the writer
// goroutine drains it.
type client struct {
	id     string
	out    chan types.ServerMessage
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *client) ID() string { return c.id }

func (c *client) Send(msg types.ServerMessage) bool {
	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

func (c *client) Kick() { c.cancel() }

func Handler(reg Registry, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	accept := &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, accept)
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		conn.SetReadLimit(readLimit)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		c := &client{
			id:     uuid.NewString(),
			out:    make(chan types.ServerMessage, outboxSize),
			ctx:    ctx,
			cancel: cancel,
		}
		clog := log.With(zap.String("conn_id", c.id))
		clog.Debug("connected")

		p := &peer{ws: conn, client: c, reg: reg, log: clog, joined: make(map[*lobby.Lobby]struct{})}
		defer p.leaveAll()

		go p.writeLoop()
		go p.pingLoop()

		err = p.readLoop()
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			clog.Debug("disconnected")
			conn.Close(websocket.StatusNormalClosure, "bye")
		default:
			clog.Debug("read ended", zap.Error(err))
			conn.CloseNow()
		}
	}
}
