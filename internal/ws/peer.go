package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/bracket-battle/internal/lobby"
	"github.com/DoyleJ11/bracket-battle/pkg/types"
)

type peer struct {
	ws     *websocket.Conn
	client *client
	reg    Registry
	log    *zap.Logger
	// Lobbies this connection subscribed to, told to forget it on close.
	// Only touched by the reader goroutine.
	joined map[*lobby.Lobby]struct{}
}

func (p *peer) readLoop() error {
	ctx := p.client.ctx
	for {
		_, data, err := p.ws.Read(ctx)
		if err != nil {
			return err
		}

		msg, err := types.Decode(data)
		if err != nil {
			p.log.Debug("bad frame", zap.Error(err))
			p.client.Send(types.Error(msgInvalidFrame))
			continue
		}
		p.dispatch(ctx, msg)
	}
}

func (p *peer) dispatch(ctx context.Context, msg types.Inbound) {
	switch m := msg.(type) {
	case types.CreateSession:
		lb, err := p.reg.Create(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				p.log.Error("create session failed", zap.Error(err))
				p.client.Send(types.Error("Could not create a session"))
			}
			return
		}
		if lb.Send(lobby.Host{Client: p.client}) {
			p.joined[lb] = struct{}{}
		}

	case types.Targeted:
		lb, ok := p.reg.Get(ctx, m.Session())
		if !ok {
			p.log.Debug("unknown session", zap.String("session_id", m.Session()))
			return
		}
		if lb.Send(lobby.FromClient{Client: p.client, Msg: m}) {
			p.joined[lb] = struct{}{}
		}
	}
}

func (p *peer) leaveAll() {
	for lb := range p.joined {
		lb.Send(lobby.Leave{ClientID: p.client.id})
	}
	clear(p.joined)
}

func (p *peer) writeLoop() {
	ctx := p.client.ctx
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.client.out:
			payload, err := json.Marshal(msg)
			if err != nil {
				p.log.Error("marshal outbound", zap.String("type", msg.Type), zap.Error(err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = p.ws.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				p.log.Debug("write failed", zap.Error(err))
				p.client.cancel()
				return
			}
		}
	}
}

func (p *peer) pingLoop() {
	ctx := p.client.ctx
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := p.ws.Ping(pctx)
			cancel()
			if err != nil {
				p.log.Debug("ping failed", zap.Error(err))
				p.client.cancel()
				return
			}
		}
	}
}
