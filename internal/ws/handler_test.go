package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/bracket-battle/internal/hub"
	"github.com/DoyleJ11/bracket-battle/internal/lobby"
	"github.com/DoyleJ11/bracket-battle/internal/store"
	"github.com/DoyleJ11/bracket-battle/pkg/types"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newServer(t *testing.T) (*hub.Hub, string) {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := hub.NewHub(context.Background(), hub.Options{Store: store.NewMemory(), Logger: log})
	t.Cleanup(h.Shutdown)

	srv := httptest.NewServer(Handler(h, Options{OriginPatterns: []string{"*"}, Logger: log}))
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, typ string, data any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, c, map[string]any{"type": typ, "data": data}))
}

func read(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, c, &f))
	return f
}

func createSession(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	send(t, c, types.TypeCreateSession, struct{}{})
	f := read(t, c)
	require.Equal(t, types.TypeSessionCreated, f.Type)

	var created types.SessionCreated
	require.NoError(t, json.Unmarshal(f.Data, &created))
	require.NotEmpty(t, created.SessionID)
	return created.SessionID
}

func TestHandler_CreateAndJoin(t *testing.T) {
	_, url := newServer(t)
	host := dial(t, url)
	player := dial(t, url)

	id := createSession(t, host)
	send(t, player, types.TypeJoin, types.Join{SessionID: id, PlayerName: "Alpha"})

	var got []string
	for range 3 {
		got = append(got, read(t, player).Type)
	}
	assert.Equal(t, []string{types.TypeVoteStatus, types.TypePlayerJoined, types.TypeEnterBracketCode}, got)

	f := read(t, host)
	require.Equal(t, types.TypePlayerJoined, f.Type)
	var joined struct {
		Players []struct {
			Name string `json:"name"`
		} `json:"players"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &joined))
	require.Len(t, joined.Players, 1)
	assert.Equal(t, "Alpha", joined.Players[0].Name)
}

func TestHandler_InvalidFrameGetsPrivateError(t *testing.T) {
	_, url := newServer(t)
	c := dial(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("{nope")))

	f := read(t, c)
	assert.Equal(t, types.TypeError, f.Type)
	assert.JSONEq(t, `"Invalid message"`, string(f.Data))

	send(t, c, types.TypeVote, map[string]any{"sessionId": "AB12", "choice": 2})
	assert.Equal(t, types.TypeError, read(t, c).Type)
}

func TestHandler_UnknownSessionIsIgnored(t *testing.T) {
	_, url := newServer(t)
	c := dial(t, url)

	send(t, c, types.TypeJoin, types.Join{SessionID: "ZZZZ", PlayerName: "Alpha"})
	send(t, c, "bogus", struct{}{})

	// The join produced nothing, so the next frame answers the bogus one.
	assert.Equal(t, types.TypeError, read(t, c).Type)
}

func TestHandler_DisconnectLeavesSession(t *testing.T) {
	h, url := newServer(t)
	host := dial(t, url)
	id := createSession(t, host)

	lb, ok := h.Get(context.Background(), id)
	require.True(t, ok)

	numClients := func() int {
		reply := make(chan lobby.View, 1)
		lb.Inbox() <- lobby.GetState{Reply: reply}
		return (<-reply).NumClients
	}
	require.Equal(t, 1, numClients())

	require.NoError(t, host.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return numClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}
