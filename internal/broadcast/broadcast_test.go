package broadcast_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/kindecs/ecs"
	"github.com/plus3/kindecs/engine"
	"github.com/plus3/kindecs/internal/broadcast"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (*Position) Kind() ecs.Kind { return "pos" }

type Unencodable struct {
	Ch chan int
}

func (*Unencodable) Kind() ecs.Kind { return "chan" }

func TestTakeSnapshot(t *testing.T) {
	storage := ecs.NewStorage()
	a := storage.CreateEntity(&Position{X: 1, Y: 2})
	b := storage.CreateEntity(&Unencodable{Ch: make(chan int)})
	gone := storage.CreateEntity(&Position{})
	storage.DestroyEntity(gone)

	snap := broadcast.TakeSnapshot(7, storage)
	assert.Equal(t, uint64(7), snap.Tick)
	require.Len(t, snap.Entities, 2)

	assert.Equal(t, a, snap.Entities[0].Id)
	require.Len(t, snap.Entities[0].Components, 1)
	assert.Equal(t, ecs.Kind("pos"), snap.Entities[0].Components[0].Kind)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(snap.Entities[0].Components[0].Data))

	assert.Equal(t, b, snap.Entities[1].Id)
	assert.Equal(t, "null", string(snap.Entities[1].Components[0].Data))
}

func TestSnapshotEncode(t *testing.T) {
	storage := ecs.NewStorage()
	id := storage.CreateEntity(&Position{X: 3})

	data, err := broadcast.TakeSnapshot(1, storage).Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":"`+id.String()+`"`)

	var decoded broadcast.Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded.Entities[0].Id)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHubBroadcastsEngineTicks(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	storage := ecs.NewStorage()
	id := storage.CreateEntity(&Position{})
	scheduler := ecs.NewScheduler(storage)
	scheduler.AddSystem(ecs.NewSystemFunc("move", ecs.NewQuery("pos"), func(delta float64, matched [][]ecs.Component) {
		for _, components := range matched {
			for _, p := range ecs.ComponentsOf[*Position](components, "pos") {
				p.X += delta
			}
		}
	}))

	var eng *engine.Engine[*ecs.Storage]
	eng, err := engine.ForScheduler(scheduler, func(s *ecs.Storage) {
		hub.Sink(eng)(s)
	}, engine.WithInterval[*ecs.Storage](10*time.Millisecond))
	require.NoError(t, err)

	eng.Tick()
	eng.Tick()

	for want := 1; want <= 2; want++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var snap broadcast.Snapshot
		require.NoError(t, json.Unmarshal(data, &snap))
		assert.Equal(t, uint64(want), snap.Tick)
		require.Len(t, snap.Entities, 1)
		assert.Equal(t, id, snap.Entities[0].Id)

		var p Position
		require.NoError(t, json.Unmarshal(snap.Entities[0].Components[0].Data, &p))
		assert.Equal(t, float64(10*want), p.X)
	}
}

func TestHubForgetsDisconnectedClients(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := broadcast.NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestHubOrigins(t *testing.T) {
	dialWithOrigin := func(t *testing.T, srv *httptest.Server, origin string) (*websocket.Conn, *http.Response, error) {
		t.Helper()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")
		return websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{origin}})
	}

	t.Run("same origin by default", func(t *testing.T) {
		srv := httptest.NewServer(broadcast.NewHub(zerolog.Nop()))
		defer srv.Close()

		_, resp, err := dialWithOrigin(t, srv, "http://elsewhere.example")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		conn, _, err := dialWithOrigin(t, srv, srv.URL)
		require.NoError(t, err)
		_ = conn.Close()
	})

	t.Run("allow list", func(t *testing.T) {
		hub := broadcast.NewHub(zerolog.Nop(), broadcast.WithAllowedOrigins("http://viewer.example"))
		srv := httptest.NewServer(hub)
		defer srv.Close()

		conn, _, err := dialWithOrigin(t, srv, "http://viewer.example")
		require.NoError(t, err)
		_ = conn.Close()

		_, resp, err := dialWithOrigin(t, srv, "http://elsewhere.example")
		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wildcard", func(t *testing.T) {
		srv := httptest.NewServer(broadcast.NewHub(zerolog.Nop(), broadcast.WithAllowedOrigins("*")))
		defer srv.Close()

		conn, _, err := dialWithOrigin(t, srv, "http://elsewhere.example")
		require.NoError(t, err)
		_ = conn.Close()
	})
}
