package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type hubFixture struct {
	hub    *Hub
	srv    *httptest.Server
	cancel context.CancelFunc
	done   chan struct{}
}

func startHub(t *testing.T) *hubFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wishlistID := uint64(7)
		if r.URL.Query().Get("wishlist") == "8" {
			wishlistID = 8
		}
		hub.Attach(conn, wishlistID)
	}))

	f := &hubFixture{hub: hub, srv: srv, cancel: cancel, done: done}
	t.Cleanup(f.stop)
	return f
}

func (f *hubFixture) stop() {
	f.srv.Close()
	f.cancel()
	<-f.done
}

func (f *hubFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (f *hubFixture) waitSubscribers(t *testing.T, wishlistID uint64, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		got, err := f.hub.Subscribers(context.Background(), wishlistID)
		return err == nil && got == n
	}, 2*time.Second, 10*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	event, err := Decode(data)
	require.NoError(t, err)
	return event
}

func TestHub_DeliversOnlyToWatchers(t *testing.T) {
	f := startHub(t)
	ctx := context.Background()

	watcher := f.dial(t, "wishlist=7")
	f.waitSubscribers(t, 7, 1)

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, f.hub.Publish(ctx, Event{Type: ItemCreated, WishlistID: 8, ItemID: 1, At: at}))
	require.NoError(t, f.hub.Publish(ctx, Event{Type: ItemReserved, WishlistID: 7, ItemID: 3, At: at}))

	got := readEvent(t, watcher)
	assert.Equal(t, ItemReserved, got.Type)
	assert.Equal(t, uint64(7), got.WishlistID)
	assert.Equal(t, uint64(3), got.ItemID)
	assert.True(t, got.At.Equal(at))
}

func TestHub_ClientLeaves(t *testing.T) {
	f := startHub(t)

	conn := f.dial(t, "wishlist=8")
	f.waitSubscribers(t, 8, 1)

	require.NoError(t, conn.Close())
	f.waitSubscribers(t, 8, 0)
}

func TestHub_WishlistDeletedEndsFeed(t *testing.T) {
	f := startHub(t)

	conn := f.dial(t, "wishlist=7")
	f.waitSubscribers(t, 7, 1)

	require.NoError(t, f.hub.Publish(context.Background(), Event{Type: WishlistDeleted, WishlistID: 7, At: time.Now()}))

	got := readEvent(t, conn)
	assert.Equal(t, WishlistDeleted, got.Type)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	f.waitSubscribers(t, 7, 0)
}

func TestHub_StopClosesClients(t *testing.T) {
	f := startHub(t)

	conn := f.dial(t, "wishlist=7")
	f.waitSubscribers(t, 7, 1)

	f.cancel()
	<-f.done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	err = f.hub.Publish(context.Background(), Event{Type: ItemCreated, WishlistID: 7})
	assert.ErrorIs(t, err, ErrHubStopped)
}

func TestEventEncoding(t *testing.T) {
	e := Event{Type: ItemUnreserved, WishlistID: 2, ItemID: 9, At: time.Unix(1700000000, 0).UTC()}
	data, err := e.Encode()
	require.NoError(t, err)

	assert.NotContains(t, string(data), "reserved_by")
	assert.JSONEq(t, `{"type":"item.unreserved","wishlist_id":2,"item_id":9,"at":"2023-11-14T22:13:20Z"}`, string(data))
}

type countingGauge struct{ n atomic.Int64 }

func (g *countingGauge) Inc() { g.n.Add(1) }
func (g *countingGauge) Dec() { g.n.Add(-1) }

func TestHub_TracksSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	gauge := &countingGauge{}
	hub.TrackWith(gauge)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	f := &hubFixture{hub: hub, cancel: cancel, done: done}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Attach(conn, 7)
	}))
	t.Cleanup(f.stop)

	f.dial(t, "")
	f.dial(t, "")
	f.waitSubscribers(t, 7, 2)
	assert.Equal(t, int64(2), gauge.n.Load())

	f.cancel()
	<-f.done
	assert.Equal(t, int64(0), gauge.n.Load())
}
