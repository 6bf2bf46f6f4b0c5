package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vnav/pkg/router"
)

// dialSocket starts a server wrapping every connection in a Socket and
// returns the client end and the server Socket.
func dialSocket(t *testing.T, initial string) (*websocket.Conn, *Socket) {
	t.Helper()
	return dial(t, initial, func(sock *Socket, req *http.Request) error {
		return sock.Serve(req.Context())
	})
}

func dialSocketWith(t *testing.T, serve func(*Socket, *http.Request) error) (*websocket.Conn, *Socket) {
	t.Helper()
	return dial(t, "/", serve)
}

func dial(t *testing.T, initial string, serve func(*Socket, *http.Request) error) (*websocket.Conn, *Socket) {
	t.Helper()

	sockets := make(chan *Socket, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		sock := NewSocket(conn, req.URL.Query().Get("location"), WithLogger(discardLogger()))
		sockets <- sock
		serve(sock, req)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?location=" + initial
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case sock := <-sockets:
		return client, sock
	case <-time.After(5 * time.Second):
		t.Fatal("server socket not created")
		return nil, nil
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestSocketDrivesRouter(t *testing.T) {
	client, sock := dialSocket(t, "/a")
	assert.Equal(t, "/a", sock.CurrentLocation())

	r, err := router.New(
		router.WithRoutes(routes...),
		router.WithMode(router.ModeHistory),
		router.WithBackend(sock),
		router.WithLogger(discardLogger()),
	)
	require.NoError(t, err)
	require.NoError(t, r.Mount(context.Background(), syncHost{}))
	assert.Equal(t, "/a", r.CurrentRoute().Path)

	_, err = r.Push(context.Background(), router.To("/b"))
	require.NoError(t, err)
	assert.Equal(t, Frame{Type: FramePush, URL: "/b"}, readFrame(t, client))

	_, err = r.Replace(context.Background(), router.To("/foo"))
	require.NoError(t, err)
	assert.Equal(t, Frame{Type: FrameReplace, URL: "/foo"}, readFrame(t, client))

	r.Back()
	assert.Equal(t, Frame{Type: FrameGo, N: -1}, readFrame(t, client))

	require.NoError(t, client.WriteJSON(Frame{Type: FramePop, URL: "/a"}))
	assert.Eventually(t, func() bool {
		return r.CurrentRoute().Path == "/a"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSocketHello(t *testing.T) {
	client, sock := dialSocket(t, "")
	assert.Equal(t, "/", sock.CurrentLocation())
	assert.True(t, sock.SupportsPushState())

	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("{not json")))
	noPush := false
	require.NoError(t, client.WriteJSON(Frame{Type: FrameHello, URL: "/x?y=1", PushState: &noPush}))

	assert.Eventually(t, func() bool {
		return sock.CurrentLocation() == "/x?y=1" && !sock.SupportsPushState()
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSocketPopNotifiesListeners(t *testing.T) {
	client, sock := dialSocket(t, "/")

	got := make(chan string, 1)
	unlisten := sock.Listen(func(url string) { got <- url })
	defer unlisten()

	require.NoError(t, client.WriteJSON(Frame{Type: FramePop, URL: "/b"}))
	select {
	case url := <-got:
		assert.Equal(t, "/b", url)
	case <-time.After(5 * time.Second):
		t.Fatal("listener not called")
	}
	assert.Equal(t, "/b", sock.CurrentLocation())
}

func TestSocketDropsForeignLocations(t *testing.T) {
	client, sock := dialSocket(t, "/")

	got := make(chan string, 4)
	unlisten := sock.Listen(func(url string) { got <- url })
	defer unlisten()

	require.NoError(t, client.WriteJSON(Frame{Type: FramePop, URL: "https://evil.example/x"}))
	require.NoError(t, client.WriteJSON(Frame{Type: FrameHello, URL: "//evil.example"}))
	require.NoError(t, client.WriteJSON(Frame{Type: FramePop, URL: "/a\\b"}))
	require.NoError(t, client.WriteJSON(Frame{Type: FramePop, URL: "/b"}))

	select {
	case url := <-got:
		assert.Equal(t, "/b", url, "only the local path reaches listeners")
	case <-time.After(5 * time.Second):
		t.Fatal("listener not called")
	}
	assert.Equal(t, "/b", sock.CurrentLocation())
	assert.Empty(t, got)
}

func TestSocketWriteAfterClose(t *testing.T) {
	_, sock := dialSocket(t, "/")
	require.NoError(t, sock.Close())
	require.NoError(t, sock.Close())
	assert.ErrorIs(t, sock.Push("/a"), ErrClosed)
	assert.Equal(t, "/a", sock.CurrentLocation())
}

func TestSocketServeEndsOnNormalClose(t *testing.T) {
	client, sock := dialSocket(t, "/")

	require.NoError(t, client.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool {
		return sock.Push("/after") == ErrClosed
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSocketServeStopsOnContext(t *testing.T) {
	_, sock := dialSocketWith(t, func(sock *Socket, req *http.Request) error {
		ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
		defer cancel()
		return sock.Serve(ctx)
	})

	assert.Eventually(t, func() bool {
		return sock.Push("/after") == ErrClosed
	}, 5*time.Second, 10*time.Millisecond)
}
