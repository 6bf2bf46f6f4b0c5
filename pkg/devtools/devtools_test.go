package devtools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/vnav/pkg/location"
	"github.com/vango-dev/vnav/pkg/middleware"
	"github.com/vango-dev/vnav/pkg/router"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func routes() []router.RouteConfig {
	return []router.RouteConfig{
		{Path: "/", Name: "home"},
		{Path: "/a"},
		{Path: "/b"},
		{Path: "/users/:id", Name: "user", Meta: map[string]any{"auth": true}},
		{Path: "/private", BeforeEnter: func(context.Context, *router.Route, *router.Route) router.Outcome {
			return router.Deny()
		}},
		{Path: "/old", Redirect: "/a"},
	}
}

func newTestServer(t *testing.T, opts ...router.Option) (*router.Router, http.Handler) {
	t.Helper()
	opts = append([]router.Option{router.WithRoutes(routes()...), router.WithLogger(discardLogger())}, opts...)
	r, err := router.New(opts...)
	require.NoError(t, err)
	r.OnError(func(error) {})
	return r, New(r, WithLogger(discardLogger())).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRoutes(t *testing.T) {
	_, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	records := decode[[]RecordView](t, rec)
	byPath := make(map[string]RecordView)
	for _, rv := range records {
		byPath[rv.Path] = rv
	}
	require.Contains(t, byPath, "/users/:id")
	assert.Equal(t, "user", byPath["/users/:id"].Name)
	assert.Equal(t, true, byPath["/users/:id"].Meta["auth"])
	assert.True(t, byPath["/private"].Guarded)
	assert.Equal(t, "/a", byPath["/old"].Redirect)
}

func TestCurrent(t *testing.T) {
	r, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/", decode[RouteView](t, rec).Path)

	_, err := r.Push(context.Background(), router.To("/users/7?tab=posts"))
	require.NoError(t, err)

	cur := decode[RouteView](t, do(t, h, http.MethodGet, "/current", ""))
	assert.Equal(t, "user", cur.Name)
	assert.Equal(t, "7", cur.Params["id"])
	assert.Equal(t, "posts", cur.Query["tab"])
	assert.Equal(t, []string{"/users/:id"}, cur.Matched)
}

func TestResolve(t *testing.T) {
	r, h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/resolve?to=/users/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[ResolveView](t, rec)
	assert.Equal(t, "/users/3", res.Href)
	assert.Equal(t, "user", res.Route.Name)

	res = decode[ResolveView](t, do(t, h, http.MethodGet, "/resolve?name=user&id=5", ""))
	assert.Equal(t, "/users/5", res.Route.Path)

	res = decode[ResolveView](t, do(t, h, http.MethodGet, "/resolve?to=/old", ""))
	assert.Equal(t, "/a", res.Route.Path)
	assert.Equal(t, "/old", res.Route.RedirectedFrom)

	rec = do(t, h, http.MethodGet, "/resolve?name=missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[ErrorView](t, rec).Error)

	assert.Equal(t, "/", r.CurrentRoute().Path, "resolve does not navigate")
}

func TestNavigate(t *testing.T) {
	r, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/navigate", `{"to":"/users/1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/1", decode[RouteView](t, rec).Path)
	assert.Equal(t, "/users/1", r.CurrentRoute().Path)

	rec = do(t, h, http.MethodPost, "/navigate", `{"to":"/users/1"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicated", decode[ErrorView](t, rec).Failure)

	rec = do(t, h, http.MethodPost, "/navigate", `{"to":"/private"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "aborted", decode[ErrorView](t, rec).Failure)

	rec = do(t, h, http.MethodPost, "/navigate", `{"name":"user","params":{"id":"2"},"replace":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/2", r.CurrentRoute().Path)

	rec = do(t, h, http.MethodPost, "/navigate", `{"name":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/navigate", `{"to":"/users//3/"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/users/3", r.CurrentRoute().Path, "targets are canonicalized")

	for _, to := range []string{"https://evil.example/a", "//evil.example/a", "a", `/a\\b`, "/../a"} {
		rec = do(t, h, http.MethodPost, "/navigate", `{"to":"`+to+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "to=%s", to)
	}
	assert.Equal(t, "/users/3", r.CurrentRoute().Path)

	rec = do(t, h, http.MethodPost, "/navigate", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/navigate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestNavigateRequestLocation(t *testing.T) {
	loc := NavigateRequest{To: "/a", Hash: "#x", Query: map[string]string{"q": "1"}}.Location()
	assert.Equal(t, "/a", loc.Path)
	assert.Equal(t, "#x", loc.Hash)
	assert.Equal(t, "1", loc.Query["q"])
}

func TestGo(t *testing.T) {
	r, h := newTestServer(t)
	ctx := context.Background()

	_, err := r.Push(ctx, router.To("/a"))
	require.NoError(t, err)
	_, err = r.Push(ctx, router.To("/b"))
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/go?n=-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/a", decode[RouteView](t, rec).Path)

	rec = do(t, h, http.MethodPost, "/go?n=back", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := router.New(
		router.WithRoutes(routes()...),
		router.WithLogger(discardLogger()),
		router.WithObserver(middleware.Prometheus(middleware.WithRegistry(reg))),
	)
	require.NoError(t, err)
	h := New(r, WithGatherer(reg), WithLogger(discardLogger())).Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/navigate", `{"to":"/a"}`).Code)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vnav_router_navigations_total{outcome="committed"} 1`)
}

func TestOptionalEndpointsDisabled(t *testing.T) {
	_, h := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/ws", "").Code)
}

func TestWebSocket(t *testing.T) {
	routers := make(chan *router.Router, 1)
	factory := func(backend router.Backend) (*router.Router, error) {
		r, err := router.New(
			router.WithRoutes(routes()...),
			router.WithMode(router.ModeHistory),
			router.WithBackend(backend),
			router.WithLogger(discardLogger()),
		)
		if err == nil {
			routers <- r
		}
		return r, err
	}

	root, err := router.New(router.WithRoutes(routes()...), router.WithLogger(discardLogger()))
	require.NoError(t, err)
	srv := httptest.NewServer(New(root, WithRouterFactory(factory), WithLogger(discardLogger())).Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?location=/users/1"
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	var r *router.Router
	select {
	case r = <-routers:
	case <-time.After(5 * time.Second):
		t.Fatal("router not created")
	}

	require.Eventually(t, func() bool {
		return r.CurrentRoute().Path == "/users/1"
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, client.WriteJSON(location.Frame{Type: location.FramePop, URL: "/b"}))
	require.Eventually(t, func() bool {
		return r.CurrentRoute().Path == "/b"
	}, 5*time.Second, 10*time.Millisecond)

	_, err = r.Push(context.Background(), router.To("/a"))
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f location.Frame
	require.NoError(t, client.ReadJSON(&f))
	assert.Equal(t, location.FramePush, f.Type)
	assert.Equal(t, "/a", f.URL)
}
