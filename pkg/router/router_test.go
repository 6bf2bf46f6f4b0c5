package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModeSelection(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want Mode
	}{
		{"default without backend", nil, ModeAbstract},
		{"history without backend", []Option{WithMode(ModeHistory)}, ModeAbstract},
		{"default with backend", []Option{WithBackend(newFakeBackend("/"))}, ModeHash},
		{"history with backend", []Option{WithMode(ModeHistory), WithBackend(newFakeBackend("/"))}, ModeHistory},
		{"explicit abstract", []Option{WithMode(ModeAbstract), WithBackend(newFakeBackend("/"))}, ModeAbstract},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(append(tt.opts, WithLogger(discardLogger()))...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Mode())
		})
	}
}

func TestNewInvalidMode(t *testing.T) {
	_, err := New(WithMode("bogus"), WithBackend(newFakeBackend("/")), WithLogger(discardLogger()))
	var me *ModeError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, Mode("bogus"), me.Mode)
}

func TestNewInvalidRoutes(t *testing.T) {
	_, err := New(WithRoutes(RouteConfig{Path: "/a", Name: "x"}, RouteConfig{Path: "/b", Name: "x"}))
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestNewWithMatcher(t *testing.T) {
	m, err := NewMatcher([]RouteConfig{{Path: "/existing"}})
	require.NoError(t, err)

	r, err := New(WithMatcher(m), WithRoutes(RouteConfig{Path: "/added"}), WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.Same(t, m, r.Matcher())

	route, err := r.Match(To("/added"), nil, nil)
	require.NoError(t, err)
	assert.Len(t, route.Matched, 1)
}

type tagged struct {
	guards map[GuardName][]ComponentGuard
}

type tagInspector struct{}

func (tagInspector) RouteGuards(def any, name GuardName) []ComponentGuard {
	if t, ok := def.(*tagged); ok {
		return t.guards[name]
	}
	return nil
}

func TestNewWithInspector(t *testing.T) {
	var entered bool
	view := &tagged{guards: map[GuardName][]ComponentGuard{
		BeforeRouteEnter: {func(context.Context, Instance, *Route, *Route) Outcome {
			entered = true
			return Next()
		}},
	}}

	r, err := New(
		WithRoutes(RouteConfig{Path: "/t", Component: view}),
		WithInspector(tagInspector{}),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	_, err = r.Push(context.Background(), To("/t"))
	require.NoError(t, err)
	assert.True(t, entered)
}

type orderObserver struct {
	name string
	log  *[]string
}

func (o orderObserver) NavigationStart(ctx context.Context, _, _ *Route) context.Context {
	*o.log = append(*o.log, "start "+o.name)
	return ctx
}

func (o orderObserver) NavigationEnd(context.Context, *Route, *Route, error) {
	*o.log = append(*o.log, "end "+o.name)
}

func TestObserversNest(t *testing.T) {
	var log []string
	r, err := New(
		WithRoutes(RouteConfig{Path: "/a"}),
		WithObserver(orderObserver{name: "outer", log: &log}),
		WithObserver(orderObserver{name: "inner", log: &log}),
		WithLogger(discardLogger()),
	)
	require.NoError(t, err)

	_, err = r.Push(context.Background(), To("/a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"start outer", "start inner", "end inner", "end outer"}, log)
}

func TestPushFunc(t *testing.T) {
	r := newTestRouter(t, RouteConfig{Path: "/a"})
	ctx := context.Background()

	var completed *Route
	err := r.PushFunc(ctx, To("/a"), func(route *Route) { completed = route }, nil)
	require.NoError(t, err)
	require.NotNil(t, completed)
	assert.Equal(t, "/a", completed.Path)

	var aborted error
	err = r.ReplaceFunc(ctx, To("/a"), nil, func(err error) { aborted = err })
	require.NoError(t, err)
	assert.True(t, IsNavigationFailure(aborted, FailureDuplicated))
}

func TestGetMatchedComponents(t *testing.T) {
	parent := &Component{Name: "Parent"}
	child := &Component{Name: "Child"}
	side := &Component{Name: "Side"}

	r := newTestRouter(t, RouteConfig{
		Path:      "/p",
		Component: parent,
		Children: []RouteConfig{{
			Path:       "c",
			Components: map[string]any{"default": child, "side": side},
		}},
	})

	route, err := r.Match(To("/p/c"), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{parent, child, side}, r.GetMatchedComponents(route))
	assert.Empty(t, r.GetMatchedComponents(nil), "nothing is matched before the first navigation")
}

func TestAddRoutesDeprecated(t *testing.T) {
	var buf bytes.Buffer
	r, err := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, err)

	require.NoError(t, r.AddRoutes([]RouteConfig{{Path: "/x"}, {Path: "/y"}}))
	assert.Contains(t, buf.String(), "deprecated")
	assert.Len(t, r.GetRoutes(), 2)
}

func TestAddRouteUnderParent(t *testing.T) {
	r := newTestRouter(t, RouteConfig{Path: "/admin", Name: "admin"})

	require.NoError(t, r.AddRoute("admin", RouteConfig{Path: "users", Name: "admin-users"}))
	route, err := r.Push(context.Background(), Named("admin-users", nil))
	require.NoError(t, err)
	assert.Equal(t, "/admin/users", route.Path)

	err = r.AddRoute("nobody", RouteConfig{Path: "x"})
	assert.True(t, errors.Is(err, ErrUnknownRoute))
}

func TestSubscribeCurrentRoute(t *testing.T) {
	r := newTestRouter(t, RouteConfig{Path: "/a"}, RouteConfig{Path: "/b"})
	ctx := context.Background()

	var got []string
	unsubscribe := r.SubscribeCurrentRoute(func(route *Route) { got = append(got, route.Path) })

	_, err := r.Push(ctx, To("/a"))
	require.NoError(t, err)
	unsubscribe()
	_, err = r.Push(ctx, To("/b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"/a"}, got)
}

func TestRelativePush(t *testing.T) {
	r := newTestRouter(t, RouteConfig{Path: "/users/:id"}, RouteConfig{Path: "/users/:id/posts"})
	ctx := context.Background()

	_, err := r.Push(ctx, To("/users/1"))
	require.NoError(t, err)

	route, err := r.Push(ctx, Location{Path: "posts", Append: true})
	require.NoError(t, err)
	assert.Equal(t, "/users/1/posts", route.Path)

	route, err = r.Push(ctx, Location{Params: map[string]string{"id": "2"}})
	require.NoError(t, err)
	assert.Equal(t, "/users/2/posts", route.Path)

	route, err = r.Push(ctx, To("?tab=x"))
	require.NoError(t, err)
	assert.Equal(t, "/users/2/posts?tab=x", route.FullPath)
}
