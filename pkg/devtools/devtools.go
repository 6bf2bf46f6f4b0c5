// Package devtools serves an HTTP inspection and control surface for a
// router: the route table, the current route, location resolution,
// navigation, metrics, and a WebSocket endpoint that binds a browser's
// address bar to a router of its own.
//
//	srv := devtools.New(r,
//	    devtools.WithGatherer(reg),
//	    devtools.WithRouterFactory(newSessionRouter),
//	)
//	http.ListenAndServe(":7070", srv.Handler())
package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/vnav/pkg/routepath"
	"github.com/vango-dev/vnav/pkg/router"
)

// RouterFactory builds a router on top of backend. The /ws endpoint calls
// it once per connection.
type RouterFactory func(backend router.Backend) (*router.Router, error)

// Server is the devtools HTTP surface.
type Server struct {
	router   *router.Router
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	factory  RouterFactory
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer exposes metrics from g on /metrics. Without one /metrics is
// not served.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRouterFactory enables /ws.
func WithRouterFactory(f RouterFactory) Option {
	return func(s *Server) {
		s.factory = f
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default allows all
// origins, which only suits local development.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

// New returns a Server inspecting and driving r.
func New(r *router.Router, opts ...Option) *Server {
	s := &Server{
		router: r,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
//
//	GET  /routes              registered records
//	GET  /current             the current route
//	GET  /resolve?to=&name=   resolve without navigating
//	POST /navigate            push or replace (JSON NavigateRequest)
//	POST /go?n=               move through history
//	GET  /ws?location=        bind a browser address bar to a new router
//	GET  /metrics             Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/routes", s.handleRoutes)
	r.Get("/current", s.handleCurrent)
	r.Get("/resolve", s.handleResolve)
	r.Post("/navigate", s.handleNavigate)
	r.Post("/go", s.handleGo)
	if s.factory != nil {
		r.Get("/ws", s.handleWebSocket)
	}
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleRoutes(w http.ResponseWriter, _ *http.Request) {
	records := s.router.GetRoutes()
	out := make([]RecordView, len(records))
	for i, rec := range records {
		out[i] = NewRecordView(rec)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, NewRouteView(s.router.CurrentRoute()))
}

func (s *Server) handleResolve(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var loc router.Location
	if name := q.Get("name"); name != "" {
		loc = router.Named(name, nil)
		for k, vs := range q {
			if k != "name" && len(vs) > 0 {
				if loc.Params == nil {
					loc.Params = make(map[string]string)
				}
				loc.Params[k] = vs[0]
			}
		}
	} else {
		loc = router.To(q.Get("to"))
	}

	res, err := s.router.Resolve(loc, nil, q.Get("append") == "true")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ResolveView{Href: res.Href, Route: NewRouteView(res.Route)})
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	To      string            `json:"to,omitempty"`
	Name    string            `json:"name,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Hash    string            `json:"hash,omitempty"`
	Replace bool              `json:"replace,omitempty"`
}

// Location converts the request into a router.Location.
func (n NavigateRequest) Location() router.Location {
	return router.Location{
		Name:   n.Name,
		Path:   n.To,
		Params: n.Params,
		Query:  n.Query,
		Hash:   n.Hash,
	}
}

func (s *Server) handleNavigate(w http.ResponseWriter, req *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.To != "" {
		to, err := routepath.CanonicalizeAndValidateNavPath(body.To)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		body.To = to
	}

	navigate := s.router.Push
	if body.Replace {
		navigate = s.router.Replace
	}
	route, err := navigate(req.Context(), body.Location())
	if err != nil {
		s.writeNavigationError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, NewRouteView(route))
}

func (s *Server) handleGo(w http.ResponseWriter, req *http.Request) {
	n, err := strconv.Atoi(req.URL.Query().Get("n"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.router.Go(n)
	s.writeJSON(w, http.StatusOK, NewRouteView(s.router.CurrentRoute()))
}

// immediateHost runs post-commit work right away; there is no render loop
// on the server side of a socket.
type immediateHost struct{}

func (*immediateHost) NextTick(fn func()) { fn() }

func (s *Server) writeNavigationError(w http.ResponseWriter, err error) {
	var matchErr *router.MatchError
	switch {
	case router.IsNavigationFailure(err):
		ft, _ := router.FailureTypeOf(err)
		s.writeJSON(w, http.StatusConflict, ErrorView{Error: err.Error(), Failure: ft.String()})
	case errors.As(err, &matchErr):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		s.writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.writeError(w, http.StatusUnprocessableEntity, err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorView{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("devtools response not written", "error", err)
	}
}
