package devtools

import (
	"net/http"

	"github.com/vango-dev/vnav/pkg/location"
)

// handleWebSocket binds the connecting browser's address bar to a router
// built by the factory. The router lives as long as the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sock := location.NewSocket(conn, req.URL.Query().Get("location"), location.WithLogger(s.logger))
	defer sock.Close()

	r, err := s.factory(sock)
	if err != nil {
		s.logger.Error("router for websocket client not created", "error", err)
		return
	}

	host := &immediateHost{}
	ctx := req.Context()
	if err := r.Mount(ctx, host); err != nil {
		s.logger.Warn("initial navigation failed", "location", sock.CurrentLocation(), "error", err)
	}
	defer r.Unmount(host)

	s.logger.Debug("websocket client attached", "location", sock.CurrentLocation(), "mode", r.Mode())
	if err := sock.Serve(ctx); err != nil {
		s.logger.Debug("websocket client detached", "error", err)
	}
}
