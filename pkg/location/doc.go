// Package location provides router.Backend implementations: the stores a
// URL history keeps its location in.
//
// Memory is an in-process address bar for tests, server-side rendering and
// tools. Socket drives a browser's address bar over a WebSocket: the router
// sends push, replace and go frames, and the browser reports back navigation
// it made on its own (back/forward buttons, edited URLs) with pop frames.
//
//	conn, _ := upgrader.Upgrade(w, req, nil)
//	sock := location.NewSocket(conn, location.WithLogger(logger))
//	r, _ := router.New(router.WithMode(router.ModeHistory), router.WithBackend(sock))
//	go sock.Serve(ctx)
package location
