// Package router implements client-side navigation for component apps:
// route matching, guarded transitions and history backends.
//
// The router provides:
//   - A path tree matching locations to nested route records
//   - A guard pipeline that approves, vetoes or redirects each navigation
//   - Lazy view loading before a navigation commits
//   - History controllers over a URL backend or an in-memory stack
//
// # Routes
//
// Routes are declared as a tree of RouteConfig values:
//
//	r, err := router.New(
//	    router.WithMode(router.ModeHistory),
//	    router.WithBackend(backend),
//	    router.WithRoutes(
//	        router.RouteConfig{Path: "/", Component: home},
//	        router.RouteConfig{
//	            Path:      "/users/:id:int",
//	            Name:      "user",
//	            Component: user,
//	            Children: []router.RouteConfig{
//	                {Path: "", Component: profile},
//	                {Path: "posts", Component: router.Lazy(loadPosts)},
//	            },
//	        },
//	        router.RouteConfig{Path: "/old", Redirect: "/"},
//	        router.RouteConfig{Path: "*", Component: notFound},
//	    ),
//	)
//
// Segments are static, ":name" (optionally typed, ":id:int" or ":id:uuid")
// or a trailing "*name" catch-all.
//
// # Navigation
//
// A navigation runs, in order:
//
//	beforeRouteLeave guards of deactivated views, deepest first
//	BeforeEach hooks
//	beforeRouteUpdate guards of reused views
//	BeforeEnter guards of activated records
//	lazy view loading
//	beforeRouteEnter guards of activated views
//	BeforeResolve hooks
//	commit, then AfterEach hooks
//
// Every guard returns an Outcome: Next advances, Deny and Fail abort,
// Redirect aborts and starts a new navigation. Guards may block. When a
// newer navigation starts while one is still running, the older one is
// cancelled at its next guard boundary.
//
// Push blocks until the navigation settles:
//
//	route, err := r.Push(ctx, router.To("/users/42"))
//	switch {
//	case router.IsNavigationFailure(err, router.FailureRedirected):
//	    // a guard sent us elsewhere
//	case err != nil:
//	    return err
//	}
package router
