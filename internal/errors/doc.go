// Package errors provides structured, actionable error messages for the
// vnav CLI and config loader.
//
// # Error Categories
//
//   - config: the vnav config file or environment
//   - routes: route table files
//   - navigation: locations that fail to resolve or navigations that fail
//   - backend: location backends and the route table watcher
//   - cli: command arguments and the devtools server
//
// # Error Codes
//
// Each error has a unique code (e.g., "V004") that maps to a short message,
// a longer explanation and a documentation URL.
//
// # Usage
//
//	err := errors.New(errors.CodeRoutesParse).
//	    WithLocation("routes.yaml", 7, 0).
//	    WithSuggestion("Indent children under their parent").
//	    Wrap(yamlErr)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR V004: Route table could not be parsed
//	//
//	//   routes.yaml:7
//	//
//	//        5 │   - path: /users/:id
//	//        6 │     children:
//	//   →    7 │   - path: posts
//	//        8 │
//	//
//	//   Hint: Indent children under their parent
//	//
//	//   Learn more: https://vnav.dev/docs/errors/V004
package errors
