package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/devtools"
	"github.com/vango-dev/vnav/pkg/router"
)

func resolveCmd(a *app) *cobra.Command {
	var (
		name     string
		params   map[string]string
		appendTo bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [location]",
		Short: "Resolve a location without navigating",
		Long: `Resolve a path or named route against the route table and print the
href, the matched records and the route that would be rendered.

Redirects and aliases are followed.

Examples:
  vnav resolve /users/42?tab=posts
  vnav resolve --name=user --param id=42
  vnav resolve /old --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var loc router.Location
			switch {
			case name != "":
				loc = router.Named(name, params)
			case len(args) == 1:
				loc = router.ParseLocation(args[0])
			default:
				return errors.New(errors.CodeInvalidArg).
					WithDetail("resolve needs a location or --name").
					WithExample("vnav resolve /users/42")
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			return runResolve(cmd, a, loc, appendTo, asJSON)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Resolve the named route")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Route params for --name (key=value)")
	cmd.Flags().BoolVar(&appendTo, "append", false, "Resolve relative paths by appending")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, a *app, loc router.Location, appendTo, asJSON bool) error {
	r, err := a.newAbstractRouter()
	if err != nil {
		return errors.FromError(err, errors.CodeRoutesInvalid)
	}

	res, err := r.Resolve(loc, nil, appendTo)
	if err != nil {
		var matchErr *router.MatchError
		if stderrors.As(err, &matchErr) {
			return errors.New(errors.CodeNoMatch).
				WithDetail(matchErr.Error()).
				WithSuggestion("Run 'vnav routes' to list the registered routes")
		}
		return errors.FromError(err, errors.CodeNavigation)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(devtools.ResolveView{Href: res.Href, Route: devtools.NewRouteView(res.Route)})
	}

	route := res.Route
	fmt.Fprintf(out, "href:     %s\n", res.Href)
	fmt.Fprintf(out, "fullPath: %s\n", route.FullPath)
	if route.Name != "" {
		fmt.Fprintf(out, "name:     %s\n", route.Name)
	}
	if route.RedirectedFrom != "" {
		fmt.Fprintf(out, "from:     %s\n", route.RedirectedFrom)
	}
	for _, k := range sortedKeys(route.Params) {
		fmt.Fprintf(out, "param:    %s=%s\n", k, route.Params[k])
	}
	for _, k := range sortedKeys(route.Query) {
		fmt.Fprintf(out, "query:    %s=%s\n", k, route.Query[k])
	}
	if len(route.Matched) == 0 {
		warn(cmd, "no record matched %s", route.FullPath)
		return nil
	}
	for i, rec := range route.Matched {
		fmt.Fprintf(out, "%*s└ %s\n", 2*i, "", rec.Path)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
