package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/devtools"
	"github.com/vango-dev/vnav/pkg/router"
)

func routesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List and validate the route table",
		Long: `Load the route table, check it for conflicts and list every record.

Records are printed in the order the matcher prefers them.

Examples:
  vnav routes
  vnav routes --routes=app/routes.toml
  vnav routes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			return runRoutes(cmd, a, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print records as JSON")

	return cmd
}

func runRoutes(cmd *cobra.Command, a *app, asJSON bool) error {
	routes, err := a.routes()
	if err != nil {
		return err
	}
	if err := validateRoutes(routes); err != nil {
		return err
	}

	r, err := a.newRouter(routes, router.WithMode(router.ModeAbstract))
	if err != nil {
		return errors.FromError(err, errors.CodeRoutesInvalid)
	}
	records := sortedRecords(r.GetRoutes())

	out := cmd.OutOrStdout()
	if asJSON {
		views := make([]devtools.RecordView, len(records))
		for i, rec := range records {
			views[i] = devtools.NewRecordView(rec)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tVIEWS\tREDIRECT\tALIAS")
	for _, rec := range records {
		v := devtools.NewRecordView(rec)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.Path, dash(v.Name), dash(strings.Join(v.Slots, ",")), dash(v.Redirect), dash(strings.Join(v.Alias, ",")))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	success(cmd, "%d records", len(records))
	return nil
}

// validateRoutes turns validator findings into one structured error.
func validateRoutes(routes []router.RouteConfig) error {
	err := router.NewValidator(routes).Validate()
	if err == nil {
		return nil
	}
	var multi *router.MultiValidationError
	if !stderrors.As(err, &multi) {
		return errors.FromError(err, errors.CodeRoutesInvalid)
	}

	var b strings.Builder
	for _, ve := range multi.Errors {
		b.WriteString(router.FormatValidationError(ve))
	}
	return errors.New(errors.CodeRoutesInvalid).
		WithDetail(strings.TrimRight(b.String(), "\n")).
		WithSuggestion("Rename or remove one of the conflicting routes")
}

// sortedRecords orders records by path specificity. Aliases keep their
// position after the record they point at.
func sortedRecords(records []*router.Record) []*router.Record {
	paths := make([]string, 0, len(records))
	byPath := make(map[string][]*router.Record, len(records))
	for _, rec := range records {
		if _, ok := byPath[rec.Path]; !ok {
			paths = append(paths, rec.Path)
		}
		byPath[rec.Path] = append(byPath[rec.Path], rec)
	}
	router.SortBySpecificity(paths)

	out := make([]*router.Record, 0, len(records))
	for _, p := range paths {
		out = append(out, byPath[p]...)
	}
	return out
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
