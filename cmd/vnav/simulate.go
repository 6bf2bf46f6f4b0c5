package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/vnav/internal/errors"
	"github.com/vango-dev/vnav/pkg/middleware"
	"github.com/vango-dev/vnav/pkg/router"
)

// step is one navigation of a simulation.
type step struct {
	raw  string
	kind string // push, replace or go
	to   router.Location
	n    int
}

// parseStep reads "/path", "replace:/path", "back", "forward" or "go:N".
func parseStep(raw string) (step, error) {
	s := step{raw: raw}
	switch {
	case raw == "back":
		s.kind, s.n = "go", -1
	case raw == "forward":
		s.kind, s.n = "go", 1
	case strings.HasPrefix(raw, "go:"):
		n, err := strconv.Atoi(strings.TrimPrefix(raw, "go:"))
		if err != nil {
			return s, errors.New(errors.CodeInvalidArg).
				WithDetail("Bad step " + strconv.Quote(raw)).
				WithExample("vnav simulate / /users/1 go:-1").
				Wrap(err)
		}
		s.kind, s.n = "go", n
	case strings.HasPrefix(raw, "replace:"):
		s.kind, s.to = "replace", router.ParseLocation(strings.TrimPrefix(raw, "replace:"))
	case raw != "":
		s.kind, s.to = "push", router.ParseLocation(raw)
	default:
		return s, errors.New(errors.CodeInvalidArg).WithDetail("Empty step")
	}
	return s, nil
}

func simulateCmd(a *app) *cobra.Command {
	var (
		deny    []string
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <step>...",
		Short: "Run a sequence of navigations",
		Long: `Run navigations against an in-memory router and print how each one
settled.

Steps:
  /path           push a location
  replace:/path   replace the current entry
  back, forward   move one entry
  go:N            move N entries

Examples:
  vnav simulate / /users/1 /users/2 back
  vnav simulate /admin --deny=/admin
  vnav simulate /a /a replace:/b --metrics`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := make([]step, len(args))
			for i, raw := range args {
				s, err := parseStep(raw)
				if err != nil {
					return err
				}
				steps[i] = s
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			return runSimulate(cmd, a, steps, deny, metrics)
		},
	}

	cmd.Flags().StringSliceVar(&deny, "deny", nil, "Abort navigations to paths under these prefixes")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print navigation counts by outcome")

	return cmd
}

func runSimulate(cmd *cobra.Command, a *app, steps []step, deny []string, metrics bool) error {
	reg := prometheus.NewRegistry()
	r, err := a.newAbstractRouter(router.WithObserver(middleware.Prometheus(middleware.WithRegistry(reg))))
	if err != nil {
		return errors.FromError(err, errors.CodeRoutesInvalid)
	}
	// Failures are printed per step.
	r.OnError(func(err error) { a.logger.Debug("navigation error", "error", err) })
	if len(deny) > 0 {
		r.BeforeEach(denyPrefixes(deny))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tOUTCOME\tCURRENT\tDETAIL")
	for _, s := range steps {
		outcome, detail := runStep(ctx, r, s)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.raw, outcome, r.CurrentRoute().FullPath, dash(detail))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if metrics {
		return printOutcomes(cmd, reg)
	}
	return nil
}

func runStep(ctx context.Context, r *router.Router, s step) (outcome, detail string) {
	var err error
	switch s.kind {
	case "push":
		_, err = r.Push(ctx, s.to)
	case "replace":
		_, err = r.Replace(ctx, s.to)
	case "go":
		before := r.CurrentRoute()
		r.Go(s.n)
		if r.CurrentRoute() == before {
			return "unchanged", ""
		}
		return "moved", ""
	}

	outcome = middleware.Outcome(err)
	if err != nil {
		detail = err.Error()
	}
	return outcome, detail
}

// denyPrefixes aborts navigations whose path starts with any prefix.
func denyPrefixes(prefixes []string) router.Guard {
	return func(_ context.Context, to, _ *router.Route) router.Outcome {
		for _, p := range prefixes {
			if strings.HasPrefix(to.Path, p) {
				return router.Deny()
			}
		}
		return router.Next()
	}
}

// printOutcomes prints the navigations_total counter by outcome.
func printOutcomes(cmd *cobra.Command, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	for _, mf := range families {
		if mf.GetName() != "vnav_router_navigations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" {
					fmt.Fprintf(out, "%-12s %v\n", lp.GetValue(), m.GetCounter().GetValue())
				}
			}
		}
	}
	return nil
}
