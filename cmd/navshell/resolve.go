package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/history"
	"github.com/vango-dev/navshell/pkg/nav"
	"github.com/vango-dev/navshell/pkg/router"
)

func resolveCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <location>...",
		Short: "Show which route each location resolves to",
		Long: `Resolve one or more locations against the route table.

Each location is navigated to in a fresh in-memory history, exactly as
a browser navigation would be. Locations that are rejected are reported
with their error code.

Examples:
  navshell resolve /vcra
  navshell resolve "/user/42?tab=posts" /nowhere`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			table, err := cfg.Table()
			if err != nil {
				return err
			}
			results := make([]resolution, len(args))
			for i, loc := range args {
				results[i] = resolveLocation(table, loc)
			}
			writeResolutions(cmd.OutOrStdout(), results)
			return nil
		},
	}

	return cmd
}

type resolution struct {
	Input  string
	Active *nav.ActiveRoute
	Err    error
}

func resolveLocation(table *router.Table, location string) resolution {
	res := resolution{Input: location}

	r := nav.New()
	if err := r.Attach(table, history.NewMemory("/")); err != nil {
		res.Err = err
		return res
	}
	defer r.Detach()

	if err := r.Navigate(location); err != nil {
		res.Err = err
		return res
	}
	res.Active = r.Active()
	return res
}

func writeResolutions(w io.Writer, results []resolution) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"Location", "Route", "View", "Params", "Result"})
	t.SetAutoWrapText(false)

	for _, res := range results {
		if res.Err != nil {
			t.Append([]string{res.Input, "", "", "", errors.Classify(res.Err).Code})
			continue
		}
		ar := res.Active
		route, view, result := "", "", "matched"
		if ar.NotFound() {
			result = "not found"
		} else {
			route = ar.Route.Path
			if ar.Name() != "" {
				route = ar.Name() + " " + route
			}
			if v := ar.View(); v != nil {
				view = fmt.Sprint(v)
			}
		}
		t.Append([]string{ar.Location, route, view, formatParams(ar), result})
	}
	t.Render()
}

func formatParams(ar *nav.ActiveRoute) string {
	var parts []string
	if ar.Route != nil {
		for _, name := range ar.Route.ParamNames() {
			parts = append(parts, name+"="+ar.Params.Get(name))
		}
	}
	if q := ar.Query.Encode(); q != "" {
		parts = append(parts, "?"+q)
	}
	return strings.Join(parts, " ")
}
