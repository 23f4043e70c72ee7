package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/navshell/pkg/router"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Long: `List the configured routes in match order.

Routes are tried top to bottom and the first match wins.

Examples:
  navshell routes
  navshell routes --config navshell.toml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			table, err := cfg.Table()
			if err != nil {
				return err
			}
			if asJSON {
				return writeRoutesJSON(cmd.OutOrStdout(), table)
			}
			writeRoutesTable(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")

	return cmd
}

type routeRow struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	View   string   `json:"view,omitempty"`
	Params []string `json:"params,omitempty"`
}

func routeRows(table *router.Table) []routeRow {
	defs := table.Routes()
	rows := make([]routeRow, len(defs))
	for i, def := range defs {
		rows[i] = routeRow{Path: def.Path, Name: def.Name, Params: def.ParamNames()}
		if def.View != nil {
			rows[i].View = fmt.Sprint(def.View)
		}
	}
	return rows
}

func writeRoutesJSON(w io.Writer, table *router.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(routeRows(table))
}

func writeRoutesTable(w io.Writer, table *router.Table) {
	t := tablewriter.NewWriter(w)
	t.SetHeader([]string{"#", "Path", "Name", "View", "Params"})
	t.SetAutoWrapText(false)

	for i, row := range routeRows(table) {
		t.Append([]string{
			strconv.Itoa(i + 1),
			row.Path,
			row.Name,
			row.View,
			strings.Join(row.Params, ", "),
		})
	}
	t.Render()
}
