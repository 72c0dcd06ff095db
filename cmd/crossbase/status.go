package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/adrianmcphee/crossbase"
	"github.com/adrianmcphee/crossbase/availability"
	"github.com/adrianmcphee/crossbase/capability"
	"github.com/adrianmcphee/crossbase/router"
)

func newStatusCmd(a *app) *cobra.Command {
	var showMetrics bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend availability and the backend serving each group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			// A fresh router resolves exactly as the default one would and
			// reports its bindings to reg.
			r := router.New(availability.Default(), router.DefaultRegistry,
				router.WithLogger(crossbase.Log()),
				router.WithMetrics(crossbase.NewPrometheusMetrics(reg)),
			)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "edition:    %s\n", edition)
			fmt.Fprintf(out, "full:       %s\n", availability.Default().Flag())
			if !r.Available() && a.hooks.linked && a.cfg.DisableFull {
				fmt.Fprintln(out, "            (disabled by configuration)")
			}
			fmt.Fprintln(out)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GROUP\tBACKEND\tERROR")
			for _, row := range bindAll(r) {
				fmt.Fprintf(w, "%s\t%s\t%s\n", row.group, row.backend, row.err)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if showMetrics {
				fmt.Fprintln(out)
				return writeMetrics(out, reg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the binding metrics in Prometheus text format")
	return cmd
}

type groupStatus struct {
	group   string
	backend router.Backend
	err     string
}

// bindAll resolves every known group so that unresolvable ones are reported
// alongside the bound ones.
func bindAll(r *router.Router) []groupStatus {
	errText := func(err error) string {
		if err == nil {
			return "-"
		}
		return err.Error()
	}

	var out []groupStatus
	_, b, err := router.Bind(r, capability.Memory, capability.DecodeMemory)
	out = append(out, groupStatus{capability.Memory.String(), b, errText(err)})
	_, b, err = router.Bind(r, capability.Helpers, capability.DecodeHelpers)
	out = append(out, groupStatus{capability.Helpers.String(), b, errText(err)})
	_, b, err = router.Bind(r, capability.Auth, capability.DecodeAuth)
	out = append(out, groupStatus{capability.Auth.String(), b, errText(err)})
	return out
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
