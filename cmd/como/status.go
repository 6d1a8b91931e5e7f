package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/como-monitor/como/internal/client"
)

func statusCmd() *cobra.Command {
	var (
		addr    string
		sources bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a server's admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewHTTPClient(addr)
			out := cmd.OutOrStdout()

			h, err := c.GetHealth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "status:  %s\nsources: %d\npeers:   %d\n", h.Status, h.Sources, h.Peers)

			if !sources {
				return nil
			}
			list, err := c.GetSources(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTYPE\tKIND\tVALUE\tTIMESTAMP")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.TypeName, s.Kind, s.Value, s.Timestamp)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8080", "admin server address")
	cmd.Flags().BoolVarP(&sources, "sources", "s", false, "list every source")
	return cmd
}
