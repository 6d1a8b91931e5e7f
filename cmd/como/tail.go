package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/como-monitor/como/internal/client"
	"github.com/como-monitor/como/internal/protocol"
	"github.com/como-monitor/como/internal/source"
	"github.com/como-monitor/como/internal/ws"
)

func tailCmd() *cobra.Command {
	var (
		addr   string
		asJSON bool
		noList bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print source events as they arrive",
		Long: `Connect as an observer and print every Source and DeinitSource frame.
The current source list is requested first unless --no-list is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			conn, err := client.Dial(ctx, addr)
			if err != nil {
				return err
			}
			defer conn.Close()
			stopClose := context.AfterFunc(ctx, func() { conn.Close() })
			defer stopClose()

			if !noList {
				if err := conn.RequestList(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for {
				ev, err := conn.Next()
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				if err := printEvent(out, ev, asJSON); err != nil {
					return err
				}
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:4545", "server address")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per event")
	cmd.Flags().BoolVar(&noList, "no-list", false, "do not request the current source list")
	return cmd
}

func printEvent(w io.Writer, ev client.Event, asJSON bool) error {
	if asJSON {
		msg := ws.WSMessage{Type: ws.MsgSource, Payload: ws.NewSourcePayload(ev.Snapshot)}
		if ev.Type == protocol.MsgDeinitSource {
			msg.Type = ws.MsgDeinit
		}
		return json.NewEncoder(w).Encode(msg)
	}

	snap := ev.Snapshot
	op := "source"
	if ev.Type == protocol.MsgDeinitSource {
		op = "deinit"
	}
	_, err := fmt.Fprintf(w, "%-6s %s %s [%s] %s = %s\n",
		op,
		source.FormatTimestamp(snap.Timestamp),
		snap.Name,
		snap.TypeName,
		snap.Kind(),
		source.FormatValue(snap.Value),
	)
	return err
}
