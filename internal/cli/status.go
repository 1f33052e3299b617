package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/services/server"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [project variant]",
		Short: "Show channel connection, session and queue status",
		Long: `Show what a running server is doing: each channel's connection state,
the user currently being served and the users waiting in the queue.

With a project id and variant, show only that channel.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <project> <variant>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cmd.OutOrStdout(), cfg.Output)

			if len(args) == 2 {
				var st server.ChannelStatus
				path := "/api/v1/channels/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
				if err := client.Get(cmd.Context(), path, &st); err != nil {
					return err
				}
				out.Print(st)
				return nil
			}

			var list response.ChannelList
			if err := client.Get(cmd.Context(), "/api/v1/channels", &list); err != nil {
				return err
			}
			out.Print(list)
			return nil
		},
	}
}
