package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newWatchCmd(opts *options) *cobra.Command {
	var everyone bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live events from the redis channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			if a.redis == nil {
				return errors.New("watch needs redis.addr (or LEVELUP_REDIS_ADDR) to point at a reachable server")
			}
			u, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Muted.Render("watching "+a.cfg.Redis.Channel+", ctrl+c to stop"))
			return a.redis.Listen(ctx, func(ev engine.Event) {
				if !everyone && ev.UserID != u.ID {
					return
				}
				fmt.Fprintf(out, "%s %s %s\n", ui.Muted.Render(ev.CreatedAt.Local().Format("15:04:05")), ui.H2.Render(ev.Title), ev.Message)
			})
		},
	}
	cmd.Flags().BoolVar(&everyone, "all-users", false, "Show events for every user")
	return cmd
}
