package root

import (
	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/tui"
)

func newBoardCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := openApp(ctx, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			u, err := a.currentUser(ctx)
			if err != nil {
				return err
			}
			return tui.RunBoard(ctx, a.svc, u.ID, cmd.OutOrStdout())
		},
	}
}
