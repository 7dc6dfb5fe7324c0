package root

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newAllocateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "allocate <attribute> <points>",
		Short: "Spend level-up points on an attribute",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("points must be an integer: %w", engine.ErrInvalidAmount)
			}

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
			res, err := a.svc.AllocatePoints(ctx, u.ID, args[0], points)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s is now %d\n", ui.Good.Render("Allocated"), res.Attribute, res.Value)
			fmt.Fprintln(out, ui.LabelValue("Points left", res.Level.AvailablePoints))
			fmt.Fprintln(out, ui.LabelValue("Title", ui.PlayerTitle(string(res.Title))))
			return nil
		},
	}
}
