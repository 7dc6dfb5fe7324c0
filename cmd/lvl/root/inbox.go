package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newInboxCmd(opts *options) *cobra.Command {
	var (
		all      bool
		markRead bool
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show notifications",
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
			ns, err := a.svc.Notifications(ctx, u.ID, !all, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconInbox, "Inbox"))
			if len(ns) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("(nothing new)"))
			}
			for _, n := range ns {
				mark := "•"
				if n.IsRead {
					mark = " "
				}
				fmt.Fprintf(out, "%s %s %s %s\n", mark, ui.Muted.Render(n.CreatedAt.Local().Format("Jan 2 15:04")), ui.H2.Render(n.Title), n.Message)
			}
			if markRead {
				flipped, err := a.svc.MarkNotificationsRead(ctx, u.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("marked %d read", flipped)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include read notifications")
	cmd.Flags().BoolVarP(&markRead, "mark-read", "m", false, "Mark all notifications read")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Max notifications to show")
	return cmd
}
