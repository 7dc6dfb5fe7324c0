package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newAuditCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check total XP against the XP event log",
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
			rec, err := a.svc.Reconcile(ctx, u.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			state := ui.Good.Render("consistent")
			if !rec.Consistent {
				state = ui.Bad.Render("MISMATCH")
			}
			fmt.Fprintf(out, "%s total_xp=%d events=%d %s\n", ui.Heading(ui.IconScroll, "XP ledger"), rec.TotalXP, rec.EventSum, state)

			events, err := a.svc.XPHistory(ctx, u.ID, limit)
			if err != nil {
				return err
			}
			for _, e := range events {
				quest := ""
				if e.QuestID != nil {
					quest = ui.Muted.Render(shortID(*e.QuestID))
				}
				fmt.Fprintf(out, "- %s %s %s %s\n", ui.Muted.Render(e.Timestamp.Local().Format("Jan 2 15:04")), ui.SignedXP(e.DeltaXP), e.Reason, quest)
			}
			if !rec.Consistent {
				return fmt.Errorf("xp total %d does not match event sum %d", rec.TotalXP, rec.EventSum)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Recent events to show")
	return cmd
}
