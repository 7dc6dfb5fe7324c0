package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newLoginCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check in: expire stale quests, generate today's quests and maybe a special one",
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
			res, err := a.svc.Login(ctx, u.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconTitle, "Welcome back, "+res.User.Name))
			fmt.Fprintln(out, ui.LabelValue("Title", ui.PlayerTitle(string(res.Title))))
			if res.TitleChanged {
				fmt.Fprintln(out, ui.Warn.Render(ui.IconInfo+" Your title has changed."))
			}
			for _, q := range res.Expired {
				fmt.Fprintf(out, "%s %s\n", ui.Muted.Render("Expired:"), q.Text)
			}
			if len(res.Daily) > 0 {
				fmt.Fprintln(out, ui.H2.Render("New daily quests"))
				for _, q := range res.Daily {
					fmt.Fprintln(out, questLine(q))
				}
			}
			if res.Optional != nil {
				fmt.Fprintln(out, ui.Gold.Render(ui.IconSpecial+" A special quest appeared!"))
				fmt.Fprintln(out, questLine(*res.Optional))
			}
			return nil
		},
	}
}
