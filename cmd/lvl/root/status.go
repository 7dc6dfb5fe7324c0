package root

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/storage"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show level, stats, title and pending quests",
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
			d, err := a.svc.Dashboard(ctx, u.ID)
			if err != nil {
				return err
			}
			printDashboard(cmd.OutOrStdout(), d)
			return nil
		},
	}
}

func printDashboard(out io.Writer, d *engine.Dashboard) {
	fmt.Fprintln(out, ui.Heading(ui.IconScroll, d.User.Name))
	fmt.Fprintln(out, ui.LabelValue("Title", ui.PlayerTitle(string(d.Title))))
	fmt.Fprintln(out, ui.LabelValue("Level", d.Level.Level))
	fmt.Fprintln(out, ui.LabelValue("Total XP", fmt.Sprintf("%d %s %d to next",
		d.Level.TotalXP, ui.Bar(d.XPIntoLevel, d.XPIntoLevel+d.XPForNextLevel, 20), d.XPForNextLevel)))
	fmt.Fprintln(out, ui.LabelValue("Points", d.Level.AvailablePoints))
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.H2.Render("Stats"))
	for _, attr := range engine.Attributes {
		v := engine.StatValue(&d.Stat, attr)
		fmt.Fprintf(out, "- %-13s %4d %s\n", attr, v, ui.StatBar(v, engine.StatMin, engine.StatMax, 20))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, ui.H2.Render("Daily quests"))
	printQuests(out, d.Daily)
	fmt.Fprintln(out, ui.H2.Render("Special quests"))
	printQuests(out, d.Optional)
}

func printQuests(out io.Writer, qs []storage.Quest) {
	if len(qs) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("(none)"))
		return
	}
	for _, q := range qs {
		fmt.Fprintln(out, questLine(q))
	}
}

func questLine(q storage.Quest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %s %s", ui.QuestIcon(q.IsOptional), ui.Muted.Render(shortID(q.ID)), q.Text, ui.Gold.Render(ui.Stars(q.Difficulty)), ui.Good.Render(fmt.Sprintf("+%dxp", q.RewardXP)))
	if q.PrimaryStat != nil {
		b.WriteString(" " + ui.Muted.Render(*q.PrimaryStat))
	}
	if q.Status != engine.StatusPending {
		b.WriteString(" " + ui.StatusText(q.Status))
	}
	if q.IsOptional && q.ExpirationTime != nil && q.Status == engine.StatusPending {
		b.WriteString(" " + ui.Muted.Render("until "+q.ExpirationTime.Local().Format("Jan 2 15:04")))
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
