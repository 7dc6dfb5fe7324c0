package root

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

// newResolveCmd builds "complete" or "fail"; both resolve a pending quest exactly once.
func newResolveCmd(opts *options, verb string) *cobra.Command {
	short := "Complete a quest and collect its XP"
	if verb == "fail" {
		short = "Fail a quest and lose its XP"
	}
	return &cobra.Command{
		Use:   verb + " <quest_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
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
			id, err := a.findQuest(ctx, u.ID, args[0])
			if err != nil {
				return err
			}

			var res *engine.ResolveResult
			if verb == "fail" {
				res, err = a.svc.FailQuest(ctx, u.ID, id)
			} else {
				res, err = a.svc.CompleteQuest(ctx, u.ID, id)
			}
			if err != nil {
				return err
			}
			printResolution(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func printResolution(out io.Writer, res *engine.ResolveResult) {
	o := res.Outcome
	head := ui.Good.Render(ui.IconDone + " Quest completed")
	if res.Quest.Status == engine.StatusFailed {
		head = ui.Bad.Render(ui.IconFail + " Quest failed")
	}
	fmt.Fprintf(out, "%s %s %s\n", head, res.Quest.Text, ui.SignedXP(o.XPGained))
	if o.StatDelta != 0 {
		fmt.Fprintln(out, ui.LabelValue(string(o.StatAffected), fmt.Sprintf("%+d → %d", o.StatDelta, o.StatValue)))
	}
	fmt.Fprintln(out, ui.LabelValue("Level", fmt.Sprintf("%d (XP %d)", res.Level.Level, res.Level.TotalXP)))
	if o.LeveledUp {
		fmt.Fprintf(out, "%s %s level %d → %d, +%d points to allocate\n", ui.IconLevelUp, ui.BadgeLevelUp, o.LevelBefore, o.LevelAfter, o.PointsGranted)
	}
	if o.TitleChanged {
		fmt.Fprintln(out, ui.LabelValue("New title", ui.PlayerTitle(string(res.Title))))
	}
}
