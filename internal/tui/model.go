package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/githubb-dot/gamified-app/internal/engine"
	"github.com/githubb-dot/gamified-app/internal/storage"
	"github.com/githubb-dot/gamified-app/internal/ui"
)

type boardModel struct {
	ctx    context.Context
	svc    *engine.Service
	userID string

	width  int
	height int

	dash     *engine.Dashboard
	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	dash *engine.Dashboard
	err  error
}

type resolvedMsg struct {
	action engine.Resolution
	res    *engine.ResolveResult
	err    error
}

func newBoardModel(ctx context.Context, svc *engine.Service, userID string) boardModel {
	return boardModel{
		ctx:     ctx,
		svc:     svc,
		userID:  userID,
		loading: true,
		lastLog: "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		d, err := m.svc.Dashboard(m.ctx, m.userID)
		return loadedMsg{dash: d, err: err}
	}
}

func (m boardModel) resolveCmd(id string, action engine.Resolution) tea.Cmd {
	return func() tea.Msg {
		var (
			res *engine.ResolveResult
			err error
		)
		if action == engine.ResolveFail {
			res, err = m.svc.FailQuest(m.ctx, m.userID, id)
		} else {
			res, err = m.svc.CompleteQuest(m.ctx, m.userID, id)
		}
		return resolvedMsg{action: action, res: res, err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.lastLog = "Load failed: " + msg.err.Error()
			return m, nil
		}
		m.err = nil
		m.dash = msg.dash
		if n := len(m.quests()); m.selected >= n {
			m.selected = max(n-1, 0)
		}
		m.lastLog = fmt.Sprintf("Refreshed at %s.", time.Now().Format("15:04:05"))
		return m, nil
	case resolvedMsg:
		if msg.err != nil {
			m.lastLog = resolveFailure(msg.err)
			return m, m.loadCmd()
		}
		m.lastLog = resolveSummary(msg.res)
		return m, m.loadCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			m.lastLog = "Refreshing…"
			return m, m.loadCmd()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "j":
			if m.selected < len(m.quests())-1 {
				m.selected++
			}
			return m, nil
		case "c", " ", "f":
			q := m.current()
			if q == nil {
				m.lastLog = "No pending quest selected."
				return m, nil
			}
			action := engine.ResolveComplete
			if msg.String() == "f" {
				action = engine.ResolveFail
			}
			m.lastLog = fmt.Sprintf("Resolving %s…", shortID(q.ID))
			return m, m.resolveCmd(q.ID, action)
		}
	}
	return m, nil
}

// quests lists daily quests then optional ones, the order the cursor walks.
func (m boardModel) quests() []storage.Quest {
	if m.dash == nil {
		return nil
	}
	out := make([]storage.Quest, 0, len(m.dash.Daily)+len(m.dash.Optional))
	out = append(out, m.dash.Daily...)
	return append(out, m.dash.Optional...)
}

func (m boardModel) current() *storage.Quest {
	qs := m.quests()
	if m.selected < 0 || m.selected >= len(qs) {
		return nil
	}
	return &qs[m.selected]
}

func (m boardModel) View() string {
	if m.err != nil && m.dash == nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	sidebar := m.renderSidebar()
	main := m.renderMain()

	leftW := 34
	if m.width > 0 && m.width/2 < leftW {
		leftW = max(m.width/2, 24)
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	rows := max(len(linesLeft), len(linesRight))

	var body strings.Builder
	for i := 0; i < rows; i++ {
		l, r := "", ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return m.renderHeader() + "\n\n" + body.String() + "\n" + m.lastLog
}

func (m boardModel) renderHeader() string {
	if m.dash == nil {
		return "Level Up | loading…"
	}
	d := m.dash
	bar := ui.Bar(d.XPIntoLevel, d.XPIntoLevel+d.XPForNextLevel, 30)
	return fmt.Sprintf("%s | %s | Level %d | XP %d %s | Points %d",
		ui.Title.Render(d.User.Name), ui.PlayerTitle(string(d.Title)), d.Level.Level, d.Level.TotalXP, bar, d.Level.AvailablePoints)
}

func (m boardModel) renderSidebar() string {
	if m.dash == nil {
		return "Stats\n\nLoading…"
	}
	lines := []string{ui.H2.Render("Stats")}
	for _, a := range engine.Attributes {
		v := engine.StatValue(&m.dash.Stat, a)
		lines = append(lines, fmt.Sprintf("%-13s %4d %s", a, v, ui.StatBar(v, engine.StatMin, engine.StatMax, 10)))
	}
	lines = append(lines,
		"",
		ui.H2.Render("Keys"),
		"- ↑/↓ or j/k: move",
		"- c/space: complete",
		"- f: fail",
		"- r: refresh",
		"- q: quit",
	)
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading && m.dash == nil {
		return "Loading…"
	}
	var out []string
	idx := 0
	section := func(name string, qs []storage.Quest) {
		out = append(out, ui.H2.Render(name))
		if len(qs) == 0 {
			out = append(out, ui.Muted.Render("(none)"))
		}
		for _, q := range qs {
			cursor := "  "
			if idx == m.selected {
				cursor = "> "
			}
			line := fmt.Sprintf("%s%s %s %s +%dxp", cursor, ui.QuestIcon(q.IsOptional), q.Text, ui.Stars(q.Difficulty), q.RewardXP)
			if q.IsOptional && q.ExpirationTime != nil {
				line += ui.Muted.Render(" until " + q.ExpirationTime.Local().Format("15:04"))
			}
			out = append(out, line)
			idx++
		}
		out = append(out, "")
	}
	section("Daily Quests", m.dash.Daily)
	section("Special Quests", m.dash.Optional)
	return strings.Join(out, "\n")
}

func resolveSummary(res *engine.ResolveResult) string {
	o := res.Outcome
	s := fmt.Sprintf("%s %s: %s, %s %+d", strings.ToUpper(res.Quest.Status[:1])+res.Quest.Status[1:], shortID(res.Quest.ID),
		ui.SignedXP(o.XPGained), o.StatAffected, o.StatDelta)
	if o.LeveledUp {
		s += fmt.Sprintf(" %s level %d → %d (+%d points)", ui.BadgeLevelUp, o.LevelBefore, o.LevelAfter, o.PointsGranted)
	}
	if o.TitleChanged {
		s += " | " + ui.PlayerTitle(string(res.Title))
	}
	return s
}

func resolveFailure(err error) string {
	switch {
	case errors.Is(err, engine.ErrQuestExpired):
		return "That special quest has expired."
	case errors.Is(err, engine.ErrAlreadyProcessed):
		return "Quest already processed."
	default:
		return "Resolve failed: " + err.Error()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
