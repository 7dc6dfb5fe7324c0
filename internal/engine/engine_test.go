package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/githubb-dot/gamified-app/internal/storage"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]EventKind, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Kind)
	}
	return out
}

type stubGenerator struct {
	sug QuestSuggestion
	err error
}

func (g stubGenerator) Suggest(context.Context, QuestRequest) (QuestSuggestion, error) {
	return g.sug, g.err
}

type testEnv struct {
	svc      *Service
	clock    *testClock
	notifier *recordingNotifier
}

func newTestService(t *testing.T, deps Deps) (*testEnv, func()) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	db, err := storage.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	clock := &testClock{now: testNow}
	notifier := &recordingNotifier{}
	deps.Clock = clock.Now
	if deps.Notifier == nil {
		deps.Notifier = notifier
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(1, 1))
	}

	env := &testEnv{svc: NewService(db, deps), clock: clock, notifier: notifier}
	cleanup := func() {
		_ = db.Close()
	}
	return env, cleanup
}

func newUser(t *testing.T, svc *Service, name string) *storage.User {
	t.Helper()
	u, err := svc.EnsureUser(context.Background(), name)
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	return u
}

func setProgress(t *testing.T, svc *Service, userID string, fn func(st *storage.Stat, l *storage.UserLevel)) {
	t.Helper()
	ctx := context.Background()
	st, err := svc.Repos().Stats.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	l, err := svc.Repos().Levels.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get level: %v", err)
	}
	fn(st, l)
	if err := svc.Repos().Stats.Update(ctx, st); err != nil {
		t.Fatalf("update stats: %v", err)
	}
	if err := svc.Repos().Levels.Update(ctx, l); err != nil {
		t.Fatalf("update level: %v", err)
	}
}

func addQuest(t *testing.T, svc *Service, q storage.Quest) *storage.Quest {
	t.Helper()
	if q.Difficulty == 0 {
		q.Difficulty = 3
	}
	if q.DueDate.IsZero() {
		q.DueDate = endOfDay(testNow)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = testNow
	}
	if err := svc.Repos().Quests.Insert(context.Background(), &q); err != nil {
		t.Fatalf("insert quest: %v", err)
	}
	return &q
}

// seedGoal stores an active goal without generating its first quest.
func seedGoal(t *testing.T, svc *Service, userID, description string) *storage.Goal {
	t.Helper()
	g := &storage.Goal{UserID: userID, Description: description, Category: ClassifyGoal(description), IsActive: true, CreatedAt: testNow}
	if err := svc.Repos().Goals.Insert(context.Background(), g); err != nil {
		t.Fatalf("insert goal: %v", err)
	}
	return g
}

type blockingGenerator struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *blockingGenerator) Suggest(ctx context.Context, req QuestRequest) (QuestSuggestion, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return QuestSuggestion{}, ctx.Err()
	}
	return FallbackSuggestion(req), nil
}

func loadState(t *testing.T, svc *Service, userID string) *progress {
	t.Helper()
	p, err := loadProgress(context.Background(), svc.Repos(), userID)
	if err != nil {
		t.Fatalf("loadProgress: %v", err)
	}
	return p
}

func strPtr(s string) *string { return &s }

func TestStatDeltaForXPFloors(t *testing.T) {
	cases := []struct {
		xp, want int
	}{
		{250, 2},
		{-250, -3},
		{99, 0},
		{-150, -2},
		{-100, -1},
		{-1, -1},
		{0, 0},
		{1000, 10},
	}
	for _, c := range cases {
		if got := StatDeltaForXP(c.xp); got != c.want {
			t.Fatalf("StatDeltaForXP(%d)=%d, want %d", c.xp, got, c.want)
		}
	}
}

func TestApplyStatSaturates(t *testing.T) {
	st := &storage.Stat{}
	deltas := []int{40, 40, 40, -500, 7, 300, -1, -98, -98, 2}
	for _, attr := range Attributes {
		for _, d := range deltas {
			v := ApplyStat(st, attr, d, testNow)
			if v < StatMin || v > StatMax {
				t.Fatalf("%s=%d after delta %d, outside [%d, %d]", attr, v, d, StatMin, StatMax)
			}
			if StatValue(st, attr) != v {
				t.Fatalf("StatValue(%s)=%d, want %d", attr, StatValue(st, attr), v)
			}
		}
	}
	if st.Focus != -96 {
		t.Fatalf("Focus=%d, want -96", st.Focus)
	}
	if !st.LastUpdated.Equal(testNow) {
		t.Fatalf("LastUpdated not set")
	}
}

func TestLevelBoundaries(t *testing.T) {
	if got := LevelForTotalXP(999); got != 1 {
		t.Fatalf("LevelForTotalXP(999)=%d, want 1", got)
	}
	if got := LevelForTotalXP(2999); got != 3 {
		t.Fatalf("LevelForTotalXP(2999)=%d, want 3", got)
	}
	if got := LevelForTotalXP(-5000); got != 1 {
		t.Fatalf("LevelForTotalXP(-5000)=%d, want 1", got)
	}

	up := ApplyXP(1, 999, 1)
	if up.Level != 2 || up.PointsGranted != 3 || !up.LeveledUp {
		t.Fatalf("ApplyXP(1, 999, 1)=%+v, want level 2 with 3 points", up)
	}

	jump := ApplyXP(1, 0, 2999)
	if jump.Level != 3 || jump.PointsGranted != 6 {
		t.Fatalf("ApplyXP(1, 0, 2999)=%+v, want level 3 with 6 points", jump)
	}

	l := &storage.UserLevel{Level: 3, TotalXP: 2500, AvailablePoints: 4}
	down := applyXPToLevel(l, -2000, testNow)
	if down.Level != 1 || down.LeveledUp || down.PointsGranted != 0 {
		t.Fatalf("level loss=%+v, want level 1 and no points", down)
	}
	if l.AvailablePoints != 4 {
		t.Fatalf("AvailablePoints=%d, want 4 (no reclamation)", l.AvailablePoints)
	}
}

func TestAllocateValidation(t *testing.T) {
	st := &storage.Stat{Strength: 10}
	l := &storage.UserLevel{Level: 2, AvailablePoints: 5}

	_, err := Allocate(st, l, "strength", 6, testNow)
	var ipe InsufficientPointsError
	if !errors.As(err, &ipe) || !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected InsufficientPointsError, got %v", err)
	}
	if ipe.Requested != 6 || ipe.Available != 5 {
		t.Fatalf("InsufficientPointsError=%+v", ipe)
	}
	if l.AvailablePoints != 5 || st.Strength != 10 {
		t.Fatalf("state changed on failure: points=%d strength=%d", l.AvailablePoints, st.Strength)
	}

	for _, n := range []int{-1, 0} {
		if _, err := Allocate(st, l, "strength", n, testNow); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Allocate(%d) err=%v, want ErrInvalidAmount", n, err)
		}
	}
	if _, err := Allocate(st, l, "luck", 1, testNow); !errors.Is(err, ErrInvalidAttribute) {
		t.Fatalf("Allocate(luck) err=%v, want ErrInvalidAttribute", err)
	}

	v, err := Allocate(st, l, " Strength ", 5, testNow)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if v != 15 || l.AvailablePoints != 0 {
		t.Fatalf("after allocate value=%d points=%d, want 15 and 0", v, l.AvailablePoints)
	}
}

func TestEvaluateTitle(t *testing.T) {
	hourAgo := testNow.Add(-time.Hour)
	twoDays := testNow.Add(-48 * time.Hour)
	eightDays := testNow.Add(-8 * 24 * time.Hour)

	cases := []struct {
		name      string
		in        TitleInput
		want      Title
		changed   bool
		sinceNil  bool
		sinceWant *time.Time
	}{
		{
			name: "good standing stays up",
			in:   TitleInput{Current: TitleLevelUp, Stat: &storage.Stat{}, LastActivity: hourAgo, NonNegativeSince: &twoDays, Now: testNow},
			want: TitleLevelUp,
		},
		{
			name: "down with short streak stays down",
			in:   TitleInput{Current: TitleLevelDown, Stat: &storage.Stat{}, LastActivity: hourAgo, NonNegativeSince: &twoDays, Now: testNow},
			want: TitleLevelDown,
		},
		{
			name:    "down with seven day streak recovers",
			in:      TitleInput{Current: TitleLevelDown, Stat: &storage.Stat{Focus: 3}, LastActivity: hourAgo, NonNegativeSince: &eightDays, Now: testNow},
			want:    TitleLevelUp,
			changed: true,
		},
		{
			name:     "negative stat drops regardless of recency",
			in:       TitleInput{Current: TitleLevelUp, Stat: &storage.Stat{Communication: -1}, LastActivity: testNow, NonNegativeSince: &eightDays, Now: testNow},
			want:     TitleLevelDown,
			changed:  true,
			sinceNil: true,
		},
		{
			name:    "inactivity drops",
			in:      TitleInput{Current: TitleLevelUp, Stat: &storage.Stat{}, LastActivity: testNow.Add(-73 * time.Hour), NonNegativeSince: &eightDays, Now: testNow},
			want:    TitleLevelDown,
			changed: true,
		},
		{
			name:      "streak starts when first seen non-negative",
			in:        TitleInput{Current: TitleLevelDown, Stat: &storage.Stat{}, LastActivity: hourAgo, Now: testNow},
			want:      TitleLevelDown,
			sinceWant: &testNow,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := EvaluateTitle(c.in)
			if d.Title != c.want {
				t.Fatalf("Title=%q, want %q (reason %s)", d.Title, c.want, d.Reason)
			}
			if d.Changed != c.changed {
				t.Fatalf("Changed=%v, want %v", d.Changed, c.changed)
			}
			if c.sinceNil && d.NonNegativeSince != nil {
				t.Fatalf("NonNegativeSince=%v, want nil", d.NonNegativeSince)
			}
			if c.sinceWant != nil && (d.NonNegativeSince == nil || !d.NonNegativeSince.Equal(*c.sinceWant)) {
				t.Fatalf("NonNegativeSince=%v, want %v", d.NonNegativeSince, c.sinceWant)
			}
		})
	}
}

func TestResolveQuestRejectsUnknownPrimaryStat(t *testing.T) {
	in := ResolveInput{
		Quest: storage.Quest{ID: "q", Status: StatusPending, RewardXP: 10, PrimaryStat: strPtr("charisma")},
		Level: storage.UserLevel{Level: 1},
		Now:   testNow,
	}
	if _, err := ResolveQuest(in, ResolveComplete); !errors.Is(err, ErrInvalidAttribute) {
		t.Fatalf("err=%v, want ErrInvalidAttribute", err)
	}
}

func TestResolveQuestOnExpiredStatus(t *testing.T) {
	in := ResolveInput{Quest: storage.Quest{ID: "q", Status: StatusExpired, RewardXP: 10}, Now: testNow}
	_, err := ResolveQuest(in, ResolveFail)
	if !errors.Is(err, ErrAlreadyProcessed) || !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("err=%v, want both ErrAlreadyProcessed and ErrQuestExpired", err)
	}
}

func TestResolveQuestAtExactExpiry(t *testing.T) {
	exp := testNow.Add(2*time.Hour + 125*time.Millisecond)
	in := ResolveInput{
		Quest: storage.Quest{ID: "q", Status: StatusPending, RewardXP: 60, IsOptional: true, ExpirationTime: &exp},
		Level: storage.UserLevel{Level: 1},
		Now:   exp,
	}
	if _, err := ResolveQuest(in, ResolveComplete); err != nil {
		t.Fatalf("ResolveQuest at expiry: %v", err)
	}
	in.Now = exp.Add(time.Millisecond)
	if _, err := ResolveQuest(in, ResolveComplete); !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("err=%v, want ErrQuestExpired one millisecond later", err)
	}
}

func TestCompleteQuestEndToEnd(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "sung")
	setProgress(t, svc, u.ID, func(st *storage.Stat, l *storage.UserLevel) {
		st.Focus = 0
		l.TotalXP = 950
		l.Level = 1
	})
	q := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Deep work block", RewardXP: 100, PrimaryStat: strPtr("focus")})

	res, err := svc.CompleteQuest(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("CompleteQuest: %v", err)
	}
	if res.Stat.Focus != 1 {
		t.Fatalf("Focus=%d, want 1", res.Stat.Focus)
	}
	if res.Level.TotalXP != 1050 || res.Level.Level != 2 {
		t.Fatalf("level=%+v, want total 1050 level 2", res.Level)
	}
	if res.Outcome.PointsGranted != 3 || res.Level.AvailablePoints != 3 || !res.Outcome.LeveledUp {
		t.Fatalf("outcome=%+v points=%d, want 3 points granted", res.Outcome, res.Level.AvailablePoints)
	}
	if res.Outcome.XPGained != 100 || res.Outcome.StatAffected != AttributeFocus || res.Outcome.StatDelta != 1 {
		t.Fatalf("outcome=%+v", res.Outcome)
	}
	if res.Title != TitleLevelUp {
		t.Fatalf("Title=%q, want %q", res.Title, TitleLevelUp)
	}

	p := loadState(t, svc, u.ID)
	if p.Stat.Focus != 1 || p.Level.TotalXP != 1050 || p.Level.Level != 2 || p.Level.AvailablePoints != 3 {
		t.Fatalf("persisted stat=%+v level=%+v", p.Stat, p.Level)
	}
	stored, err := svc.Quest(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("Quest: %v", err)
	}
	if stored.Status != StatusCompleted || stored.CompletedAt == nil || !stored.CompletedAt.Equal(testNow) {
		t.Fatalf("stored quest=%+v", stored)
	}

	events, err := svc.XPHistory(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("XPHistory: %v", err)
	}
	if len(events) != 1 || events[0].DeltaXP != 100 || events[0].Reason != ReasonCompletion {
		t.Fatalf("xp events=%+v", events)
	}

	kinds := env.notifier.kinds()
	if len(kinds) != 2 || kinds[0] != EventQuestCompleted || kinds[1] != EventLevelUp {
		t.Fatalf("notified kinds=%v, want completed then level_up", kinds)
	}
}

func TestResolveTwiceFailsAndLeavesStateUnchanged(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "twice")
	q := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Stretch", RewardXP: 250})

	if _, err := svc.CompleteQuest(ctx, u.ID, q.ID); err != nil {
		t.Fatalf("first CompleteQuest: %v", err)
	}
	after := loadState(t, svc, u.ID)

	env.clock.Set(testNow.Add(time.Hour))
	if _, err := svc.CompleteQuest(ctx, u.ID, q.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("second CompleteQuest err=%v, want ErrAlreadyProcessed", err)
	}
	if _, err := svc.FailQuest(ctx, u.ID, q.ID); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("FailQuest after completion err=%v, want ErrAlreadyProcessed", err)
	}

	again := loadState(t, svc, u.ID)
	if *again.Stat != *after.Stat || *again.Level != *after.Level {
		t.Fatalf("state changed: stat %+v -> %+v, level %+v -> %+v", after.Stat, again.Stat, after.Level, again.Level)
	}
	sum, err := svc.Repos().XPEvents.SumByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if sum != 250 {
		t.Fatalf("xp event sum=%d, want 250", sum)
	}
}

func TestExpiredOptionalQuestIsRejectedWithoutMutation(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "late")
	exp := testNow.Add(-time.Minute)
	q := addQuest(t, svc, storage.Quest{
		UserID: u.ID, Text: "Sprint", RewardXP: 60, IsOptional: true,
		ExpirationTime: &exp, DueDate: exp,
	})
	before := loadState(t, svc, u.ID)

	if _, err := svc.CompleteQuest(ctx, u.ID, q.ID); !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("CompleteQuest err=%v, want ErrQuestExpired", err)
	}
	if _, err := svc.FailQuest(ctx, u.ID, q.ID); !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("FailQuest err=%v, want ErrQuestExpired", err)
	}

	stored, err := svc.Quest(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("Quest: %v", err)
	}
	if stored.Status != StatusPending || stored.CompletedAt != nil {
		t.Fatalf("quest mutated: %+v", stored)
	}
	after := loadState(t, svc, u.ID)
	if *after.Stat != *before.Stat || *after.Level != *before.Level {
		t.Fatalf("progress mutated")
	}
	sum, err := svc.Repos().XPEvents.SumByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("SumByUser: %v", err)
	}
	if sum != 0 {
		t.Fatalf("xp event sum=%d, want 0", sum)
	}
	if len(env.notifier.kinds()) != 0 {
		t.Fatalf("unexpected notifications: %v", env.notifier.kinds())
	}
}

func TestFailQuestPenalisesAndDropsTitle(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "fail")
	q := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Wake at 6", RewardXP: 150})

	res, err := svc.FailQuest(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("FailQuest: %v", err)
	}
	if res.Stat.Discipline != -2 {
		t.Fatalf("Discipline=%d, want -2", res.Stat.Discipline)
	}
	if res.Level.TotalXP != -150 || res.Level.Level != 1 {
		t.Fatalf("level=%+v, want total -150 level 1", res.Level)
	}
	if res.Title != TitleLevelDown || !res.Outcome.TitleChanged {
		t.Fatalf("title=%q changed=%v, want LevelDown changed", res.Title, res.Outcome.TitleChanged)
	}

	p := loadState(t, svc, u.ID)
	if p.User.Title != string(TitleLevelDown) || p.User.NonNegativeSince != nil {
		t.Fatalf("user=%+v, want LevelDown with cleared streak", p.User)
	}
	kinds := env.notifier.kinds()
	if len(kinds) != 2 || kinds[0] != EventQuestFailed || kinds[1] != EventTitleChanged {
		t.Fatalf("notified kinds=%v", kinds)
	}

	rec, err := svc.Reconcile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !rec.Consistent || rec.EventSum != -150 {
		t.Fatalf("Reconcile=%+v", rec)
	}
}

func TestResolveQuestOfAnotherUserIsNotFound(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	svc := env.svc

	owner := newUser(t, svc, "owner")
	other := newUser(t, svc, "other")
	q := addQuest(t, svc, storage.Quest{UserID: owner.ID, Text: "Mine", RewardXP: 10})

	if _, err := svc.CompleteQuest(context.Background(), other.ID, q.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestConcurrentResolutionsSerialise(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "busy")
	const n = 12
	quests := make([]*storage.Quest, n)
	for i := range quests {
		quests[i] = addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Rep", RewardXP: 100, PrimaryStat: strPtr("strength")})
	}
	contested := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Contested", RewardXP: 100, PrimaryStat: strPtr("strength")})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		processed int
		other     []error
	)
	for _, q := range quests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CompleteQuest(ctx, u.ID, q.ID); err != nil {
				mu.Lock()
				other = append(other, err)
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CompleteQuest(ctx, u.ID, contested.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyProcessed):
				processed++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) != 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if wins != 1 || processed != 5 {
		t.Fatalf("contested quest wins=%d processed=%d, want 1 and 5", wins, processed)
	}

	p := loadState(t, svc, u.ID)
	if p.Stat.Strength != n+1 {
		t.Fatalf("Strength=%d, want %d", p.Stat.Strength, n+1)
	}
	if p.Level.TotalXP != (n+1)*100 || p.Level.Level != 2 || p.Level.AvailablePoints != 3 {
		t.Fatalf("level=%+v", p.Level)
	}
	rec, err := svc.Reconcile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !rec.Consistent {
		t.Fatalf("Reconcile=%+v, want consistent", rec)
	}
}

func TestAllocatePointsPersists(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "alloc")
	setProgress(t, svc, u.ID, func(st *storage.Stat, l *storage.UserLevel) {
		l.AvailablePoints = 5
	})

	if _, err := svc.AllocatePoints(ctx, u.ID, "focus", 6); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("err=%v, want ErrInsufficientPoints", err)
	}
	if _, err := svc.AllocatePoints(ctx, u.ID, "focus", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err=%v, want ErrInvalidAmount", err)
	}
	if p := loadState(t, svc, u.ID); p.Level.AvailablePoints != 5 {
		t.Fatalf("AvailablePoints=%d after rejected requests, want 5", p.Level.AvailablePoints)
	}

	res, err := svc.AllocatePoints(ctx, u.ID, "focus", 2)
	if err != nil {
		t.Fatalf("AllocatePoints: %v", err)
	}
	if res.Value != 2 || res.Level.AvailablePoints != 3 {
		t.Fatalf("result=%+v", res)
	}
	p := loadState(t, svc, u.ID)
	if p.Stat.Focus != 2 || p.Level.AvailablePoints != 3 {
		t.Fatalf("persisted focus=%d points=%d", p.Stat.Focus, p.Level.AvailablePoints)
	}
}

func TestLoginTitleMatchesDashboard(t *testing.T) {
	t.Run("returning after a long absence", func(t *testing.T) {
		env, cleanup := newTestService(t, Deps{})
		defer cleanup()
		ctx := context.Background()
		svc := env.svc

		env.clock.Set(testNow.Add(-10 * 24 * time.Hour))
		u := newUser(t, svc, "returning")
		env.clock.Set(testNow)

		before, err := svc.Dashboard(ctx, u.ID)
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if before.Title != TitleLevelDown {
			t.Fatalf("dashboard title before login=%q, want LevelDown after 10 idle days", before.Title)
		}

		login, err := svc.Login(ctx, u.ID)
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if login.Title != TitleLevelUp || login.TitleChanged {
			t.Fatalf("login title=%q changed=%v, want LevelUp unchanged", login.Title, login.TitleChanged)
		}
		assertTitleAgrees(t, svc, u.ID, login.Title)
	})

	t.Run("stored LevelDown with a long streak recovers", func(t *testing.T) {
		env, cleanup := newTestService(t, Deps{})
		defer cleanup()
		ctx := context.Background()
		svc := env.svc

		u := newUser(t, svc, "recovering")
		stored, err := svc.Repos().Users.Get(ctx, u.ID)
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		since := testNow.Add(-10 * 24 * time.Hour)
		stored.Title = string(TitleLevelDown)
		stored.NonNegativeSince = &since
		stored.LastSeen = testNow.Add(-5 * 24 * time.Hour)
		if err := svc.Repos().Users.UpdateProgress(ctx, stored); err != nil {
			t.Fatalf("UpdateProgress: %v", err)
		}

		login, err := svc.Login(ctx, u.ID)
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if login.Title != TitleLevelUp || !login.TitleChanged {
			t.Fatalf("login title=%q changed=%v, want LevelUp changed", login.Title, login.TitleChanged)
		}
		assertTitleAgrees(t, svc, u.ID, login.Title)

		var titleEvents int
		for _, k := range env.notifier.kinds() {
			if k == EventTitleChanged {
				titleEvents++
			}
		}
		if titleEvents != 1 {
			t.Fatalf("title_changed events=%d, want 1", titleEvents)
		}
	})

	t.Run("negative stat drops", func(t *testing.T) {
		env, cleanup := newTestService(t, Deps{})
		defer cleanup()
		ctx := context.Background()
		svc := env.svc

		u := newUser(t, svc, "slipping")
		setProgress(t, svc, u.ID, func(st *storage.Stat, l *storage.UserLevel) {
			st.Focus = -1
		})

		login, err := svc.Login(ctx, u.ID)
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if login.Title != TitleLevelDown || !login.TitleChanged {
			t.Fatalf("login title=%q changed=%v, want LevelDown changed", login.Title, login.TitleChanged)
		}
		assertTitleAgrees(t, svc, u.ID, login.Title)
	})
}

func assertTitleAgrees(t *testing.T, svc *Service, userID string, want Title) {
	t.Helper()
	ctx := context.Background()
	u, err := svc.Repos().Users.Get(ctx, userID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if Title(u.Title) != want {
		t.Fatalf("stored title=%q, want %q", u.Title, want)
	}
	d, err := svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Title != want {
		t.Fatalf("dashboard title=%q, want %q", d.Title, want)
	}
}

func TestRecoveryWaitsForSevenDayStreak(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "streak")
	q1 := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Skip", RewardXP: 100})
	if _, err := svc.FailQuest(ctx, u.ID, q1.ID); err != nil {
		t.Fatalf("FailQuest: %v", err)
	}
	setProgress(t, svc, u.ID, func(st *storage.Stat, l *storage.UserLevel) {
		st.Discipline = 0
	})

	env.clock.Set(testNow.Add(time.Hour))
	q2 := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Plan", RewardXP: 10})
	res, err := svc.CompleteQuest(ctx, u.ID, q2.ID)
	if err != nil {
		t.Fatalf("CompleteQuest: %v", err)
	}
	if res.Title != TitleLevelDown {
		t.Fatalf("Title=%q, want LevelDown while the streak is young", res.Title)
	}
	if res.User.NonNegativeSince == nil || !res.User.NonNegativeSince.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("NonNegativeSince=%v, want streak start", res.User.NonNegativeSince)
	}

	env.clock.Set(testNow.Add(7*24*time.Hour + time.Hour))
	q3 := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Review", RewardXP: 10, DueDate: testNow.Add(8 * 24 * time.Hour)})
	res, err = svc.CompleteQuest(ctx, u.ID, q3.ID)
	if err != nil {
		t.Fatalf("CompleteQuest: %v", err)
	}
	if res.Title != TitleLevelUp || !res.Outcome.TitleChanged {
		t.Fatalf("Title=%q changed=%v, want LevelUp after seven days", res.Title, res.Outcome.TitleChanged)
	}
}

func TestEnsureDailyQuestsIsIdempotentPerDay(t *testing.T) {
	gen := stubGenerator{sug: QuestSuggestion{Text: "[QUEST] Read 20 pages", Difficulty: 2, RewardXP: 20, PrimaryStat: AttributeIntelligence}}
	env, cleanup := newTestService(t, Deps{Generator: gen})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "daily")
	seedGoal(t, svc, u.ID, "Read more books")
	seedGoal(t, svc, u.ID, "Go to the gym")
	off := seedGoal(t, svc, u.ID, "Learn piano")
	if err := svc.DeactivateGoal(ctx, u.ID, off.ID); err != nil {
		t.Fatalf("DeactivateGoal: %v", err)
	}

	created, err := svc.EnsureDailyQuests(ctx, u.ID)
	if err != nil {
		t.Fatalf("EnsureDailyQuests: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d quests, want 2", len(created))
	}
	for _, q := range created {
		if q.IsOptional || q.Status != StatusPending || q.RewardXP != 20 {
			t.Fatalf("quest=%+v", q)
		}
		if !q.DueDate.Equal(endOfDay(testNow)) {
			t.Fatalf("DueDate=%v, want end of day", q.DueDate)
		}
		if q.PrimaryStat == nil || *q.PrimaryStat != "intelligence" {
			t.Fatalf("PrimaryStat=%v", q.PrimaryStat)
		}
	}

	env.clock.Set(testNow.Add(3 * time.Hour))
	again, err := svc.EnsureDailyQuests(ctx, u.ID)
	if err != nil {
		t.Fatalf("EnsureDailyQuests again: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second run created %d quests, want 0", len(again))
	}

	env.clock.Set(testNow.Add(24 * time.Hour))
	next, err := svc.EnsureDailyQuests(ctx, u.ID)
	if err != nil {
		t.Fatalf("EnsureDailyQuests next day: %v", err)
	}
	if len(next) != 2 {
		t.Fatalf("next day created %d quests, want 2", len(next))
	}
}

func TestGenerationFailureFallsBack(t *testing.T) {
	cases := map[string]stubGenerator{
		"error":          {err: errors.New("timeout")},
		"bad difficulty": {sug: QuestSuggestion{Text: "x", Difficulty: 9, RewardXP: 10, PrimaryStat: AttributeFocus}},
		"bad stat":       {sug: QuestSuggestion{Text: "x", Difficulty: 2, RewardXP: 10, PrimaryStat: "luck"}},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			env, cleanup := newTestService(t, Deps{Generator: gen})
			defer cleanup()
			ctx := context.Background()
			svc := env.svc

			u := newUser(t, svc, "fallback")
			seedGoal(t, svc, u.ID, "Meditate")
			created, err := svc.EnsureDailyQuests(ctx, u.ID)
			if err != nil {
				t.Fatalf("EnsureDailyQuests: %v", err)
			}
			if len(created) != 1 {
				t.Fatalf("created %d quests, want 1", len(created))
			}
			q := created[0]
			if q.Text != "[QUEST] Complete one task related to: Meditate" {
				t.Fatalf("Text=%q", q.Text)
			}
			if q.Difficulty != int(FallbackDifficulty) || q.RewardXP != FallbackReward || *q.PrimaryStat != string(DefaultAttribute) {
				t.Fatalf("fallback quest=%+v", q)
			}
		})
	}
}

func seedWhere(t *testing.T, pred func(r *rand.Rand) bool) uint64 {
	t.Helper()
	for seed := uint64(1); seed < 10_000; seed++ {
		if pred(rand.New(rand.NewPCG(seed, seed))) {
			return seed
		}
	}
	t.Fatalf("no seed found")
	return 0
}

func TestLoginSpawnsOptionalQuestOnRoll(t *testing.T) {
	seed := seedWhere(t, func(r *rand.Rand) bool { return r.Float64() < OptionalQuestChance })
	ref := rand.New(rand.NewPCG(seed, seed))
	ref.Float64()
	ref.IntN(1)
	wantHours := 1 + ref.IntN(4)

	env, cleanup := newTestService(t, Deps{Rand: rand.New(rand.NewPCG(seed, seed))})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "lucky")
	goal := seedGoal(t, svc, u.ID, "Talk to a friend")
	if goal.Category != CategorySocial {
		t.Fatalf("Category=%q, want social", goal.Category)
	}

	res, err := svc.Login(ctx, u.ID)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(res.Daily) != 1 {
		t.Fatalf("Daily=%d, want 1", len(res.Daily))
	}
	opt := res.Optional
	if opt == nil {
		t.Fatalf("expected an optional quest")
	}
	if !opt.IsOptional || opt.ExpirationTime == nil {
		t.Fatalf("optional quest=%+v", opt)
	}
	if got := opt.ExpirationTime.Sub(testNow); got != time.Duration(wantHours)*time.Hour {
		t.Fatalf("expiry in %v, want %dh", got, wantHours)
	}
	if !opt.DueDate.Equal(*opt.ExpirationTime) {
		t.Fatalf("DueDate=%v, want expiration", opt.DueDate)
	}
	if opt.RewardXP != FallbackOptionalReward {
		t.Fatalf("RewardXP=%d, want %d", opt.RewardXP, FallbackOptionalReward)
	}
}

func TestLoginWithoutRollOrGoalsSpawnsNothing(t *testing.T) {
	noRoll := seedWhere(t, func(r *rand.Rand) bool { return r.Float64() >= OptionalQuestChance })
	roll := seedWhere(t, func(r *rand.Rand) bool { return r.Float64() < OptionalQuestChance })

	for name, seed := range map[string]uint64{"no roll": noRoll, "no goals": roll} {
		t.Run(name, func(t *testing.T) {
			env, cleanup := newTestService(t, Deps{Rand: rand.New(rand.NewPCG(seed, seed))})
			defer cleanup()
			ctx := context.Background()
			svc := env.svc

			u := newUser(t, svc, "plain")
			if name == "no roll" {
				seedGoal(t, svc, u.ID, "Daily journaling")
			}
			res, err := svc.Login(ctx, u.ID)
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if res.Optional != nil {
				t.Fatalf("unexpected optional quest %+v", res.Optional)
			}
		})
	}
}

func TestAddGoalGeneratesQuestAfterDailyRun(t *testing.T) {
	gen := stubGenerator{sug: QuestSuggestion{Text: "[QUEST] Write a function", Difficulty: 2, RewardXP: 20, PrimaryStat: AttributeIntelligence}}
	env, cleanup := newTestService(t, Deps{Generator: gen})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "eager")
	seedGoal(t, svc, u.ID, "Go to the gym")
	created, err := svc.EnsureDailyQuests(ctx, u.ID)
	if err != nil {
		t.Fatalf("EnsureDailyQuests: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d quests, want 1", len(created))
	}

	env.clock.Set(testNow.Add(2 * time.Hour))
	res, err := svc.AddGoal(ctx, u.ID, "  Learn Go  ", "")
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if res.Goal.Description != "Learn Go" || res.Goal.Category != CategoryLearning || !res.Goal.IsActive {
		t.Fatalf("goal=%+v", res.Goal)
	}
	q := res.Quest
	if q.GoalID == nil || *q.GoalID != res.Goal.ID {
		t.Fatalf("quest goal=%v, want %s", q.GoalID, res.Goal.ID)
	}
	if q.IsOptional || q.Status != StatusPending || q.Text != gen.sug.Text || q.RewardXP != 20 {
		t.Fatalf("quest=%+v", q)
	}
	if !q.DueDate.Equal(endOfDay(testNow)) {
		t.Fatalf("DueDate=%v, want end of day", q.DueDate)
	}

	pending, err := svc.ListQuests(ctx, u.ID, storage.QuestFilter{Status: StatusPending})
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	var forGoal int
	for _, p := range pending {
		if p.GoalID != nil && *p.GoalID == res.Goal.ID {
			forGoal++
		}
	}
	if forGoal != 1 {
		t.Fatalf("pending quests for the new goal=%d, want 1", forGoal)
	}

	env.notifier.mu.Lock()
	last := env.notifier.events[len(env.notifier.events)-1]
	env.notifier.mu.Unlock()
	if last.Kind != EventQuestAvailable || last.Title != "New Quest Available!" || last.QuestID != q.ID {
		t.Fatalf("last event=%+v", last)
	}
	if last.Message != "A new quest has been generated for your goal: Learn Go" {
		t.Fatalf("Message=%q", last.Message)
	}
}

func TestAddGoalCategory(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "picky")
	res, err := svc.AddGoal(ctx, u.ID, "Run 5k every week", " Social ")
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if res.Goal.Category != CategorySocial {
		t.Fatalf("Category=%q, want the explicit social", res.Goal.Category)
	}
	if res.Quest.Text != "[QUEST] Complete one task related to: Run 5k every week" {
		t.Fatalf("fallback quest text=%q", res.Quest.Text)
	}

	if _, err := svc.AddGoal(ctx, u.ID, "Bake bread", "cooking"); err == nil {
		t.Fatalf("expected unknown category error")
	}
	if _, err := svc.AddGoal(ctx, u.ID, "   ", ""); err == nil {
		t.Fatalf("expected empty description error")
	}
	if _, err := svc.AddGoal(ctx, "ghost", "Read", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user err=%v, want ErrNotFound", err)
	}

	goals, err := svc.ListGoals(ctx, u.ID, false)
	if err != nil {
		t.Fatalf("ListGoals: %v", err)
	}
	if len(goals) != 1 {
		t.Fatalf("goals=%d, want only the valid one", len(goals))
	}
	quests, err := svc.ListQuests(ctx, u.ID, storage.QuestFilter{})
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	if len(quests) != 1 {
		t.Fatalf("quests=%d, want only the valid goal's quest", len(quests))
	}
}

func TestLoginDoesNotBlockResolutionDuringGeneration(t *testing.T) {
	gen := newBlockingGenerator()
	env, cleanup := newTestService(t, Deps{Generator: gen})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "busy")
	seedGoal(t, svc, u.ID, "Go to the gym")
	later := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Stretch", RewardXP: 20, DueDate: testNow.Add(48 * time.Hour)})

	var releaseOnce sync.Once
	release := func() { releaseOnce.Do(func() { close(gen.release) }) }
	defer release()

	type loginResult struct {
		res *LoginResult
		err error
	}
	loginDone := make(chan loginResult, 1)
	go func() {
		res, err := svc.Login(ctx, u.ID)
		loginDone <- loginResult{res, err}
	}()

	select {
	case <-gen.entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("generator was never called")
	}

	resolved := make(chan error, 1)
	go func() {
		_, err := svc.CompleteQuest(ctx, u.ID, later.ID)
		resolved <- err
	}()
	select {
	case err := <-resolved:
		if err != nil {
			t.Fatalf("CompleteQuest: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("CompleteQuest blocked while generation was in flight")
	}

	release()
	select {
	case r := <-loginDone:
		if r.err != nil {
			t.Fatalf("Login: %v", r.err)
		}
		if len(r.res.Daily) != 1 {
			t.Fatalf("Daily=%d, want 1", len(r.res.Daily))
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Login did not finish after release")
	}
}

func TestOptionalQuestExpiryBoundary(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "edge")
	exp := testNow.Add(2*time.Hour + 125*time.Millisecond)
	onTime := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "On time", RewardXP: 45, IsOptional: true, ExpirationTime: &exp, DueDate: exp})
	late := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Late", RewardXP: 45, IsOptional: true, ExpirationTime: &exp, DueDate: exp})

	env.clock.Set(exp)
	res, err := svc.Login(ctx, u.ID)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(res.Expired) != 0 {
		t.Fatalf("Expired=%+v at the exact expiry, want none", res.Expired)
	}
	d, err := svc.Dashboard(ctx, u.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if len(d.Optional) != 2 {
		t.Fatalf("dashboard optional=%d at the exact expiry, want 2", len(d.Optional))
	}
	if _, err := svc.CompleteQuest(ctx, u.ID, onTime.ID); err != nil {
		t.Fatalf("CompleteQuest at the exact expiry: %v", err)
	}

	env.clock.Set(exp.Add(time.Millisecond))
	if _, err := svc.CompleteQuest(ctx, u.ID, late.ID); !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("CompleteQuest one millisecond late err=%v, want ErrQuestExpired", err)
	}
	res, err = svc.Login(ctx, u.ID)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(res.Expired) != 1 || res.Expired[0].ID != late.ID {
		t.Fatalf("Expired=%+v, want only the late quest", res.Expired)
	}
}

func TestLoginExpiresOverdueOptionalQuests(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "sweep")
	past := testNow.Add(-2 * time.Hour)
	future := testNow.Add(2 * time.Hour)
	stale := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Old", RewardXP: 45, IsOptional: true, ExpirationTime: &past, DueDate: past})
	live := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Live", RewardXP: 45, IsOptional: true, ExpirationTime: &future, DueDate: future})

	res, err := svc.Login(ctx, u.ID)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if len(res.Expired) != 1 || res.Expired[0].ID != stale.ID {
		t.Fatalf("Expired=%+v, want only the stale quest", res.Expired)
	}

	got, err := svc.Quest(ctx, u.ID, stale.ID)
	if err != nil {
		t.Fatalf("Quest: %v", err)
	}
	if got.Status != StatusExpired {
		t.Fatalf("stale status=%q, want expired", got.Status)
	}
	if _, err := svc.CompleteQuest(ctx, u.ID, stale.ID); !errors.Is(err, ErrQuestExpired) {
		t.Fatalf("completing expired quest err=%v, want ErrQuestExpired", err)
	}

	got, err = svc.Quest(ctx, u.ID, live.ID)
	if err != nil {
		t.Fatalf("Quest: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("live status=%q, want pending", got.Status)
	}

	found := false
	for _, k := range env.notifier.kinds() {
		if k == EventQuestExpired {
			found = true
		}
	}
	if !found {
		t.Fatalf("no quest_expired notification in %v", env.notifier.kinds())
	}
}

func TestNotifierFailureDoesNotRollBack(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("redis down")}
	env, cleanup := newTestService(t, Deps{Notifier: failing})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "offline")
	q := addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Call mom", RewardXP: 40, PrimaryStat: strPtr("communication")})

	if _, err := svc.CompleteQuest(ctx, u.ID, q.ID); err != nil {
		t.Fatalf("CompleteQuest: %v", err)
	}
	got, err := svc.Quest(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("Quest: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("Status=%q, want completed", got.Status)
	}
	if len(failing.kinds()) == 0 {
		t.Fatalf("notifier was not called")
	}
}

func TestCreateQuestValidation(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "maker")
	bad := []CreateQuestInput{
		{UserID: u.ID, Text: "", Difficulty: 2, RewardXP: 10},
		{UserID: u.ID, Text: "x", Difficulty: 6, RewardXP: 10},
		{UserID: u.ID, Text: "x", Difficulty: 2, RewardXP: 0},
		{UserID: u.ID, Text: "x", Difficulty: 2, RewardXP: 10, PrimaryStat: "luck"},
	}
	for i, in := range bad {
		if _, err := svc.CreateQuest(ctx, in); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}

	q, err := svc.CreateQuest(ctx, CreateQuestInput{UserID: u.ID, Text: " Plank ", Difficulty: DifficultyEasy, RewardXP: 20})
	if err != nil {
		t.Fatalf("CreateQuest: %v", err)
	}
	if q.Text != "Plank" || *q.PrimaryStat != "discipline" || !q.DueDate.Equal(endOfDay(testNow)) {
		t.Fatalf("quest=%+v", q)
	}
}

func TestDashboardRecomputesTitleLazily(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	ctx := context.Background()
	svc := env.svc

	u := newUser(t, svc, "viewer")
	setProgress(t, svc, u.ID, func(st *storage.Stat, l *storage.UserLevel) {
		l.TotalXP = 1250
		l.Level = 2
	})
	past := testNow.Add(-time.Minute)
	addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Daily", RewardXP: 10})
	addQuest(t, svc, storage.Quest{UserID: u.ID, Text: "Gone", RewardXP: 10, IsOptional: true, ExpirationTime: &past, DueDate: past})

	env.clock.Set(testNow.Add(80 * time.Hour))
	d, err := svc.Dashboard(ctx, u.ID)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if d.Title != TitleLevelDown {
		t.Fatalf("Title=%q, want LevelDown after 80 idle hours", d.Title)
	}
	if d.User.Title != string(TitleLevelUp) {
		t.Fatalf("stored title=%q, dashboard must not persist", d.User.Title)
	}
	if d.XPIntoLevel != 250 || d.XPForNextLevel != 750 {
		t.Fatalf("xp into=%d next=%d, want 250 and 750", d.XPIntoLevel, d.XPForNextLevel)
	}
	if len(d.Daily) != 1 || len(d.Optional) != 0 {
		t.Fatalf("daily=%d optional=%d, want 1 and 0", len(d.Daily), len(d.Optional))
	}
}

func TestEnsureUserIsGetOrCreate(t *testing.T) {
	env, cleanup := newTestService(t, Deps{})
	defer cleanup()
	svc := env.svc

	a := newUser(t, svc, "same")
	b := newUser(t, svc, " same ")
	if a.ID != b.ID {
		t.Fatalf("EnsureUser created a second user: %s vs %s", a.ID, b.ID)
	}
	p := loadState(t, svc, a.ID)
	if p.Level.Level != 1 || p.Level.TotalXP != 0 || p.Stat.Discipline != 0 {
		t.Fatalf("fresh progress stat=%+v level=%+v", p.Stat, p.Level)
	}
}

func TestClassifyGoal(t *testing.T) {
	cases := map[string]string{
		"Go to the gym 3x":     CategoryPhysical,
		"Study Go generics":    CategoryLearning,
		"Meditation every day": CategoryConcentration,
		"Call a friend":        CategorySocial,
		"Try something new":    CategoryChallenge,
		"Drink water":          CategoryRoutine,
	}
	for in, want := range cases {
		if got := ClassifyGoal(in); got != want {
			t.Fatalf("ClassifyGoal(%q)=%q, want %q", in, got, want)
		}
	}
	if CategoryAttribute(CategoryPhysical) != AttributeStrength || CategoryAttribute("unknown") != DefaultAttribute {
		t.Fatalf("CategoryAttribute mapping wrong")
	}
}

func TestParseDifficulty(t *testing.T) {
	ok := map[string]Difficulty{"3": 3, "****": 4, "Epic": 5, " easy ": 2}
	for in, want := range ok {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q)=%d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"", "0", "******", "hardest"} {
		if _, err := ParseDifficulty(in); err == nil {
			t.Fatalf("ParseDifficulty(%q) expected error", in)
		}
	}
}
