package papelito

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
)

var testPlayers = []string{"Ana", "Beto", "Carla", "Dani"}

func testConfig() Config {
	return Config{TurnTime: 60, PapelitosPerPlayer: 3, SoundEnabled: true}
}

func configuredGame(t *testing.T, p Persister) *Game {
	t.Helper()
	ctx := context.Background()

	g := NewGame(NewStore(ctx, p, nil), nil)
	g.NewGame(ctx)

	for _, name := range testPlayers {
		if err := g.AddPlayer(ctx, name); err != nil {
			t.Fatalf("add player %q: %v", name, err)
		}
	}

	return g
}

// newTestGame plays setup through to the first round briefing.
func newTestGame(t *testing.T, cfg Config) (*Game, *memPersister) {
	t.Helper()
	ctx := context.Background()

	p := newMemPersister()
	g := configuredGame(t, p)

	if err := g.SubmitConfiguration(ctx, cfg); err != nil {
		t.Fatalf("configure: %v", err)
	}

	teams := ByTeam[[]string]{A: []string{"Ana", "Carla"}, B: []string{"Beto", "Dani"}}
	if err := g.AssignTeams(ctx, teams, ByTeam[string]{}); err != nil {
		t.Fatalf("assign teams: %v", err)
	}

	for _, name := range testPlayers {
		if got := g.Session().Collector; got != name {
			t.Fatalf("expected %s to be writing, got %q", name, got)
		}
		for i := range cfg.PapelitosPerPlayer {
			answer := fmt.Sprintf("%s respuesta %d", name, i)
			if _, err := g.SubmitPapelito(answer, []string{"uno", "dos", "tres"}); err != nil {
				t.Fatalf("submit papelito for %s: %v", name, err)
			}
		}
		if err := g.FinishPapelitos(ctx); err != nil {
			t.Fatalf("finish papelitos for %s: %v", name, err)
		}
	}

	return g, p
}

func guessAll(t *testing.T, g *Game) []Event {
	t.Helper()

	var all []Event
	for {
		s := g.State()
		if s.Screen != ScreenTurn || len(s.Pool()) == 0 {
			return all
		}

		events, err := g.MarkGuessed(context.Background(), s.Pool()[0].ID)
		if err != nil {
			t.Fatalf("mark guessed: %v", err)
		}
		all = append(all, events...)
	}
}

func eventTypes(events []Event) []EventType {
	out := make([]EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestSetupReachesFirstRound(t *testing.T) {
	g, p := newTestGame(t, testConfig())

	s := g.State()
	if s.Screen != ScreenRoundStart {
		t.Fatalf("expected %q, got %q", ScreenRoundStart, s.Screen)
	}
	if len(s.Papelitos) != 12 {
		t.Fatalf("expected 12 papelitos, got %d", len(s.Papelitos))
	}
	if s.CurrentRound != 1 || s.CurrentTeam != TeamA || s.CurrentPlayerIndex != 0 {
		t.Fatalf("unexpected turn pointer: round %d team %s index %d", s.CurrentRound, s.CurrentTeam, s.CurrentPlayerIndex)
	}
	if s.TeamNames != (ByTeam[string]{A: "Equipo A", B: "Equipo B"}) {
		t.Fatalf("expected default team names, got %+v", s.TeamNames)
	}
	if _, ok := p.data[StorageKey]; !ok {
		t.Fatal("expected the game to be saved")
	}
}

func TestFullGameThreeRounds(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	for round := 1; round <= Rounds; round++ {
		s := g.State()
		if s.Screen != ScreenRoundStart || s.CurrentRound != round {
			t.Fatalf("round %d: expected briefing, got %q in round %d", round, s.Screen, s.CurrentRound)
		}

		events, err := g.StartRound(ctx)
		if err != nil {
			t.Fatalf("round %d: start: %v", round, err)
		}
		if round == 1 && !slices.Equal(eventTypes(events), []EventType{EventRoundStarted}) {
			t.Fatalf("expected round-started, got %v", eventTypes(events))
		}
		if got := len(g.State().Pool()); got != 12 {
			t.Fatalf("round %d: expected 12 papelitos in the pool, got %d", round, got)
		}

		if _, _, err := g.StartTurnTimer(); err != nil {
			t.Fatalf("round %d: start timer: %v", round, err)
		}

		events = guessAll(t, g)
		s = g.State()
		last := events[len(events)-1]

		if round < Rounds {
			if s.Screen != ScreenRoundEnd {
				t.Fatalf("round %d: expected %q, got %q", round, ScreenRoundEnd, s.Screen)
			}
			if s.CurrentRound != round+1 {
				t.Fatalf("round %d: expected round to advance, got %d", round, s.CurrentRound)
			}
			if len(s.Pool()) != 12 || len(s.GuessedInRound) != 0 {
				t.Fatalf("round %d: expected a full fresh pool, got %d left and %d guessed", round, len(s.Pool()), len(s.GuessedInRound))
			}
			if last.Type != EventRoundStarted || last.Round != round+1 {
				t.Fatalf("round %d: expected round-started for next round, got %+v", round, last)
			}
			if err := g.AdvanceAfterRound(ctx); err != nil {
				t.Fatalf("round %d: advance: %v", round, err)
			}
			continue
		}

		if s.Screen != ScreenFinal {
			t.Fatalf("expected %q, got %q", ScreenFinal, s.Screen)
		}
		if last.Type != EventGameComplete || last.Outcome == nil || last.Outcome.Winner != TeamA {
			t.Fatalf("expected game-complete won by A, got %+v", last)
		}
	}

	s := g.State()
	if s.Scores != (ByTeam[int]{A: 36, B: 0}) {
		t.Fatalf("unexpected final scores %+v", s.Scores)
	}
	if got := g.Outcome(); got != (Outcome{Winner: TeamA}) {
		t.Fatalf("unexpected outcome %+v", got)
	}
}

func TestRoundCompletesOnLastGuess(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}

	pool := g.State().Pool()
	for _, p := range pool[:len(pool)-1] {
		events, err := g.MarkGuessed(ctx, p.ID)
		if err != nil {
			t.Fatalf("mark guessed: %v", err)
		}
		if !slices.Equal(eventTypes(events), []EventType{EventPapelitoCorrect}) {
			t.Fatalf("expected only a correct event, got %v", eventTypes(events))
		}
	}

	events, err := g.MarkGuessed(ctx, pool[len(pool)-1].ID)
	if err != nil {
		t.Fatalf("mark guessed: %v", err)
	}

	want := []EventType{EventPapelitoCorrect, EventRoundComplete, EventRoundStarted}
	if !slices.Equal(eventTypes(events), want) {
		t.Fatalf("expected %v, got %v", want, eventTypes(events))
	}
	if events[1].Round != 1 || events[1].Outcome == nil || events[1].Outcome.Winner != TeamA {
		t.Fatalf("unexpected round-complete event %+v", events[1])
	}
	if g.Clock().Running {
		t.Fatal("expected the clock to stop when the round completes")
	}
}

func TestEndTurnKeepsPool(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if _, err := g.MarkGuessed(ctx, g.State().Pool()[0].ID); err != nil {
		t.Fatalf("mark guessed: %v", err)
	}

	if err := g.EndTurn(ctx); err != nil {
		t.Fatalf("end turn: %v", err)
	}

	s := g.State()
	if s.Screen != ScreenRoundStart || s.CurrentTeam != TeamB || s.CurrentPlayerIndex != 0 {
		t.Fatalf("expected B's briefing, got %q team %s index %d", s.Screen, s.CurrentTeam, s.CurrentPlayerIndex)
	}
	if g.Clock().Running {
		t.Fatal("expected clock to stop")
	}

	events, err := g.StartRound(ctx)
	if err != nil {
		t.Fatalf("start round again: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for a pool already built, got %v", eventTypes(events))
	}

	s = g.State()
	if len(s.Pool()) != 11 || len(s.GuessedInRound) != 1 {
		t.Fatalf("expected the pool to carry on, got %d left and %d guessed", len(s.Pool()), len(s.GuessedInRound))
	}
	if g.Clock().Remaining != 60 {
		t.Fatalf("expected a full turn, got %d", g.Clock().Remaining)
	}

	if err := g.EndTurn(ctx); err != nil {
		t.Fatalf("end turn: %v", err)
	}
	if s := g.State(); s.CurrentTeam != TeamA || s.CurrentPlayerIndex != 1 {
		t.Fatalf("expected A/1, got %s/%d", s.CurrentTeam, s.CurrentPlayerIndex)
	}
}

func TestTickCountsDownToTimeout(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.TurnTime = 3
	g, _ := newTestGame(t, cfg)

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}

	epoch, events, err := g.StartTurnTimer()
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if !slices.Equal(eventTypes(events), []EventType{EventTurnStarted}) || events[0].Remaining != 3 {
		t.Fatalf("unexpected start events %+v", events)
	}

	again, events, err := g.StartTurnTimer()
	if err != nil || again != epoch || len(events) != 0 {
		t.Fatalf("starting a running clock should be a no-op, got %d %v %v", again, events, err)
	}

	for want := 2; want > 0; want-- {
		events := g.Tick(epoch)
		if len(events) != 1 || events[0].Type != EventTurnTick || events[0].Remaining != want {
			t.Fatalf("expected tick with %d left, got %+v", want, events)
		}
	}

	events = g.Tick(epoch)
	if len(events) != 1 || events[0].Type != EventTurnTimeout {
		t.Fatalf("expected timeout, got %+v", events)
	}

	c := g.Clock()
	if c.Running || !c.Expired || c.Remaining != 0 {
		t.Fatalf("unexpected clock after timeout: %+v", c)
	}

	s := g.State()
	if s.Screen != ScreenTurn || s.CurrentRound != 1 {
		t.Fatalf("timeout must not end the round, got %q round %d", s.Screen, s.CurrentRound)
	}

	if _, err := g.MarkGuessed(ctx, s.Pool()[0].ID); !errors.Is(err, ErrClockNotRunning) {
		t.Fatalf("expected %v after timeout, got %v", ErrClockNotRunning, err)
	}
	if _, _, err := g.StartTurnTimer(); !errors.Is(err, ErrTurnOver) {
		t.Fatalf("expected %v, got %v", ErrTurnOver, err)
	}
	if events := g.Tick(epoch); events != nil {
		t.Fatalf("expected no events from a stopped clock, got %+v", events)
	}
}

func TestStaleTickIsIgnored(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	epoch, _, err := g.StartTurnTimer()
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}

	guessAll(t, g)
	before := g.State()

	if events := g.Tick(epoch); events != nil {
		t.Fatalf("expected tick from a finished turn to be dropped, got %+v", events)
	}
	if after := g.State(); after.Screen != before.Screen || after.CurrentRound != before.CurrentRound {
		t.Fatal("stale tick changed the game")
	}
}

func TestBonusTimeCarriesIntoNextRound(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	epoch, _, err := g.StartTurnTimer()
	if err != nil {
		t.Fatalf("start timer: %v", err)
	}
	for range 5 {
		g.Tick(epoch)
	}

	guessAll(t, g)

	if got := g.Session().BonusSeconds; got != 55 {
		t.Fatalf("expected 55 bonus seconds, got %d", got)
	}

	if err := g.AdvanceAfterRound(ctx); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round 2: %v", err)
	}

	s := g.State()
	if s.CurrentTeam != TeamA || s.CurrentPlayerIndex != 0 {
		t.Fatalf("expected the same player to continue, got %s/%d", s.CurrentTeam, s.CurrentPlayerIndex)
	}
	if got := g.Clock().Remaining; got != 55 {
		t.Fatalf("expected the turn to start with 55 seconds, got %d", got)
	}

	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if got := g.Session().BonusSeconds; got != 0 {
		t.Fatalf("expected bonus to be used up, got %d", got)
	}
}

func TestEmptyPoolCompletesEveryRound(t *testing.T) {
	ctx := context.Background()
	store := NewStore(ctx, nil, nil)
	store.Update(ctx, Patch{
		Screen: ptr(ScreenRoundStart),
		Teams:  &ByTeam[[]string]{A: []string{"Ana", "Carla"}, B: []string{"Beto", "Dani"}},
	})
	g := NewGame(store, nil)

	events, err := g.StartRound(ctx)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	want := []EventType{EventRoundStarted, EventRoundComplete, EventRoundStarted}
	if !slices.Equal(eventTypes(events), want) {
		t.Fatalf("expected %v, got %v", want, eventTypes(events))
	}
	if s := g.State(); s.Screen != ScreenRoundEnd || s.CurrentRound != 2 {
		t.Fatalf("expected round-end before round 2, got %q round %d", s.Screen, s.CurrentRound)
	}

	for range 2 {
		if err := g.AdvanceAfterRound(ctx); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if events, err = g.StartRound(ctx); err != nil {
			t.Fatalf("start round: %v", err)
		}
	}

	if !slices.Equal(eventTypes(events), []EventType{EventRoundComplete, EventGameComplete}) {
		t.Fatalf("expected the last round to end the game, got %v", eventTypes(events))
	}
	if s := g.State(); s.Screen != ScreenFinal {
		t.Fatalf("expected %q, got %q", ScreenFinal, s.Screen)
	}
	if got := g.Outcome(); !got.Draw {
		t.Fatalf("expected a draw, got %+v", got)
	}
}

func TestMarkRequiresPapelitoInPool(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := g.MarkGuessed(ctx, g.State().Pool()[0].ID); !errors.Is(err, ErrClockNotRunning) {
		t.Fatalf("expected %v before the timer starts, got %v", ErrClockNotRunning, err)
	}
	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}

	if _, err := g.MarkGuessed(ctx, "missing"); !errors.Is(err, ErrPapelitoNotInPool) {
		t.Fatalf("expected %v, got %v", ErrPapelitoNotInPool, err)
	}
	if _, err := g.MarkFoul(ctx, "missing"); !errors.Is(err, ErrPapelitoNotInPool) {
		t.Fatalf("expected %v, got %v", ErrPapelitoNotInPool, err)
	}
	if got := g.State().Scores; got != (ByTeam[int]{}) {
		t.Fatalf("expected no score, got %+v", got)
	}
}

func TestMarkFoulRequeues(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}

	first := g.State().Pool()[0].ID
	events, err := g.MarkFoul(ctx, first)
	if err != nil {
		t.Fatalf("mark foul: %v", err)
	}
	if len(events) != 1 || events[0].Type != EventPapelitoFoul || events[0].PapelitoID != first {
		t.Fatalf("unexpected foul events %+v", events)
	}

	pool := g.State().Pool()
	if len(pool) != 12 || pool[len(pool)-1].ID != first {
		t.Fatalf("expected %s at the back of a full pool, got %v", first, ids(pool))
	}
	if got := g.State().Scores; got != (ByTeam[int]{}) {
		t.Fatalf("a foul must not score, got %+v", got)
	}
}

func TestSubmitConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	g := NewGame(NewStore(ctx, nil, nil), nil)
	if err := g.SubmitConfiguration(ctx, testConfig()); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("expected %v on the home screen, got %v", ErrWrongScreen, err)
	}

	g.NewGame(ctx)
	for _, name := range testPlayers[:3] {
		if err := g.AddPlayer(ctx, name); err != nil {
			t.Fatalf("add player: %v", err)
		}
	}
	if err := g.SubmitConfiguration(ctx, testConfig()); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected %v, got %v", ErrNotEnoughPlayers, err)
	}
	if s := g.State(); s.Screen != ScreenConfiguration {
		t.Fatalf("expected to stay on configuration, got %q", s.Screen)
	}

	if err := g.AddPlayer(ctx, testPlayers[3]); err != nil {
		t.Fatalf("add player: %v", err)
	}

	bad := testConfig()
	bad.TurnTime = 0
	if err := g.SubmitConfiguration(ctx, bad); !errors.Is(err, ErrInvalidTurnTime) {
		t.Fatalf("expected %v, got %v", ErrInvalidTurnTime, err)
	}

	bad = testConfig()
	bad.PapelitosPerPlayer = 0
	if err := g.SubmitConfiguration(ctx, bad); !errors.Is(err, ErrInvalidQuota) {
		t.Fatalf("expected %v, got %v", ErrInvalidQuota, err)
	}

	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if s := g.State(); s.Screen != ScreenTeams || s.Config != testConfig() {
		t.Fatalf("unexpected state after configure: %q %+v", s.Screen, s.Config)
	}
}

func TestRosterEdits(t *testing.T) {
	ctx := context.Background()
	g := configuredGame(t, nil)

	if err := g.AddPlayer(ctx, "  "); !errors.Is(err, ErrMissingPlayerName) {
		t.Fatalf("expected %v, got %v", ErrMissingPlayerName, err)
	}
	if err := g.AddPlayer(ctx, " Ana "); !errors.Is(err, ErrDuplicatePlayer) {
		t.Fatalf("expected %v, got %v", ErrDuplicatePlayer, err)
	}
	if err := g.RemovePlayer(ctx, "Zoe"); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("expected %v, got %v", ErrUnknownPlayer, err)
	}
	if err := g.RemovePlayer(ctx, "Beto"); err != nil {
		t.Fatalf("remove player: %v", err)
	}

	if got := g.State().Players; !slices.Equal(got, []string{"Ana", "Carla", "Dani"}) {
		t.Fatalf("unexpected roster %v", got)
	}
}

func TestAssignTeamsErrors(t *testing.T) {
	ctx := context.Background()
	g := configuredGame(t, nil)
	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}

	tests := []struct {
		name  string
		teams ByTeam[[]string]
		want  error
	}{
		{"empty team", ByTeam[[]string]{A: testPlayers}, ErrEmptyTeam},
		{"unknown player", ByTeam[[]string]{A: []string{"Ana", "Zoe"}, B: []string{"Beto", "Carla", "Dani"}}, ErrUnknownPlayer},
		{"player twice", ByTeam[[]string]{A: []string{"Ana", "Beto"}, B: []string{"Beto", "Carla", "Dani"}}, ErrDuplicateAssignment},
		{"player missing", ByTeam[[]string]{A: []string{"Ana"}, B: []string{"Beto", "Carla"}}, ErrUnassignedPlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AssignTeams(ctx, tt.teams, ByTeam[string]{}); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s := g.State(); s.Screen != ScreenTeams {
				t.Fatalf("expected to stay on teams, got %q", s.Screen)
			}
		})
	}
}

func TestAssignTeamsNames(t *testing.T) {
	ctx := context.Background()
	g := configuredGame(t, nil)
	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}

	teams := ByTeam[[]string]{A: []string{"Ana", "Beto", "Carla"}, B: []string{"Dani"}}
	if err := g.AssignTeams(ctx, teams, ByTeam[string]{A: " Los Gatos ", B: " "}); err != nil {
		t.Fatalf("assign teams: %v", err)
	}

	s := g.State()
	if s.TeamNames != (ByTeam[string]{A: "Los Gatos", B: "Equipo B"}) {
		t.Fatalf("unexpected team names %+v", s.TeamNames)
	}
	if s.Screen != ScreenPapelitosInput {
		t.Fatalf("expected %q, got %q", ScreenPapelitosInput, s.Screen)
	}
}

func TestAutoAssignTeams(t *testing.T) {
	ctx := context.Background()
	g := configuredGame(t, nil)
	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := g.AutoAssignTeams(ctx, ByTeam[string]{}); err != nil {
		t.Fatalf("auto assign: %v", err)
	}

	s := g.State()
	if len(s.Teams.A) != 2 || len(s.Teams.B) != 2 {
		t.Fatalf("expected 2 and 2, got %v and %v", s.Teams.A, s.Teams.B)
	}

	all := slices.Concat(s.Teams.A, s.Teams.B)
	slices.Sort(all)
	want := slices.Clone(testPlayers)
	slices.Sort(want)
	if !slices.Equal(all, want) {
		t.Fatalf("expected every player once, got %v", all)
	}
}

func TestPapelitoCollection(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.PapelitosPerPlayer = 2

	g := configuredGame(t, nil)
	if err := g.SubmitConfiguration(ctx, cfg); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := g.AssignTeams(ctx, ByTeam[[]string]{A: []string{"Ana", "Carla"}, B: []string{"Beto", "Dani"}}, ByTeam[string]{}); err != nil {
		t.Fatalf("assign teams: %v", err)
	}

	if _, err := g.SubmitPapelito("Luna", []string{"noche", "cielo", "satélite"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := g.FinishPapelitos(ctx); !errors.Is(err, ErrPapelitosMissing) {
		t.Fatalf("expected %v, got %v", ErrPapelitosMissing, err)
	}
	if _, err := g.SubmitPapelito("Sol", []string{"día", "calor", "estrella"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := g.SubmitPapelito("Mar", []string{"agua", "sal", "ola"}); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected %v, got %v", ErrQuotaExceeded, err)
	}
	if got := len(g.Session().Drafts); got != 2 {
		t.Fatalf("expected 2 drafts, got %d", got)
	}
	if got := len(g.State().Papelitos); got != 0 {
		t.Fatalf("drafts must not be committed yet, got %d", got)
	}

	if err := g.FinishPapelitos(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}

	s := g.State()
	if len(s.Papelitos) != 2 || s.Papelitos[0].CreatedBy != "Ana" {
		t.Fatalf("unexpected papelitos %+v", s.Papelitos)
	}
	if got := g.Session().Collector; got != "Beto" {
		t.Fatalf("expected Beto to write next, got %q", got)
	}
	if s.Screen != ScreenPapelitosInput {
		t.Fatalf("expected to keep collecting, got %q", s.Screen)
	}
}

func TestCollectorSurvivesRestore(t *testing.T) {
	ctx := context.Background()
	p := newMemPersister()
	g := configuredGame(t, p)

	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := g.AssignTeams(ctx, ByTeam[[]string]{A: []string{"Ana", "Carla"}, B: []string{"Beto", "Dani"}}, ByTeam[string]{}); err != nil {
		t.Fatalf("assign teams: %v", err)
	}
	for i := range 3 {
		if _, err := g.SubmitPapelito(fmt.Sprintf("cosa %d", i), []string{"uno", "dos", "tres"}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if err := g.FinishPapelitos(ctx); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := g.SubmitPapelito("sin guardar", []string{"uno", "dos", "tres"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	restored := NewGame(NewStore(ctx, p, nil), nil)

	if got := restored.Session().Collector; got != "Beto" {
		t.Fatalf("expected Beto to be writing after restore, got %q", got)
	}
	if got := len(restored.Session().Drafts); got != 0 {
		t.Fatalf("drafts are not saved, got %d", got)
	}
	if got := len(restored.State().Papelitos); got != 3 {
		t.Fatalf("expected 3 saved papelitos, got %d", got)
	}
}

func TestRestoreMidTurn(t *testing.T) {
	ctx := context.Background()
	g, p := newTestGame(t, testConfig())

	if _, err := g.StartRound(ctx); err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, _, err := g.StartTurnTimer(); err != nil {
		t.Fatalf("start timer: %v", err)
	}
	if _, err := g.MarkGuessed(ctx, g.State().Pool()[0].ID); err != nil {
		t.Fatalf("mark guessed: %v", err)
	}

	restored := NewGame(NewStore(ctx, p, nil), nil)

	s := restored.State()
	if s.Screen != ScreenTurn || len(s.Pool()) != 11 || s.Scores.A != 1 {
		t.Fatalf("unexpected restored state: %q, %d left, %+v", s.Screen, len(s.Pool()), s.Scores)
	}

	c := restored.Clock()
	if c.Running || c.Remaining != 60 {
		t.Fatalf("expected a stopped full clock after restore, got %+v", c)
	}
	if _, _, err := restored.StartTurnTimer(); err != nil {
		t.Fatalf("start timer after restore: %v", err)
	}
}

func TestBackNavigation(t *testing.T) {
	ctx := context.Background()
	g := configuredGame(t, nil)

	if err := g.SubmitConfiguration(ctx, testConfig()); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := g.Back(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if s := g.State(); s.Screen != ScreenConfiguration || len(s.Players) != 4 {
		t.Fatalf("expected configuration with the roster kept, got %q %v", s.Screen, s.Players)
	}
	if err := g.Back(ctx); err != nil {
		t.Fatalf("back: %v", err)
	}
	if s := g.State(); s.Screen != ScreenHome {
		t.Fatalf("expected home, got %q", s.Screen)
	}
	if err := g.Back(ctx); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("expected %v on home, got %v", ErrWrongScreen, err)
	}
}

func TestRestartClearsSavedGame(t *testing.T) {
	ctx := context.Background()
	g, p := newTestGame(t, testConfig())

	g.Restart(ctx)

	if _, ok := p.data[StorageKey]; ok {
		t.Fatal("expected the saved game to be erased")
	}
	if s := g.State(); s.Screen != ScreenHome || len(s.Players) != 0 {
		t.Fatalf("expected a fresh game, got %q %v", s.Screen, s.Players)
	}

	g.NewGame(ctx)
	if s := g.State(); s.Screen != ScreenConfiguration {
		t.Fatalf("expected configuration, got %q", s.Screen)
	}
}

func TestActionsOnWrongScreen(t *testing.T) {
	ctx := context.Background()
	g := NewGame(NewStore(ctx, nil, nil), nil)

	if err := g.AddPlayer(ctx, "Ana"); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("add player: expected %v, got %v", ErrWrongScreen, err)
	}
	if _, err := g.StartRound(ctx); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("start round: expected %v, got %v", ErrWrongScreen, err)
	}
	if _, _, err := g.StartTurnTimer(); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("start timer: expected %v, got %v", ErrWrongScreen, err)
	}
	if err := g.EndTurn(ctx); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("end turn: expected %v, got %v", ErrWrongScreen, err)
	}
	if err := g.AdvanceAfterRound(ctx); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("advance: expected %v, got %v", ErrWrongScreen, err)
	}
	if _, err := g.SubmitPapelito("Luna", nil); !errors.Is(err, ErrWrongScreen) {
		t.Fatalf("submit: expected %v, got %v", ErrWrongScreen, err)
	}
}
