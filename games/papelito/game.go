package papelito

import (
	"context"
	"slices"
	"strings"
)

// Session is per-process state that is deliberately not persisted: the
// clock, time carried over from a round that ended early, and the papelitos
// the current writer has not handed in yet.
type Session struct {
	BonusSeconds int        `json:"bonusSeconds"`
	Drafts       []Papelito `json:"drafts"`
	Collector    string     `json:"collector,omitempty"`
	Clock        Clock      `json:"clock"`
}

// Game drives a match through its screens. It is not safe for concurrent
// use; one goroutine should own it and feed it actions and ticks in order.
type Game struct {
	store   *Store
	intn    IntN
	session Session
}

// NewGame wraps store. A nil intn uses math/rand/v2.
func NewGame(store *Store, intn IntN) *Game {
	g := &Game{store: store, intn: intn}

	s := store.Get()
	if s.Screen == ScreenTurn {
		g.session.Clock.reset(s.Config.TurnTime)
	}

	return g
}

// State returns the current snapshot.
func (g *Game) State() GameState {
	return g.store.Get()
}

// Session returns a copy of the ephemeral state.
func (g *Game) Session() Session {
	s := g.session
	s.Drafts = clonePapelitos(g.session.Drafts)
	s.Collector = collector(g.store.Get())
	return s
}

// Clock returns the turn clock.
func (g *Game) Clock() Clock {
	return g.session.Clock
}

// Outcome compares the current scores.
func (g *Game) Outcome() Outcome {
	return Leader(g.store.Get().Scores)
}

func (g *Game) reset(ctx context.Context) GameState {
	epoch := g.session.Clock.Epoch
	g.session = Session{}
	g.session.Clock.Epoch = epoch + 1

	return g.store.Reset(ctx)
}

// NewGame wipes the saved game and opens the configuration screen.
func (g *Game) NewGame(ctx context.Context) {
	g.reset(ctx)
	g.store.Update(ctx, Patch{Screen: ptr(ScreenConfiguration)})
}

// Restart wipes the saved game and returns home.
func (g *Game) Restart(ctx context.Context) {
	g.reset(ctx)
}

// Back returns to the previous setup screen.
func (g *Game) Back(ctx context.Context) error {
	var to Screen
	switch g.store.Get().Screen {
	case ScreenConfiguration:
		to = ScreenHome
	case ScreenTeams:
		to = ScreenConfiguration
	case ScreenPapelitosInput:
		to = ScreenTeams
		g.session.Drafts = nil
	default:
		return ErrWrongScreen
	}

	g.store.Update(ctx, Patch{Screen: &to})
	return nil
}

func (g *Game) requireScreen(want Screen) (GameState, error) {
	s := g.store.Get()
	if s.Screen != want {
		return s, ErrWrongScreen
	}
	return s, nil
}

// AddPlayer adds name to the roster.
func (g *Game) AddPlayer(ctx context.Context, name string) error {
	s, err := g.requireScreen(ScreenConfiguration)
	if err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrMissingPlayerName
	}
	if slices.Contains(s.Players, name) {
		return ErrDuplicatePlayer
	}

	g.store.Update(ctx, Patch{Players: append(s.Players, name)})
	return nil
}

// RemovePlayer drops name from the roster.
func (g *Game) RemovePlayer(ctx context.Context, name string) error {
	s, err := g.requireScreen(ScreenConfiguration)
	if err != nil {
		return err
	}

	i := slices.Index(s.Players, name)
	if i < 0 {
		return ErrUnknownPlayer
	}

	g.store.Update(ctx, Patch{Players: slices.Delete(s.Players, i, i+1)})
	return nil
}

// SubmitConfiguration stores the match settings and moves on to teams.
func (g *Game) SubmitConfiguration(ctx context.Context, cfg Config) error {
	s, err := g.requireScreen(ScreenConfiguration)
	if err != nil {
		return err
	}

	switch {
	case len(s.Players) < MinPlayers:
		return ErrNotEnoughPlayers
	case cfg.TurnTime <= 0:
		return ErrInvalidTurnTime
	case cfg.PapelitosPerPlayer <= 0:
		return ErrInvalidQuota
	}

	g.store.Update(ctx, Patch{
		Screen: ptr(ScreenTeams),
		Config: &cfg,
	})
	return nil
}

// AssignTeams confirms the two rosters. Every player must appear exactly
// once and neither team may be empty. Blank names keep the defaults.
func (g *Game) AssignTeams(ctx context.Context, teams ByTeam[[]string], names ByTeam[string]) error {
	s, err := g.requireScreen(ScreenTeams)
	if err != nil {
		return err
	}

	if len(teams.A) == 0 || len(teams.B) == 0 {
		return ErrEmptyTeam
	}

	seen := make(map[string]bool, len(s.Players))
	for _, member := range slices.Concat(teams.A, teams.B) {
		if !slices.Contains(s.Players, member) {
			return ErrUnknownPlayer
		}
		if seen[member] {
			return ErrDuplicateAssignment
		}
		seen[member] = true
	}
	if len(seen) != len(s.Players) {
		return ErrUnassignedPlayer
	}

	defaults := DefaultState().TeamNames
	for _, t := range []Team{TeamA, TeamB} {
		name := strings.TrimSpace(names.Get(t))
		if name == "" {
			name = defaults.Get(t)
		}
		names.Set(t, name)
	}

	g.session.Drafts = nil
	g.store.Update(ctx, Patch{
		Screen:             ptr(ScreenPapelitosInput),
		Teams:              &teams,
		TeamNames:          &names,
		Papelitos:          []Papelito{},
		CurrentRound:       ptr(1),
		CurrentTeam:        ptr(TeamA),
		CurrentPlayerIndex: ptr(0),
		Scores:             &ByTeam[int]{},
		RoundPools:         map[int][]Papelito{},
		GuessedInRound:     []string{},
	})
	return nil
}

// AutoAssignTeams shuffles the roster and deals players alternately to A
// and B.
func (g *Game) AutoAssignTeams(ctx context.Context, names ByTeam[string]) error {
	s, err := g.requireScreen(ScreenTeams)
	if err != nil {
		return err
	}

	shuffled := slices.Clone(s.Players)
	Shuffle(shuffled, g.intn)

	teams := ByTeam[[]string]{A: []string{}, B: []string{}}
	for i, p := range shuffled {
		if i%2 == 0 {
			teams.A = append(teams.A, p)
		} else {
			teams.B = append(teams.B, p)
		}
	}

	return g.AssignTeams(ctx, teams, names)
}

// collector is the first player who still owes papelitos.
func collector(s GameState) string {
	if s.Screen != ScreenPapelitosInput {
		return ""
	}

	counts := make(map[string]int, len(s.Players))
	for _, p := range s.Papelitos {
		counts[p.CreatedBy]++
	}
	for _, player := range s.Players {
		if counts[player] < s.Config.PapelitosPerPlayer {
			return player
		}
	}
	return ""
}

// SubmitPapelito validates a papelito from the player currently writing and
// holds it until FinishPapelitos.
func (g *Game) SubmitPapelito(answer string, forbidden []string) (Papelito, error) {
	s, err := g.requireScreen(ScreenPapelitosInput)
	if err != nil {
		return Papelito{}, err
	}

	author := collector(s)
	if author == "" {
		return Papelito{}, ErrWrongScreen
	}

	p, err := ValidatePapelito(s.Config, author, len(g.session.Drafts), answer, forbidden)
	if err != nil {
		return Papelito{}, err
	}

	g.session.Drafts = append(g.session.Drafts, p)
	return p, nil
}

// FinishPapelitos hands in the current writer's papelitos. Once everyone
// has written, the first round is announced.
func (g *Game) FinishPapelitos(ctx context.Context) error {
	s, err := g.requireScreen(ScreenPapelitosInput)
	if err != nil {
		return err
	}

	if collector(s) == "" {
		return ErrWrongScreen
	}
	if len(g.session.Drafts) < s.Config.PapelitosPerPlayer {
		return ErrPapelitosMissing
	}

	s.Papelitos = append(s.Papelitos, g.session.Drafts...)
	g.session.Drafts = nil

	patch := Patch{Papelitos: s.Papelitos}
	if collector(s) == "" {
		patch.Screen = ptr(ScreenRoundStart)
	}

	g.store.Update(ctx, patch)
	return nil
}

// StartRound leaves the briefing and opens a turn. The round's pool is
// built the first time the round is entered; an empty pool completes the
// round on the spot.
func (g *Game) StartRound(ctx context.Context) ([]Event, error) {
	s, err := g.requireScreen(ScreenRoundStart)
	if err != nil {
		return nil, err
	}

	var events []Event
	if _, built := s.RoundPools[s.CurrentRound]; !built {
		s = StartRound(s, g.intn)
		events = append(events, Event{Type: EventRoundStarted, Round: s.CurrentRound})
	}

	if PoolExhausted(s) {
		events = append(events, g.completeRound(&s)...)
		g.commit(ctx, s)
		return events, nil
	}

	s.Screen = ScreenTurn
	seconds := s.Config.TurnTime
	if g.session.BonusSeconds > 0 {
		seconds = g.session.BonusSeconds
	}
	g.session.Clock.reset(seconds)

	g.commit(ctx, s)
	return events, nil
}

// StartTurnTimer starts the countdown of the turn on screen and returns its
// epoch. Starting a running clock is a no-op.
func (g *Game) StartTurnTimer() (uint64, []Event, error) {
	if _, err := g.requireScreen(ScreenTurn); err != nil {
		return 0, nil, err
	}

	c := &g.session.Clock
	if c.Running {
		return c.Epoch, nil, nil
	}
	if c.Expired || c.Remaining <= 0 {
		return 0, nil, ErrTurnOver
	}

	c.Running = true
	c.Epoch++
	g.session.BonusSeconds = 0

	return c.Epoch, []Event{{Type: EventTurnStarted, Remaining: c.Remaining}}, nil
}

// Tick takes one second off the clock if epoch is still current. Reaching
// zero ends the turn's guessing but not the round.
func (g *Game) Tick(epoch uint64) []Event {
	c := &g.session.Clock
	if !c.Running || c.Epoch != epoch {
		return nil
	}

	c.Remaining--
	if c.Remaining > 0 {
		return []Event{{Type: EventTurnTick, Remaining: c.Remaining}}
	}

	c.Remaining = 0
	c.Expired = true
	c.stop()

	s := g.store.Get()
	return []Event{{Type: EventTurnTimeout, Round: s.CurrentRound, Team: s.CurrentTeam}}
}

func (g *Game) requireRunning() (GameState, error) {
	s, err := g.requireScreen(ScreenTurn)
	if err != nil {
		return s, err
	}
	if !g.session.Clock.Running {
		return s, ErrClockNotRunning
	}
	return s, nil
}

// MarkGuessed scores papelito id for the team on turn. Emptying the pool
// completes the round.
func (g *Game) MarkGuessed(ctx context.Context, id string) ([]Event, error) {
	s, err := g.requireRunning()
	if err != nil {
		return nil, err
	}

	next, ok := MarkGuessed(s, id)
	if !ok {
		return nil, ErrPapelitoNotInPool
	}

	events := []Event{{
		Type:       EventPapelitoCorrect,
		Round:      next.CurrentRound,
		Team:       next.CurrentTeam,
		PapelitoID: id,
		Points:     1,
	}}

	if PoolExhausted(next) {
		events = append(events, g.completeRound(&next)...)
	}

	g.commit(ctx, next)
	return events, nil
}

// MarkFoul puts papelito id at the back of the pool after a forbidden word.
func (g *Game) MarkFoul(ctx context.Context, id string) ([]Event, error) {
	s, err := g.requireRunning()
	if err != nil {
		return nil, err
	}

	next, ok := MarkFoul(s, id)
	if !ok {
		return nil, ErrPapelitoNotInPool
	}

	g.store.Update(ctx, Patch{RoundPools: next.RoundPools})
	return []Event{{
		Type:       EventPapelitoFoul,
		Round:      next.CurrentRound,
		Team:       next.CurrentTeam,
		PapelitoID: id,
	}}, nil
}

// EndTurn stops the clock, passes play to the other team and returns to the
// round briefing.
func (g *Game) EndTurn(ctx context.Context) error {
	s, err := g.requireScreen(ScreenTurn)
	if err != nil {
		return err
	}

	g.session.Clock.stop()
	g.session.BonusSeconds = 0

	next := NextTurn(s)
	g.store.Update(ctx, Patch{
		Screen:             ptr(ScreenRoundStart),
		CurrentTeam:        &next.CurrentTeam,
		CurrentPlayerIndex: &next.CurrentPlayerIndex,
	})
	return nil
}

// AdvanceAfterRound leaves the round summary for the next briefing.
func (g *Game) AdvanceAfterRound(ctx context.Context) error {
	if _, err := g.requireScreen(ScreenRoundEnd); err != nil {
		return err
	}

	g.store.Update(ctx, Patch{Screen: ptr(ScreenRoundStart)})
	return nil
}

// completeRound moves s past its exhausted round. Unused turn time is kept
// for the next turn, which the same player opens in the next round.
func (g *Game) completeRound(s *GameState) []Event {
	c := &g.session.Clock
	remaining := 0
	if c.Running {
		remaining = c.Remaining
	}
	c.stop()
	c.Expired = false

	leader := Leader(s.Scores)
	events := []Event{{Type: EventRoundComplete, Round: s.CurrentRound, Outcome: &leader}}

	if s.CurrentRound >= Rounds {
		s.Screen = ScreenFinal
		g.session.BonusSeconds = 0
		return append(events, Event{Type: EventGameComplete, Round: s.CurrentRound, Outcome: &leader})
	}

	s.CurrentRound++
	*s = StartRound(*s, g.intn)
	s.Screen = ScreenRoundEnd
	g.session.BonusSeconds = remaining

	return append(events, Event{Type: EventRoundStarted, Round: s.CurrentRound})
}

// commit writes every lifecycle field of s in one update.
func (g *Game) commit(ctx context.Context, s GameState) {
	g.store.Update(ctx, Patch{
		Screen:             &s.Screen,
		CurrentRound:       &s.CurrentRound,
		CurrentTeam:        &s.CurrentTeam,
		CurrentPlayerIndex: &s.CurrentPlayerIndex,
		Scores:             &s.Scores,
		RoundPools:         s.RoundPools,
		GuessedInRound:     s.GuessedInRound,
	})
}
