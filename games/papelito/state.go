package papelito

import "slices"

// StorageKey names the persisted game record.
const StorageKey = "papelito_game_state"

const (
	MinPlayers = 4
	Rounds     = 3

	defaultTurnTime           = 60
	defaultPapelitosPerPlayer = 3
	forbiddenWordCount        = 3
)

type Screen string

const (
	ScreenHome           Screen = "home"
	ScreenConfiguration  Screen = "configuration"
	ScreenTeams          Screen = "teams"
	ScreenPapelitosInput Screen = "papelitos-input"
	ScreenRoundStart     Screen = "round-start"
	ScreenTurn           Screen = "turn"
	ScreenRoundEnd       Screen = "round-end"
	ScreenFinal          Screen = "final"
)

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// ByTeam holds one value per team slot.
type ByTeam[T any] struct {
	A T `json:"A"`
	B T `json:"B"`
}

func (b ByTeam[T]) Get(t Team) T {
	if t == TeamB {
		return b.B
	}
	return b.A
}

func (b *ByTeam[T]) Set(t Team, v T) {
	if t == TeamB {
		b.B = v
		return
	}
	b.A = v
}

type Config struct {
	TurnTime           int  `json:"turnTime"`
	PapelitosPerPlayer int  `json:"papelitosPerPlayer"`
	SoundEnabled       bool `json:"soundEnabled"`
	EasyMode           bool `json:"easyMode"`
}

// Papelito is a single slip of paper. It is never modified after creation.
type Papelito struct {
	ID        string   `json:"id"`
	Answer    string   `json:"answer"`
	Forbidden []string `json:"forbidden"`
	CreatedBy string   `json:"createdBy"`
}

// GameState is the whole persisted game.
type GameState struct {
	Screen             Screen             `json:"screen"`
	Config             Config             `json:"config"`
	Players            []string           `json:"players"`
	Teams              ByTeam[[]string]   `json:"teams"`
	TeamNames          ByTeam[string]     `json:"teamNames"`
	Papelitos          []Papelito         `json:"papelitos"`
	CurrentRound       int                `json:"currentRound"`
	CurrentTeam        Team               `json:"currentTeam"`
	CurrentPlayerIndex int                `json:"currentPlayerIndex"`
	Scores             ByTeam[int]        `json:"scores"`
	RoundPools         map[int][]Papelito `json:"roundPools"`
	GuessedInRound     []string           `json:"guessedInRound"`
}

// DefaultState returns the state of a fresh install.
func DefaultState() GameState {
	return GameState{
		Screen: ScreenHome,
		Config: Config{
			TurnTime:           defaultTurnTime,
			PapelitosPerPlayer: defaultPapelitosPerPlayer,
			SoundEnabled:       true,
		},
		Players:        []string{},
		Teams:          ByTeam[[]string]{A: []string{}, B: []string{}},
		TeamNames:      ByTeam[string]{A: "Equipo A", B: "Equipo B"},
		Papelitos:      []Papelito{},
		CurrentRound:   1,
		CurrentTeam:    TeamA,
		RoundPools:     map[int][]Papelito{},
		GuessedInRound: []string{},
	}
}

// Clone returns a deep copy so callers can never mutate a stored snapshot.
func (s GameState) Clone() GameState {
	c := s
	c.Players = slices.Clone(s.Players)
	c.Teams = ByTeam[[]string]{A: slices.Clone(s.Teams.A), B: slices.Clone(s.Teams.B)}
	c.Papelitos = clonePapelitos(s.Papelitos)
	c.GuessedInRound = slices.Clone(s.GuessedInRound)
	c.RoundPools = make(map[int][]Papelito, len(s.RoundPools))
	for round, pool := range s.RoundPools {
		c.RoundPools[round] = clonePapelitos(pool)
	}
	return c
}

func clonePapelitos(in []Papelito) []Papelito {
	if in == nil {
		return nil
	}
	out := make([]Papelito, len(in))
	for i, p := range in {
		p.Forbidden = slices.Clone(p.Forbidden)
		out[i] = p
	}
	return out
}

// Pool returns the unguessed papelitos of the current round.
func (s GameState) Pool() []Papelito {
	return s.RoundPools[s.CurrentRound]
}

// CurrentPlayer returns the clue giver, or "" if the current team is empty.
func (s GameState) CurrentPlayer() string {
	members := s.Teams.Get(s.CurrentTeam)
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(members) {
		return ""
	}
	return members[s.CurrentPlayerIndex]
}

// Patch carries the top-level fields to replace in an update. Nil fields are
// left untouched.
type Patch struct {
	Screen             *Screen
	Config             *Config
	Players            []string
	Teams              *ByTeam[[]string]
	TeamNames          *ByTeam[string]
	Papelitos          []Papelito
	CurrentRound       *int
	CurrentTeam        *Team
	CurrentPlayerIndex *int
	Scores             *ByTeam[int]
	RoundPools         map[int][]Papelito
	GuessedInRound     []string
}

// Apply shallow-merges p into a copy of s.
func (s GameState) Apply(p Patch) GameState {
	next := s.Clone()
	if p.Screen != nil {
		next.Screen = *p.Screen
	}
	if p.Config != nil {
		next.Config = *p.Config
	}
	if p.Players != nil {
		next.Players = slices.Clone(p.Players)
	}
	if p.Teams != nil {
		next.Teams = ByTeam[[]string]{A: slices.Clone(p.Teams.A), B: slices.Clone(p.Teams.B)}
	}
	if p.TeamNames != nil {
		next.TeamNames = *p.TeamNames
	}
	if p.Papelitos != nil {
		next.Papelitos = clonePapelitos(p.Papelitos)
	}
	if p.CurrentRound != nil {
		next.CurrentRound = *p.CurrentRound
	}
	if p.CurrentTeam != nil {
		next.CurrentTeam = *p.CurrentTeam
	}
	if p.CurrentPlayerIndex != nil {
		next.CurrentPlayerIndex = *p.CurrentPlayerIndex
	}
	if p.Scores != nil {
		next.Scores = *p.Scores
	}
	if p.RoundPools != nil {
		next.RoundPools = make(map[int][]Papelito, len(p.RoundPools))
		for round, pool := range p.RoundPools {
			next.RoundPools[round] = clonePapelitos(pool)
		}
	}
	if p.GuessedInRound != nil {
		next.GuessedInRound = slices.Clone(p.GuessedInRound)
	}
	return next
}

// Outcome is the result of comparing the two scores.
type Outcome struct {
	Winner Team `json:"winner,omitempty"`
	Draw   bool `json:"draw"`
}

// Leader compares scores strictly; equal scores are a draw.
func Leader(scores ByTeam[int]) Outcome {
	switch {
	case scores.A > scores.B:
		return Outcome{Winner: TeamA}
	case scores.B > scores.A:
		return Outcome{Winner: TeamB}
	default:
		return Outcome{Draw: true}
	}
}

func ptr[T any](v T) *T {
	return &v
}
