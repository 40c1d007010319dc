package papelito

type EventType string

const (
	EventRoundStarted    EventType = "round-started"
	EventTurnStarted     EventType = "turn-started"
	EventTurnTick        EventType = "turn-tick"
	EventTurnTimeout     EventType = "turn-timeout"
	EventPapelitoCorrect EventType = "papelito-correct"
	EventPapelitoFoul    EventType = "papelito-foul"
	EventRoundComplete   EventType = "round-complete"
	EventGameComplete    EventType = "game-complete"
)

// Event tells the presentation layer that something happened. Only the
// fields relevant to Type are set.
type Event struct {
	Type       EventType `json:"type"`
	Round      int       `json:"round,omitempty"`
	Team       Team      `json:"team,omitempty"`
	PapelitoID string    `json:"papelitoId,omitempty"`
	Points     int       `json:"points,omitempty"`
	Remaining  int       `json:"remaining,omitempty"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
}
