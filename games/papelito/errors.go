package papelito

import "fmt"

// Kind groups errors by how the caller is expected to recover.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConfiguration Kind = "configuration"
	KindPersistence   Kind = "persistence"
	KindInvariant     Kind = "invariant"
)

// Error is the engine's error type. Two errors match under errors.Is when
// their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func wrapError(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: base.Message, Cause: cause}
}

// Papelito submission.
var (
	ErrMissingAnswer          = newError(KindValidation, "missing_answer", "missing answer")
	ErrIncompleteRestrictions = newError(KindValidation, "incomplete_restrictions", "incomplete restrictions")
	ErrDuplicateRestriction   = newError(KindValidation, "duplicate_restriction", "duplicate restriction")
	ErrRestrictionIsAnswer    = newError(KindValidation, "restriction_equals_answer", "restriction equals answer")
	ErrQuotaExceeded          = newError(KindValidation, "quota_exceeded", "quota exceeded")
)

// Match setup.
var (
	ErrMissingPlayerName   = newError(KindConfiguration, "missing_player_name", "player name is required")
	ErrDuplicatePlayer     = newError(KindConfiguration, "duplicate_player", "player already exists")
	ErrUnknownPlayer       = newError(KindConfiguration, "unknown_player", "player is not on the roster")
	ErrNotEnoughPlayers    = newError(KindConfiguration, "not_enough_players", "not enough players")
	ErrInvalidTurnTime     = newError(KindConfiguration, "invalid_turn_time", "turn time must be positive")
	ErrInvalidQuota        = newError(KindConfiguration, "invalid_quota", "papelitos per player must be positive")
	ErrEmptyTeam           = newError(KindConfiguration, "empty_team", "both teams need at least one player")
	ErrUnassignedPlayer    = newError(KindConfiguration, "unassigned_player", "every player must be on a team")
	ErrDuplicateAssignment = newError(KindConfiguration, "duplicate_assignment", "player assigned more than once")
	ErrPapelitosMissing    = newError(KindConfiguration, "papelitos_missing", "player has not written every papelito")
)

// Storage.
var (
	ErrPersistSave   = newError(KindPersistence, "persist_save", "could not save game state")
	ErrPersistLoad   = newError(KindPersistence, "persist_load", "could not load game state")
	ErrPersistDelete = newError(KindPersistence, "persist_delete", "could not delete game state")
)

// Guards against actions that do not apply to the current state.
var (
	ErrWrongScreen       = newError(KindInvariant, "wrong_screen", "action not available on this screen")
	ErrPapelitoNotInPool = newError(KindInvariant, "papelito_not_in_pool", "papelito is not in the current pool")
	ErrClockNotRunning   = newError(KindInvariant, "clock_not_running", "turn clock is not running")
	ErrTurnOver          = newError(KindInvariant, "turn_over", "turn time is up")
)
