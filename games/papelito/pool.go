package papelito

import (
	"math/rand/v2"
	"slices"
)

// IntN returns a uniform random int in [0, n).
type IntN func(n int) int

// Shuffle permutes in place with Fisher-Yates.
func Shuffle[T any](items []T, intn IntN) {
	if intn == nil {
		intn = rand.IntN
	}
	for i := len(items) - 1; i > 0; i-- {
		j := intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// StartRound fills the current round's pool with a fresh permutation of
// every papelito in the game, regardless of earlier rounds.
func StartRound(s GameState, intn IntN) GameState {
	next := s.Clone()

	pool := clonePapelitos(s.Papelitos)
	if pool == nil {
		pool = []Papelito{}
	}
	Shuffle(pool, intn)

	next.RoundPools[next.CurrentRound] = pool
	next.GuessedInRound = []string{}

	return next
}

// MarkGuessed removes id from the current pool and scores a point for the
// current team. It reports false and leaves s unchanged if id is not in the
// pool.
func MarkGuessed(s GameState, id string) (GameState, bool) {
	i := indexOf(s.Pool(), id)
	if i < 0 {
		return s, false
	}

	next := s.Clone()
	next.RoundPools[next.CurrentRound] = slices.Delete(next.Pool(), i, i+1)
	next.Scores.Set(next.CurrentTeam, next.Scores.Get(next.CurrentTeam)+1)
	next.GuessedInRound = append(next.GuessedInRound, id)

	return next, true
}

// MarkFoul sends id to the back of the current pool. The papelito stays
// unguessed and nobody scores.
func MarkFoul(s GameState, id string) (GameState, bool) {
	i := indexOf(s.Pool(), id)
	if i < 0 {
		return s, false
	}

	next := s.Clone()
	pool := next.Pool()
	p := pool[i]
	pool = slices.Delete(pool, i, i+1)
	next.RoundPools[next.CurrentRound] = append(pool, p)

	return next, true
}

// PoolExhausted reports whether the current round has nothing left to guess.
func PoolExhausted(s GameState) bool {
	return len(s.Pool()) == 0
}

func indexOf(pool []Papelito, id string) int {
	return slices.IndexFunc(pool, func(p Papelito) bool {
		return p.ID == id
	})
}
