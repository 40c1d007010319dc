// Package papelito implements the rules of Papelito, a party game for two
// teams sharing one device.
//
// Each player writes a few papelitos: an answer plus three forbidden words
// that may not be said while describing it (easy mode drops the forbidden
// words). All papelitos go into one pool, which is used three times:
//
// - Round 1: describe the answer freely, without saying it or a forbidden word
// - Round 2: a single word per papelito
// - Round 3: mime only, no sounds
//
// Teams alternate timed turns. The clue giver draws from the pool while
// teammates guess; every correct guess scores a point and leaves the pool
// until the next round. When the pool runs dry the round ends, and the clue
// giver keeps any time left for the start of the next round. After round 3
// the team with more points wins; equal scores are a draw.
package papelito
