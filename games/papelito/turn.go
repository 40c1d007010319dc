package papelito

// NextTurn hands play to the other team. Team A's pointer moves on each time
// play comes back from B; going from A to B reuses the pointer, wrapped to
// B's roster. Pools and scores are left alone.
func NextTurn(s GameState) GameState {
	next := s.Clone()

	to := s.CurrentTeam.Other()
	index := s.CurrentPlayerIndex
	if to == TeamA {
		index++
	}

	size := len(next.Teams.Get(to))
	if size == 0 || index < 0 {
		index = 0
	} else {
		index %= size
	}

	next.CurrentTeam = to
	next.CurrentPlayerIndex = index

	return next
}
