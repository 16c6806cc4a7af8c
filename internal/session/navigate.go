package session

// GoToMove moves the cursor to ply index i, clamped to [-1, len-1], and
// returns the new cursor. Nothing but the cursor changes.
func (s *Session) GoToMove(i int) int {
	return s.navigate(func(int) int { return i })
}

func (s *Session) GoToStart() int {
	return s.navigate(func(int) int { return -1 })
}

func (s *Session) GoToEnd() int {
	return s.navigate(func(int) int { return len(s.moves) - 1 })
}

func (s *Session) GoToNext() int {
	return s.navigate(func(cur int) int { return cur + 1 })
}

func (s *Session) GoToPrevious() int {
	return s.navigate(func(cur int) int { return cur - 1 })
}

// navigate applies target to the cursor under the lock
func (s *Session) navigate(target func(cursor int) int) int {
	s.mu.Lock()
	var fx effects
	i := target(s.cursor)
	if i < -1 {
		i = -1
	}
	if last := len(s.moves) - 1; i > last {
		i = last
	}
	if i != s.cursor {
		s.cursor = i
		s.touchLocked(&fx)
	}
	cursor := s.cursor
	s.unlockAndFlush(&fx)
	return cursor
}
