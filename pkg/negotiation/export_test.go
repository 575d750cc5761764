package negotiation

// Tick fires the pending countdown tick the way its timer would.
func (s *Session) Tick() {
	s.lock.Lock()
	generation := s.generation
	s.lock.Unlock()
	s.tick(generation)
}

// TickStale fires a tick left over from a cancelled countdown.
func (s *Session) TickStale() {
	s.lock.Lock()
	generation := s.generation - 1
	s.lock.Unlock()
	s.tick(generation)
}
