package state

// CreateWallet registers the address with the node. It returns false when
// the address is already known. No balance is created.
func (s *State) CreateWallet(address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.wallets.Create(address)
	if err != nil {
		return false, err
	}

	if created {
		s.evHandler("viewer: wallet created: address[%s]", address)
	}

	return created, nil
}
