package stake

import "stakevault/core/events"

// checkDistributor gates reward deposits behind the allow-list when the
// feature is enabled. A disabled list admits any sender.
func (e *Engine) checkDistributor(sender [20]byte) error {
	enabled, err := e.state.DistributorsEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}
	distributors, err := e.state.Distributors()
	if err != nil {
		return err
	}
	for _, addr := range distributors {
		if addr == sender {
			return nil
		}
	}
	return ErrNotDistributor
}

// SetDistributors replaces the distributor allow-list.
func (e *Engine) SetDistributors(caller [20]byte, distributors [][20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	deduped := dedupeAddrs(distributors)
	if err := e.state.SetDistributors(deduped); err != nil {
		return err
	}
	enabled, err := e.state.DistributorsEnabled()
	if err != nil {
		return err
	}
	e.emit(events.StakeDistributorsUpdated{Count: len(deduped), Enabled: enabled})
	return nil
}

// AddDistributors extends the distributor allow-list.
func (e *Engine) AddDistributors(caller [20]byte, distributors [][20]byte) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	existing, err := e.state.Distributors()
	if err != nil {
		return err
	}
	merged := dedupeAddrs(append(existing, distributors...))
	if err := e.state.SetDistributors(merged); err != nil {
		return err
	}
	enabled, err := e.state.DistributorsEnabled()
	if err != nil {
		return err
	}
	e.emit(events.StakeDistributorsUpdated{Count: len(merged), Enabled: enabled})
	return nil
}

// SetDistributorsStatus toggles allow-list enforcement for reward deposits.
func (e *Engine) SetDistributorsStatus(caller [20]byte, enabled bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.state.SetDistributorsEnabled(enabled); err != nil {
		return err
	}
	distributors, err := e.state.Distributors()
	if err != nil {
		return err
	}
	e.emit(events.StakeDistributorsUpdated{Count: len(distributors), Enabled: enabled})
	return nil
}

func dedupeAddrs(addrs [][20]byte) [][20]byte {
	seen := make(map[[20]byte]struct{}, len(addrs))
	out := make([][20]byte, 0, len(addrs))
	for _, addr := range addrs {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
