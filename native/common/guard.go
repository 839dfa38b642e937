package common

import "errors"

// ErrModulePaused is returned by Guard when a module's mutations are disabled.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a module's state transitions are currently
// suspended by governance.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects mutating operations for paused modules. A nil view or empty
// module name disables the check.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
