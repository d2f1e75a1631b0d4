//go:build !windows

package hotkey

import "errors"

// ErrUnsupported reports that no OS-level hotkey listener exists for
// this platform. The overlay socket remains the command source.
var ErrUnsupported = errors.New("global hotkeys not supported on this platform")

// Listen is not supported on non-Windows builds.
func Listen(keymap map[Command]string, handler func(Command)) error {
	return ErrUnsupported
}
