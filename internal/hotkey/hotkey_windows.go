//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"strings"
	"syscall"
	"time"
	"unsafe"
)

const (
	modAlt   = 0x0001
	modCtrl  = 0x0002
	modShift = 0x0004
	modWin   = 0x0008

	wmHotkey = 0x0312
)

// Listen registers the global keymap with the OS and invokes handler
// with the matching Command on every chord press. The message pump
// runs on a locked OS thread for the life of the process.
func Listen(keymap map[Command]string, handler func(Command)) error {
	type def struct {
		cmd Command
		mod uint32
		vk  uint32
	}
	defs := make([]def, 0, len(keymap))
	for cmd, spec := range keymap {
		mod, vk, err := parseChord(spec)
		if err != nil {
			return fmt.Errorf("hotkey %s (%q): %w", cmd, spec, err)
		}
		defs = append(defs, def{cmd: cmd, mod: mod, vk: vk})
	}

	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		user32 := syscall.NewLazyDLL("user32.dll")
		procRegisterHotKey := user32.NewProc("RegisterHotKey")
		procUnregisterHotKey := user32.NewProc("UnregisterHotKey")
		procGetMessageW := user32.NewProc("GetMessageW")

		byID := make(map[int]Command, len(defs))
		for i, d := range defs {
			id := i + 1
			r, _, _ := procRegisterHotKey.Call(0, uintptr(id), uintptr(d.mod), uintptr(d.vk))
			if r == 0 {
				for regID := 1; regID < id; regID++ {
					procUnregisterHotKey.Call(0, uintptr(regID))
				}
				errCh <- fmt.Errorf("RegisterHotKey failed for %s", d.cmd)
				return
			}
			byID[id] = d.cmd
		}
		errCh <- nil

		var msg struct {
			Hwnd    uintptr
			Message uint32
			WParam  uintptr
			LParam  uintptr
			Time    uint32
			PtX     int32
			PtY     int32
		}
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				return
			}
			if msg.Message == wmHotkey {
				if cmd, ok := byID[int(msg.WParam)]; ok {
					handler(cmd)
				}
			}
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		return fmt.Errorf("timeout registering hotkeys")
	}
}

// parseChord accepts specs like "alt+shift+h" and returns the Win32
// modifier mask and virtual-key code.
func parseChord(spec string) (uint32, uint32, error) {
	parts := strings.Split(strings.ToLower(spec), "+")
	if len(parts) == 0 {
		return 0, 0, fmt.Errorf("empty chord")
	}
	var mod uint32
	for _, p := range parts[:len(parts)-1] {
		switch strings.TrimSpace(p) {
		case "alt":
			mod |= modAlt
		case "ctrl", "control":
			mod |= modCtrl
		case "shift":
			mod |= modShift
		case "win", "cmd", "meta", "super":
			mod |= modWin
		default:
			return 0, 0, fmt.Errorf("unknown modifier %q", p)
		}
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	if len(key) != 1 {
		return 0, 0, fmt.Errorf("unsupported key %q", key)
	}
	ch := key[0]
	switch {
	case ch >= 'a' && ch <= 'z':
		return mod, uint32(ch - 'a' + 'A'), nil
	case ch >= '0' && ch <= '9':
		return mod, uint32(ch), nil
	}
	return 0, 0, fmt.Errorf("unsupported key %q", key)
}
