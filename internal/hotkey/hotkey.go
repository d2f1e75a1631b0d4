// Package hotkey defines the global command set and its per-OS key
// bindings, and installs an OS-level listener where one is available.
package hotkey

import "strings"

// Command is an action a hotkey or overlay control can trigger.
type Command int

const (
	CmdUnknown Command = iota
	CmdToggleListen
	CmdToggleSmart
	CmdToggleHide
	CmdClearAnswers
	CmdUploadResume
	CmdQuit
)

var commandNames = map[Command]string{
	CmdToggleListen: "toggle-listen",
	CmdToggleSmart:  "toggle-smart",
	CmdToggleHide:   "toggle-hide",
	CmdClearAnswers: "clear-answers",
	CmdUploadResume: "upload-resume",
	CmdQuit:         "quit",
}

func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "unknown"
}

// Parse maps a wire command name to its Command. The second return is
// false for names outside the known set.
func Parse(s string) (Command, bool) {
	for c, name := range commandNames {
		if name == strings.ToLower(strings.TrimSpace(s)) {
			return c, true
		}
	}
	return CmdUnknown, false
}

// Commands lists every dispatchable command in a stable order.
func Commands() []Command {
	return []Command{
		CmdToggleListen, CmdToggleSmart, CmdToggleHide,
		CmdClearAnswers, CmdUploadResume, CmdQuit,
	}
}

// Keymap returns the binding table for a GOOS value. macOS uses
// Cmd+Shift chords; everything else uses Alt+Shift, which stays clear
// of common editor shortcuts.
func Keymap(goos string) map[Command]string {
	prefix := "alt+shift+"
	if goos == "darwin" {
		prefix = "cmd+shift+"
	}
	return map[Command]string{
		CmdToggleListen: prefix + "l",
		CmdToggleSmart:  prefix + "s",
		CmdToggleHide:   prefix + "h",
		CmdClearAnswers: prefix + "c",
		CmdUploadResume: prefix + "u",
		CmdQuit:         prefix + "q",
	}
}

// Label renders a binding for status text, e.g. "Alt+Shift+H".
func Label(goos string, c Command) string {
	spec, ok := Keymap(goos)[c]
	if !ok {
		return ""
	}
	parts := strings.Split(spec, "+")
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "+")
}
