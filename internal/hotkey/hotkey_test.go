package hotkey

import "testing"

func TestParseRoundTrip(t *testing.T) {
	for _, c := range Commands() {
		got, ok := Parse(c.String())
		if !ok || got != c {
			t.Errorf("Parse(%q) = %v, %v; want %v", c.String(), got, ok, c)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "self-destruct", "toggle"} {
		if _, ok := Parse(s); ok {
			t.Errorf("Parse(%q) accepted an unknown command", s)
		}
	}
}

func TestKeymapCoversEveryCommand(t *testing.T) {
	for _, goos := range []string{"windows", "darwin", "linux"} {
		km := Keymap(goos)
		for _, c := range Commands() {
			if km[c] == "" {
				t.Errorf("Keymap(%q) missing binding for %s", goos, c)
			}
		}
	}
}

func TestDarwinUsesCmdChords(t *testing.T) {
	km := Keymap("darwin")
	if km[CmdToggleHide] != "cmd+shift+h" {
		t.Errorf("darwin hide binding = %q, want cmd+shift+h", km[CmdToggleHide])
	}
	if km := Keymap("windows"); km[CmdToggleHide] != "alt+shift+h" {
		t.Errorf("windows hide binding = %q, want alt+shift+h", km[CmdToggleHide])
	}
}

func TestLabel(t *testing.T) {
	if got := Label("windows", CmdToggleHide); got != "Alt+Shift+H" {
		t.Errorf("Label = %q, want Alt+Shift+H", got)
	}
	if got := Label("darwin", CmdQuit); got != "Cmd+Shift+Q" {
		t.Errorf("Label = %q, want Cmd+Shift+Q", got)
	}
}
