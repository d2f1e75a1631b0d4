package transcribe

import "testing"

func TestMergeOverlap(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		next     string
		want     string
	}{
		{"empty existing", "", "tell me about go", "tell me about go"},
		{"empty next", "tell me about go", "", "tell me about go"},
		{"next contained", "tell me about go routines", "about go", "tell me about go routines"},
		{"existing contained", "about go", "tell me about go routines", "tell me about go routines"},
		{"suffix prefix overlap", "describe your last pro", "last project please", "describe your last project please"},
		{"no overlap joins with space", "first question", "second question", "first question second question"},
		{"whitespace trimmed", "  hello there ", "  there friend ", "hello there friend"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := MergeOverlap(c.existing, c.next); got != c.want {
				t.Errorf("MergeOverlap(%q, %q) = %q, want %q", c.existing, c.next, got, c.want)
			}
		})
	}
}

func TestIsNoise(t *testing.T) {
	noisy := []string{"", "  ", "*crunching*", "[BLANK_AUDIO]", "(music)", "you", "Thank you.", "um", "MHM"}
	for _, s := range noisy {
		if !IsNoise(s) {
			t.Errorf("IsNoise(%q) = false, want true", s)
		}
	}
	clean := []string{"what is a goroutine", "Tell me about your experience with Kubernetes.", "you said earlier that"}
	for _, s := range clean {
		if IsNoise(s) {
			t.Errorf("IsNoise(%q) = true, want false", s)
		}
	}
}
