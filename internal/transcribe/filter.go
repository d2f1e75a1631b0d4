package transcribe

import "strings"

// noiseWords are common ASR hallucinations from background noise.
var noiseWords = map[string]bool{
	"crunching": true, "static": true, "silence": true, "noise": true,
	"inaudible": true, "unintelligible": true, "background noise": true,
	"music": true, "typing": true, "breathing": true, "sigh": true,
	"cough": true, "sneeze": true, "laughter": true, "applause": true,
	"you": true, "the": true, "a": true, "um": true, "uh": true,
	"hmm": true, "ah": true, "oh": true, "mhm": true, "thank you": true,
}

// IsNoise reports whether a transcript is likely a hallucination
// rather than a question worth answering.
func IsNoise(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return true
	}
	// Wrapped annotations like *crunching*, [inaudible], (music).
	if strings.HasPrefix(text, "*") && strings.HasSuffix(text, "*") {
		return true
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		return true
	}
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		return true
	}
	return noiseWords[strings.ToLower(strings.TrimSuffix(text, "."))]
}
