// Package ui delivers session state to the overlay window and relays
// its controls back. The overlay itself is a separate process; this
// side only speaks the event protocol.
package ui

// Event is one overlay update frame.
type Event struct {
	Type     string `json:"type"`
	Seq      uint64 `json:"seq,omitempty"`
	Text     string `json:"text,omitempty"`
	Question string `json:"question,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	Credits  int    `json:"credits,omitempty"`
	// UntilNext is how many more answers complete the current credit.
	UntilNext int `json:"until_next,omitempty"`
}

// Event types.
const (
	EventStatus  = "status"
	EventSpeech  = "speech"
	EventAnswer  = "answer"
	EventClear   = "clear"
	EventCredits = "credits"
	EventHidden  = "hidden"
	EventRaise   = "raise"
)

// Surface is everything the session can show. Implementations must be
// safe for concurrent use; a nil-receiver no-op is not provided, so
// callers always pass something, if only a discard implementation.
type Surface interface {
	// Status shows a transient status line.
	Status(text string)
	// Speech toggles the speech activity indicator.
	Speech(active bool)
	// Answer appends one answered question in sequence order.
	Answer(seq uint64, question, text string)
	// ClearAnswers empties the answer list.
	ClearAnswers()
	// Credits updates the balance display.
	Credits(balance, untilNext int)
	// Hidden reflects overlay visibility.
	Hidden(hidden bool)
	// Raise asks the overlay to bring itself to the foreground. Sent
	// exactly once per hidden-to-visible transition.
	Raise()
}

// Discard is a Surface that drops everything, for headless runs.
type Discard struct{}

func (Discard) Status(string)                 {}
func (Discard) Speech(bool)                   {}
func (Discard) Answer(uint64, string, string) {}
func (Discard) ClearAnswers()                 {}
func (Discard) Credits(int, int)              {}
func (Discard) Hidden(bool)                   {}
func (Discard) Raise()                        {}
