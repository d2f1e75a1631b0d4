package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/liveinsight/companion/internal/answer"
	"github.com/liveinsight/companion/internal/audio"
	"github.com/liveinsight/companion/internal/backend"
	"github.com/liveinsight/companion/internal/hotkey"
	"github.com/liveinsight/companion/internal/metrics"
	"github.com/liveinsight/companion/internal/platform"
	"github.com/liveinsight/companion/internal/trace"
	"github.com/liveinsight/companion/internal/transcribe"
	"github.com/liveinsight/companion/internal/ui"
)

// creditsTimeout bounds credit balance and consume calls, which must
// never hold up answer delivery for long.
const creditsTimeout = 8 * time.Second

// defaultHistoryLimit caps the conversation turns sent as context.
const defaultHistoryLimit = 6

// defaultResumeMaxBytes caps uploaded resume files.
const defaultResumeMaxBytes = 10 << 20

// Transcriber is the transcription service surface the controller
// needs.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, engine string) (*transcribe.Result, error)
}

// Answerer resolves one question into a terminal result.
type Answerer interface {
	Answer(ctx context.Context, question string, smart bool, resume string, history []backend.Turn) answer.Result
}

// CreditService is the remote side of credit accounting.
type CreditService interface {
	CreditBalance(ctx context.Context) (int, error)
	ConsumeCredit(ctx context.Context) (int, error)
}

// Config wires the controller's collaborators.
type Config struct {
	// OpenCapture is called on each listen start so a failed device
	// can recover on the next toggle.
	OpenCapture func() (audio.Capture, error)
	Transcriber Transcriber
	// Engine names the transcription engine to route to.
	Engine  string
	Answers Answerer
	Meter   *answer.Meter
	Credits CreditService
	Surface ui.Surface
	Profile platform.Profile
	// GOOS selects hotkey labels in status text.
	GOOS   string
	Tracer *trace.Tracer
	Dumper *audio.Dumper

	HistoryLimit   int
	ResumeMaxBytes int64
}

// event is one entry in the controller's single ordered queue.
type event any

type cmdEvent struct {
	cmd  hotkey.Command
	path string
}

type utteranceEvent struct {
	u *audio.Utterance
}

type speechEvent struct {
	active bool
}

type resultEvent struct {
	seq      uint64
	question string
	res      answer.Result
	traceID  string
	started  time.Time
}

type creditEvent struct {
	balance int
	err     error
}

type captureClosedEvent struct{}

// Controller runs the session. All fields below inbox are owned by
// the Run goroutine and must not be touched elsewhere.
type Controller struct {
	cfg   Config
	inbox chan event

	state       State
	smart       bool
	hidden      bool
	resume      string
	history     []backend.Turn
	nextSeq     uint64
	outstanding int
	delivery    *deliveryBuffer

	capture     audio.Capture
	pipeCtx     context.Context
	stopCapture context.CancelFunc

	// creditFetch is set while a balance refresh is in flight so a
	// burst of blocked questions issues only one.
	creditFetch bool
}

// New builds a controller. Run must be called before Dispatch has any
// effect.
func New(cfg Config) *Controller {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	if cfg.ResumeMaxBytes <= 0 {
		cfg.ResumeMaxBytes = defaultResumeMaxBytes
	}
	return &Controller{
		cfg:      cfg,
		inbox:    make(chan event, 128),
		nextSeq:  1,
		delivery: newDeliveryBuffer(1),
	}
}

// Dispatch enqueues a command from a hotkey or the overlay. Safe for
// concurrent use. The send never blocks: once Run has returned nobody
// drains the inbox, and a hotkey caller must not hang on a dead loop.
func (c *Controller) Dispatch(cmd hotkey.Command, path string) {
	select {
	case c.inbox <- cmdEvent{cmd: cmd, path: path}:
	default:
		slog.Warn("command dropped, session queue full", "cmd", cmd.String())
	}
}

// Run executes the session loop until a quit command or context
// cancellation. It owns every piece of session state.
func (c *Controller) Run(ctx context.Context) error {
	c.reconcileAtStart(ctx)
	c.cfg.Surface.Status(c.idleStatus())

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case ev := <-c.inbox:
			if quit := c.handle(ctx, ev); quit {
				c.shutdown()
				return nil
			}
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev event) (quit bool) {
	switch ev := ev.(type) {
	case cmdEvent:
		return c.handleCommand(ctx, ev)
	case utteranceEvent:
		c.handleUtterance(ev.u)
	case speechEvent:
		c.cfg.Surface.Speech(ev.active)
	case resultEvent:
		c.handleResult(ctx, ev)
	case creditEvent:
		c.handleCredit(ev)
	case captureClosedEvent:
		if c.state != StateIdle {
			slog.Warn("capture stream closed unexpectedly")
			c.stopListening()
			c.cfg.Surface.Status("Microphone stopped. " + c.idleStatus())
		}
	}
	return false
}

func (c *Controller) handleCommand(ctx context.Context, ev cmdEvent) (quit bool) {
	slog.Info("command", "cmd", ev.cmd.String(), "state", c.state.String())
	switch ev.cmd {
	case hotkey.CmdToggleListen:
		if c.state == StateIdle {
			c.startListening(ctx)
		} else {
			c.stopListening()
			c.cfg.Surface.Status(c.idleStatus())
		}
	case hotkey.CmdToggleSmart:
		c.toggleSmart()
	case hotkey.CmdToggleHide:
		c.toggleHide()
	case hotkey.CmdClearAnswers:
		c.history = nil
		c.cfg.Surface.ClearAnswers()
		c.cfg.Surface.Status("Answers cleared.")
	case hotkey.CmdUploadResume:
		c.loadResume(ev.path)
	case hotkey.CmdQuit:
		return true
	}
	return false
}

func (c *Controller) toggleSmart() {
	if !c.smart && c.resume == "" {
		c.cfg.Surface.Status("Smart answers need a resume. Press " +
			hotkey.Label(c.cfg.GOOS, hotkey.CmdUploadResume) + " to upload one.")
		return
	}
	c.smart = !c.smart
	if c.smart {
		c.cfg.Surface.Status("Smart answers on: resume-grounded first.")
	} else {
		c.cfg.Surface.Status("Smart answers off.")
	}
}

func (c *Controller) toggleHide() {
	c.hidden = !c.hidden
	c.cfg.Surface.Hidden(c.hidden)
	if c.hidden {
		c.cfg.Surface.Status("Window hidden. Press " +
			hotkey.Label(c.cfg.GOOS, hotkey.CmdToggleHide) + " to show.")
		return
	}
	// One raise per hidden-to-visible transition, no matter how the
	// window manager reacts.
	c.cfg.Surface.Raise()
	c.cfg.Surface.Status(c.statusForState())
}

func (c *Controller) loadResume(path string) {
	if path == "" {
		c.cfg.Surface.Status("No resume file selected.")
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		c.cfg.Surface.Status("Could not read resume: " + err.Error())
		return
	}
	if info.Size() > c.cfg.ResumeMaxBytes {
		c.cfg.Surface.Status(fmt.Sprintf("Resume too large (%d KB, limit %d KB).",
			info.Size()/1024, c.cfg.ResumeMaxBytes/1024))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.cfg.Surface.Status("Could not read resume: " + err.Error())
		return
	}
	c.resume = string(data)
	slog.Info("resume loaded", "path", path, "bytes", len(data))
	// Loading never flips smart mode; that stays an explicit choice.
	c.cfg.Surface.Status(fmt.Sprintf("Resume loaded (%d KB).", (len(data)+1023)/1024))
}

func (c *Controller) startListening(ctx context.Context) {
	capt, err := c.cfg.OpenCapture()
	if err != nil {
		metrics.Errors.WithLabelValues("capture", "open").Inc()
		slog.Error("open capture", "error", err)
		c.cfg.Surface.Status("Microphone unavailable: " + err.Error())
		return
	}

	pipeCtx, cancel := context.WithCancel(ctx)
	frames, err := capt.Start(pipeCtx)
	if err != nil {
		cancel()
		capt.Close()
		metrics.Errors.WithLabelValues("capture", "start").Inc()
		slog.Error("start capture", "error", err)
		c.cfg.Surface.Status("Microphone unavailable: " + err.Error())
		return
	}

	c.capture = capt
	c.pipeCtx = pipeCtx
	c.stopCapture = cancel
	c.state = StateListening
	metrics.Listening.Set(1)
	go c.pump(frames)

	slog.Info("listening started",
		"threshold_db", c.cfg.Profile.EnergyThresholdDB,
		"pause", c.cfg.Profile.Pause,
		"tier", c.cfg.Profile.Tier)
	c.cfg.Surface.Status("Listening...")
}

// pump runs off-loop: it classifies and assembles frames, forwarding
// only compact events into the inbox.
func (c *Controller) pump(frames <-chan audio.Frame) {
	detector := audio.NewDetector(c.cfg.Profile.EnergyThresholdDB)
	assembler := audio.NewAssembler(audio.SegmentConfig{
		Pause:        c.cfg.Profile.Pause,
		MinSpeech:    c.cfg.Profile.MinSpeech,
		MaxUtterance: c.cfg.Profile.MaxUtterance,
		PreRoll:      300 * time.Millisecond,
	})

	speaking := false
	for f := range frames {
		class := detector.Classify(f)
		if active := class == audio.ClassSpeech; active != speaking {
			speaking = active
			c.inbox <- speechEvent{active: active}
		}
		if u := assembler.Process(f, class); u != nil {
			c.inbox <- utteranceEvent{u: u}
		}
	}
	// Frames closed: either a deliberate stop or a device failure.
	// Open partial segments are discarded with the assembler.
	if speaking {
		c.inbox <- speechEvent{active: false}
	}
	c.inbox <- captureClosedEvent{}
}

func (c *Controller) stopListening() {
	if c.state == StateIdle {
		return
	}
	c.stopCapture()
	if err := c.capture.Close(); err != nil {
		slog.Warn("close capture", "error", err)
	}
	c.capture = nil
	c.stopCapture = nil

	// Outstanding jobs were canceled with the pipeline context; their
	// late results must never surface.
	c.delivery.Reset(c.nextSeq)
	c.outstanding = 0
	metrics.AnswersQueued.Set(0)

	c.state = StateIdle
	metrics.Listening.Set(0)
	c.cfg.Surface.Speech(false)
	slog.Info("listening stopped")
}

func (c *Controller) handleUtterance(u *audio.Utterance) {
	if c.state == StateIdle {
		// Stale segment from a pump that raced the stop.
		return
	}

	seq := c.nextSeq
	c.nextSeq++
	metrics.Utterances.Inc()
	if u.Forced {
		metrics.UtterancesForced.Inc()
	}

	if path, err := c.cfg.Dumper.Dump(seq, u); err != nil {
		slog.Warn("dump utterance", "error", err)
	} else if path != "" {
		slog.Debug("utterance dumped", "path", path)
	}

	smart := c.smart && c.resume != ""
	resume := c.resume
	history := append([]backend.Turn(nil), c.history...)
	traceID := c.cfg.Tracer.StartQuestion(seq)

	c.state = StateAwaitingAnswer
	c.outstanding++
	metrics.AnswersQueued.Inc()
	c.cfg.Surface.Status("Heard you. Working on an answer...")

	slog.Info("utterance captured", "seq", seq,
		"duration", u.Duration(), "speech", u.Speech, "forced", u.Forced)

	// Jobs run under the pipeline context: stopping listening cancels
	// everything still in flight.
	go c.answerJob(c.pipeCtx, seq, u, smart, resume, history, traceID)
}

// answerJob runs one question to its terminal result off-loop. The
// result always comes back through the inbox, never directly.
func (c *Controller) answerJob(ctx context.Context, seq uint64, u *audio.Utterance, smart bool, resume string, history []backend.Turn, traceID string) {
	started := time.Now()

	tr, err := c.cfg.Transcriber.Transcribe(ctx, u.Samples, c.cfg.Engine)
	if err != nil {
		metrics.Errors.WithLabelValues("transcribe", "request").Inc()
		c.cfg.Tracer.RecordStage(traceID, "transcribe", started,
			float64(time.Since(started).Milliseconds()), "", "", "error", err.Error())
		c.inbox <- resultEvent{seq: seq, res: answer.Fail(answer.FailTranscription), traceID: traceID, started: started}
		return
	}
	question := strings.TrimSpace(tr.Text)
	c.cfg.Tracer.RecordStage(traceID, "transcribe", started, tr.LatencyMs, "", question, "ok", "")

	if question == "" {
		c.inbox <- resultEvent{seq: seq, res: answer.Fail(answer.FailTranscription), traceID: traceID, started: started}
		return
	}
	if transcribe.IsNoise(question) {
		metrics.TranscriptsFiltered.Inc()
		c.inbox <- resultEvent{seq: seq, question: question, res: answer.Result{Kind: answer.KindFailed, Code: answer.FailFiltered}, traceID: traceID, started: started}
		return
	}

	askStart := time.Now()
	res := c.cfg.Answers.Answer(ctx, question, smart, resume, history)
	c.cfg.Tracer.RecordStage(traceID, "answer", askStart,
		float64(time.Since(askStart).Milliseconds()), question, res.Text, res.Kind.String(), string(res.Code))

	c.inbox <- resultEvent{seq: seq, question: question, res: res, traceID: traceID, started: started}
}

func (c *Controller) handleResult(ctx context.Context, ev resultEvent) {
	if c.outstanding > 0 {
		c.outstanding--
		metrics.AnswersQueued.Dec()
	}

	c.cfg.Tracer.FinishQuestion(ev.traceID,
		float64(time.Since(ev.started).Milliseconds()),
		ev.question, ev.res.Text, string(ev.res.Mode), ev.res.Kind.String())

	for _, o := range c.delivery.Add(outcome{seq: ev.seq, question: ev.question, res: ev.res}) {
		c.deliver(ctx, o)
	}

	if c.outstanding == 0 && c.state == StateAwaitingAnswer {
		c.state = StateListening
		c.cfg.Surface.Status("Listening...")
	}
}

func (c *Controller) deliver(ctx context.Context, o outcome) {
	switch o.res.Kind {
	case answer.KindSuccess:
		c.cfg.Surface.Answer(o.seq, o.question, o.res.Text)
		c.pushHistory(o.question, o.res.Text)
		if c.cfg.Meter.RecordSuccess() {
			metrics.CreditsConsumed.Inc()
			go c.consumeCredit(ctx)
		}
		c.cfg.Surface.Credits(c.cfg.Meter.Credits(), c.cfg.Meter.UntilNextCredit())
		metrics.CreditsRemaining.Set(float64(c.cfg.Meter.Credits()))
	case answer.KindBlocked:
		slog.Warn("answer blocked", "seq", o.seq, "reason", o.res.Reason)
		c.cfg.Surface.Status("Answer blocked: " + o.res.Reason)
		if o.res.Reason == answer.ReasonNoCredits && !c.creditFetch {
			// The local meter may just be stale (a failed startup
			// fetch); re-check the remote balance so it self-heals.
			c.creditFetch = true
			go c.refreshCredits(ctx)
		}
	case answer.KindFailed:
		c.surfaceFailure(o)
	}
}

func (c *Controller) surfaceFailure(o outcome) {
	switch o.res.Code {
	case answer.FailFiltered:
		// Background-noise hallucination; not worth an error banner.
		slog.Info("transcript filtered", "seq", o.seq, "text", o.question)
	case answer.FailTranscription:
		c.cfg.Surface.Status("Could not transcribe that. Please repeat.")
	case answer.FailTimeout:
		c.cfg.Surface.Status("Answer timed out. Ask again.")
	default:
		c.cfg.Surface.Status("Network error while answering. Ask again.")
	}
}

func (c *Controller) pushHistory(question, text string) {
	c.history = append(c.history, backend.Turn{Question: question, Answer: text})
	if len(c.history) > c.cfg.HistoryLimit {
		c.history = c.history[len(c.history)-c.cfg.HistoryLimit:]
	}
}

// consumeCredit spends one credit remotely; the authoritative balance
// comes back through the inbox.
func (c *Controller) consumeCredit(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, creditsTimeout)
	defer cancel()
	balance, err := c.cfg.Credits.ConsumeCredit(callCtx)
	c.inbox <- creditEvent{balance: balance, err: err}
}

// refreshCredits re-fetches the authoritative balance; used whenever a
// question is blocked on credits so a transient fetch failure cannot
// disable answering for the rest of the session.
func (c *Controller) refreshCredits(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, creditsTimeout)
	defer cancel()
	balance, err := c.cfg.Credits.CreditBalance(callCtx)
	c.inbox <- creditEvent{balance: balance, err: err}
}

func (c *Controller) handleCredit(ev creditEvent) {
	c.creditFetch = false
	if ev.err != nil {
		// Keep the local count; it reconciles on the next round trip.
		slog.Warn("credit consume failed", "error", ev.err)
		return
	}
	c.cfg.Meter.Reconcile(ev.balance)
	metrics.CreditsRemaining.Set(float64(ev.balance))
	c.cfg.Surface.Credits(c.cfg.Meter.Credits(), c.cfg.Meter.UntilNextCredit())
	if !c.cfg.Meter.CanSpend() {
		c.cfg.Surface.Status("No credits remaining. New questions will be blocked.")
	}
}

func (c *Controller) reconcileAtStart(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, creditsTimeout)
	defer cancel()
	balance, err := c.cfg.Credits.CreditBalance(callCtx)
	if err != nil {
		slog.Warn("initial credit fetch failed", "error", err)
		return
	}
	c.cfg.Meter.Reconcile(balance)
	metrics.CreditsRemaining.Set(float64(balance))
	c.cfg.Surface.Credits(c.cfg.Meter.Credits(), c.cfg.Meter.UntilNextCredit())
}

func (c *Controller) shutdown() {
	c.stopListening()
	slog.Info("session closed")
}

func (c *Controller) statusForState() string {
	switch c.state {
	case StateListening:
		return "Listening..."
	case StateAwaitingAnswer:
		return "Heard you. Working on an answer..."
	default:
		return c.idleStatus()
	}
}

func (c *Controller) idleStatus() string {
	return "Idle. Press " + hotkey.Label(c.cfg.GOOS, hotkey.CmdToggleListen) + " to listen."
}
