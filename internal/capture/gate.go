package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"
)

// ErrPermissionDenied is returned by Camera implementations when the device
// refuses access. The gate maps it to StatePermissionDenied instead of the
// generic StateError.
var ErrPermissionDenied = errors.New("camera permission denied")

// Camera is the device boundary. The gate needs frames and nothing else
// about the hardware.
type Camera interface {
	// Initialize acquires the device. Implementations return
	// ErrPermissionDenied, possibly wrapped, when access is refused.
	Initialize() error
	// AcquireFrame returns one still frame.
	AcquireFrame() (image.Image, error)
	// SetFlash toggles the device flash.
	SetFlash(enabled bool) error
}

// State identifies where a capture session is in its lifecycle.
type State string

const (
	StateUninitialized    State = "uninitialized"
	StateInitializing     State = "initializing"
	StateReady            State = "ready"
	StateCapturing        State = "capturing"
	StateProcessing       State = "processing"
	StateCaptured         State = "captured"
	StateError            State = "error"
	StatePermissionDenied State = "permission_denied"
)

// EventKind distinguishes the three notification types a gate emits.
type EventKind string

const (
	EventState    EventKind = "state"
	EventProgress EventKind = "progress"
	EventCapture  EventKind = "capture"
)

// Event is one gate notification. State events carry the new state and, for
// the failure states, a message; progress events carry the consecutive-good
// count; capture events carry the frame.
type Event struct {
	Kind        EventKind
	State       State
	Consecutive int
	Required    int
	Frame       image.Image
	Message     string
}

// Defaults for Config fields left at zero.
const (
	DefaultInterval           = 2 * time.Second
	DefaultRequiredGoodFrames = 3
	DefaultMinBrightness      = 50.0
	DefaultMinBlur            = 100.0
)

// Config tunes the gate. The zero value is usable.
type Config struct {
	Interval           time.Duration
	RequiredGoodFrames int
	MinBrightness      float64
	MinBlur            float64
	Scorer             Scorer
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.RequiredGoodFrames <= 0 {
		c.RequiredGoodFrames = DefaultRequiredGoodFrames
	}
	if c.MinBrightness <= 0 {
		c.MinBrightness = DefaultMinBrightness
	}
	if c.MinBlur <= 0 {
		c.MinBlur = DefaultMinBlur
	}
	return c
}

// Gate turns a stream of camera frames into a single capture decision. While
// auto-capture runs it samples and scores one frame per interval, counting
// consecutive acceptable frames; reaching the configured run length captures
// that frame exactly once and stops the timer. A bad frame resets the count
// to zero. Ticks that arrive while a cycle is still in flight are dropped,
// not queued.
type Gate struct {
	camera Camera
	cfg    Config

	mu          sync.Mutex
	state       State
	consecutive int
	generation  int
	sampling    bool
	closed      bool
	captured    image.Image
	lastErr     string
	stop        chan struct{}

	events chan Event
}

// NewGate wires a gate to a camera. Zero Config fields take the package
// defaults.
func NewGate(camera Camera, cfg Config) *Gate {
	return &Gate{
		camera: camera,
		cfg:    cfg.withDefaults(),
		state:  StateUninitialized,
		events: make(chan Event, 64),
	}
}

// Events returns the gate's notification channel. Delivery is best effort:
// when nobody drains the buffer, notifications are dropped in favor of the
// snapshot accessors.
func (g *Gate) Events() <-chan Event {
	return g.events
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Progress returns the consecutive-good count and the configured run length.
func (g *Gate) Progress() (consecutive, required int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.consecutive, g.cfg.RequiredGoodFrames
}

// LastError returns the message attached to the Error or PermissionDenied
// state, or empty.
func (g *Gate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastErr
}

// CapturedFrame returns the most recently captured frame, or nil. The frame
// is retained until the next reset.
func (g *Gate) CapturedFrame() image.Image {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captured
}

// Initialize acquires the camera, turns the flash off and moves the gate to
// Ready. A refused permission lands in PermissionDenied, any other failure in
// Error; both are terminal until Initialize is called again.
func (g *Gate) Initialize() error {
	g.mu.Lock()
	switch g.state {
	case StateInitializing, StateProcessing, StateCapturing:
		state := g.state
		g.mu.Unlock()
		return fmt.Errorf("cannot initialize while %s", state)
	}
	g.stopTimerLocked()
	g.setStateLocked(StateInitializing, "")
	g.mu.Unlock()

	if err := g.camera.Initialize(); err != nil {
		err = fmt.Errorf("initializing camera: %w", err)
		g.fail(err)
		return err
	}
	if err := g.camera.SetFlash(false); err != nil {
		err = fmt.Errorf("disabling flash: %w", err)
		g.fail(err)
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.consecutive = 0
	g.lastErr = ""
	g.setStateLocked(StateReady, "")
	return nil
}

// StartAutoCapture begins periodic sampling. It is a no-op when sampling is
// already running and an error when the gate is not Ready.
func (g *Gate) StartAutoCapture() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateReady {
		return fmt.Errorf("cannot start auto-capture while %s", g.state)
	}
	if g.stop != nil {
		return nil
	}
	stop := make(chan struct{})
	g.stop = stop
	go g.run(stop)
	return nil
}

// StopAutoCapture cancels periodic sampling and zeroes the consecutive-good
// count. An in-flight cycle finishes but its outcome is discarded.
func (g *Gate) StopAutoCapture() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopTimerLocked()
	g.generation++
	if g.consecutive != 0 {
		g.consecutive = 0
		g.emitProgressLocked()
	}
}

// ResetDetection zeroes the consecutive-good count, drops any retained frame
// and returns the gate to Ready so the document can be retaken. The failure
// states stay put; they require Initialize.
func (g *Gate) ResetDetection() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	g.consecutive = 0
	g.captured = nil
	g.emitProgressLocked()
	switch g.state {
	case StateReady, StateProcessing, StateCapturing, StateCaptured:
		g.setStateLocked(StateReady, "")
	}
}

// CaptureManually acquires and delivers one frame immediately, bypassing the
// quality scores. Only valid while Ready and no cycle is in flight.
func (g *Gate) CaptureManually() (image.Image, error) {
	g.mu.Lock()
	if g.state != StateReady {
		state := g.state
		g.mu.Unlock()
		return nil, fmt.Errorf("cannot capture while %s", state)
	}
	if g.sampling {
		g.mu.Unlock()
		return nil, errors.New("a capture cycle is already in flight")
	}
	g.sampling = true
	g.setStateLocked(StateCapturing, "")
	g.mu.Unlock()

	frame, err := g.camera.AcquireFrame()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sampling = false
	if err != nil {
		err = fmt.Errorf("acquiring frame: %w", err)
		g.failLocked(err)
		return nil, err
	}
	g.captured = frame
	g.emit(Event{Kind: EventCapture, Frame: frame})
	g.setStateLocked(StateReady, "")
	return frame, nil
}

// Close stops sampling and closes the event channel.
func (g *Gate) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.stopTimerLocked()
	g.generation++
	g.closed = true
	close(g.events)
	return nil
}

func (g *Gate) stopTimerLocked() {
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
}

func (g *Gate) run(stop chan struct{}) {
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

// sample runs one acquire-and-score cycle. The camera is called without the
// lock held; the generation counter detects a reset or stop that happened
// while the cycle was in flight, in which case the result is discarded.
func (g *Gate) sample() {
	g.mu.Lock()
	if g.sampling || g.state != StateReady {
		g.mu.Unlock()
		return
	}
	g.sampling = true
	gen := g.generation
	g.setStateLocked(StateProcessing, "")
	g.mu.Unlock()

	frame, err := g.camera.AcquireFrame()
	var quality Quality
	if err == nil {
		quality = g.cfg.Scorer.Score(frame)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sampling = false
	if gen != g.generation {
		if g.state == StateProcessing {
			g.setStateLocked(StateReady, "")
		}
		return
	}
	if err != nil {
		g.failLocked(fmt.Errorf("acquiring frame: %w", err))
		return
	}
	if quality.Brightness >= g.cfg.MinBrightness && quality.Blur >= g.cfg.MinBlur {
		g.consecutive++
		g.emitProgressLocked()
		if g.consecutive >= g.cfg.RequiredGoodFrames {
			g.stopTimerLocked()
			g.setStateLocked(StateCapturing, "")
			g.captured = frame
			g.emit(Event{Kind: EventCapture, Frame: frame})
			g.setStateLocked(StateCaptured, "")
			return
		}
	} else if g.consecutive != 0 {
		g.consecutive = 0
		g.emitProgressLocked()
	}
	g.setStateLocked(StateReady, "")
}

func (g *Gate) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failLocked(err)
}

func (g *Gate) failLocked(err error) {
	state := StateError
	if errors.Is(err, ErrPermissionDenied) {
		state = StatePermissionDenied
	}
	g.stopTimerLocked()
	g.lastErr = err.Error()
	g.setStateLocked(state, err.Error())
}

func (g *Gate) setStateLocked(state State, message string) {
	g.state = state
	g.emit(Event{Kind: EventState, State: state, Message: message})
}

func (g *Gate) emitProgressLocked() {
	g.emit(Event{Kind: EventProgress, Consecutive: g.consecutive, Required: g.cfg.RequiredGoodFrames})
}

// emit must be called with the lock held. Full buffers drop the event rather
// than block the sampling goroutine.
func (g *Gate) emit(ev Event) {
	if g.closed {
		return
	}
	select {
	case g.events <- ev:
	default:
	}
}
