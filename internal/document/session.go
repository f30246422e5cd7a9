package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/zombor/idscan/internal/capture"
)

// SessionOptions overrides the manager's default gate settings. Zero values
// keep the defaults.
type SessionOptions struct {
	Interval           time.Duration
	RequiredGoodFrames int
	MinBrightness      float64
	MinBlur            float64
}

// frameBuffer adapts pushed preview frames to the capture.Camera interface.
// AcquireFrame hands the gate whichever frame arrived most recently.
type frameBuffer struct {
	mu    sync.Mutex
	frame image.Image
}

func (b *frameBuffer) Initialize() error {
	return nil
}

func (b *frameBuffer) SetFlash(enabled bool) error {
	return nil
}

func (b *frameBuffer) AcquireFrame() (image.Image, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frame == nil {
		return nil, errors.New("no frame pushed yet")
	}
	return b.frame, nil
}

func (b *frameBuffer) push(frame image.Image) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame = frame
}

func (b *frameBuffer) hasFrame() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frame != nil
}

// Session drives one server-side auto-capture: pushed preview frames feed a
// capture gate, and the frame the gate settles on is scanned against the
// session's profile and stored.
type Session struct {
	ID      string
	Profile string

	gate   *capture.Gate
	buffer *frameBuffer
	done   chan struct{}

	mu      sync.Mutex
	started bool
	scan    *ScanRecord
	scanErr string
}

// SessionStatus is a point-in-time snapshot of a session.
type SessionStatus struct {
	ID          string        `json:"id"`
	Profile     string        `json:"profile"`
	State       capture.State `json:"state"`
	Consecutive int           `json:"consecutive_good_frames"`
	Required    int           `json:"required_good_frames"`
	Message     string        `json:"message,omitempty"`
	Scan        *ScanRecord   `json:"scan,omitempty"`
}

// PushFrame hands a preview frame to the session. The gate's sampling timer
// starts on the first frame so it never ticks against an empty buffer.
func (s *Session) PushFrame(frame image.Image) error {
	s.buffer.push(frame)

	s.mu.Lock()
	needStart := !s.started
	s.started = true
	s.mu.Unlock()
	if !needStart {
		return nil
	}

	if err := s.gate.StartAutoCapture(); err != nil {
		s.mu.Lock()
		s.started = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// CaptureNow captures the most recent frame immediately, bypassing the
// quality scores. Auto sampling stops so the manual capture stays the only
// one.
func (s *Session) CaptureNow() error {
	if !s.buffer.hasFrame() {
		return errors.New("no frame pushed yet")
	}
	s.gate.StopAutoCapture()
	_, err := s.gate.CaptureManually()
	return err
}

// Reset discards capture progress and any finished scan record so the
// document can be retaken. Sampling restarts on the next pushed frame.
func (s *Session) Reset() {
	s.gate.ResetDetection()
	s.mu.Lock()
	s.started = false
	s.scan = nil
	s.scanErr = ""
	s.mu.Unlock()
}

// Status snapshots the session.
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	scan := s.scan
	scanErr := s.scanErr
	s.mu.Unlock()

	consecutive, required := s.gate.Progress()
	status := SessionStatus{
		ID:          s.ID,
		Profile:     s.Profile,
		State:       s.gate.State(),
		Consecutive: consecutive,
		Required:    required,
		Scan:        scan,
	}
	if scanErr != "" {
		status.Message = scanErr
	} else {
		status.Message = s.gate.LastError()
	}
	return status
}

// consume drains gate events; each captured frame is encoded as PNG and run
// through the scan pipeline.
func (s *Session) consume(service *Service) {
	defer close(s.done)
	for event := range s.gate.Events() {
		if event.Kind != capture.EventCapture || event.Frame == nil {
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, event.Frame); err != nil {
			slog.Error("Failed to encode captured frame", "session", s.ID, "error", err)
			s.setOutcome(nil, fmt.Sprintf("encoding captured frame: %v", err))
			continue
		}

		record, err := service.ProcessScan(context.Background(), s.Profile, "capture.png", buf.Bytes(), "image/png")
		if err != nil {
			slog.Error("Failed to process captured frame", "session", s.ID, "error", err)
			s.setOutcome(nil, err.Error())
			continue
		}
		s.setOutcome(record, "")
	}
}

func (s *Session) setOutcome(record *ScanRecord, message string) {
	s.mu.Lock()
	s.scan = record
	s.scanErr = message
	s.mu.Unlock()
}

func (s *Session) close() {
	s.gate.Close()
	<-s.done
}

// SessionManager owns the live capture sessions.
type SessionManager struct {
	service     *Service
	defaults    capture.Config
	idGenerator IDGenerator

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a SessionManager whose sessions start from the
// given gate defaults.
func NewSessionManager(service *Service, defaults capture.Config) *SessionManager {
	return NewSessionManagerWithDeps(service, defaults, &defaultIDGenerator{})
}

// NewSessionManagerWithDeps creates a SessionManager with a custom ID
// generator for testing
func NewSessionManagerWithDeps(service *Service, defaults capture.Config, idGen IDGenerator) *SessionManager {
	return &SessionManager{
		service:     service,
		defaults:    defaults,
		idGenerator: idGen,
		sessions:    make(map[string]*Session),
	}
}

// Create builds a session for the profile and starts its scan consumer.
func (m *SessionManager) Create(profileName string, opts SessionOptions) (*Session, error) {
	if _, err := m.service.GetProfile(profileName); err != nil {
		return nil, fmt.Errorf("resolving profile: %w", err)
	}

	cfg := m.defaults
	if opts.Interval > 0 {
		cfg.Interval = opts.Interval
	}
	if opts.RequiredGoodFrames > 0 {
		cfg.RequiredGoodFrames = opts.RequiredGoodFrames
	}
	if opts.MinBrightness > 0 {
		cfg.MinBrightness = opts.MinBrightness
	}
	if opts.MinBlur > 0 {
		cfg.MinBlur = opts.MinBlur
	}

	buffer := &frameBuffer{}
	gate := capture.NewGate(buffer, cfg)
	if err := gate.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing capture gate: %w", err)
	}

	session := &Session{
		ID:      m.idGenerator.Generate(),
		Profile: profileName,
		gate:    gate,
		buffer:  buffer,
		done:    make(chan struct{}),
	}
	go session.consume(m.service)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session, nil
}

// Get returns a live session by ID
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return session, nil
}

// Delete stops a session and removes it
func (m *SessionManager) Delete(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	session.close()
	return nil
}

// Close stops every live session
func (m *SessionManager) Close() error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
	return nil
}
