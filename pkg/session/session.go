package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
	"github.com/goliatone/go-formwizard/pkg/visibility"
)

// DefaultAutoAdvanceDelay is how long ScheduleAutoAdvance waits before
// submitting.
const DefaultAutoAdvanceDelay = 400 * time.Millisecond

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// Option configures a Session.
type Option func(*config)

type config struct {
	delay      time.Duration
	logger     *slog.Logger
	validators []validation.Option
}

// WithAutoAdvanceDelay overrides DefaultAutoAdvanceDelay. Non-positive values
// are ignored.
func WithAutoAdvanceDelay(delay time.Duration) Option {
	return func(cfg *config) {
		if delay > 0 {
			cfg.delay = delay
		}
	}
}

// WithLogger logs session events at debug level and forwards the logger to
// the validator.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithValidationOptions forwards options (messages, locale) to the validator.
func WithValidationOptions(options ...validation.Option) Option {
	return func(cfg *config) {
		cfg.validators = append(cfg.validators, options...)
	}
}

// Session is the per-screen state a host keeps while a screen is shown: the
// answers it writes through, the error map shown to the user, and the pending
// auto-advance timer. The answer map is owned by the host and shared across
// screens; the session only writes the keys the host asks it to.
type Session struct {
	mu        sync.Mutex
	screen    schema.Screen
	index     *schema.Index
	validator *validation.Validator
	answers   answers.Answers
	errors    validation.ErrorMap
	formErrs  []string
	delay     time.Duration
	logger    *slog.Logger

	timer      *time.Timer
	generation uint64
	closed     bool
}

// New opens a session for screen over the host's answer map. A nil map is
// replaced with an empty one.
func New(screen schema.Screen, a answers.Answers, options ...Option) (*Session, error) {
	cfg := config{delay: DefaultAutoAdvanceDelay, logger: logging.Discard()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	index, err := schema.NewIndex(screen.Fields)
	if err != nil {
		return nil, fmt.Errorf("session: screen %q: %w", screen.ID, err)
	}
	if a == nil {
		a = answers.Answers{}
	}

	validatorOpts := append([]validation.Option{validation.WithLogger(cfg.logger)}, cfg.validators...)
	return &Session{
		screen:    screen,
		index:     index,
		validator: validation.New(screen, validatorOpts...),
		answers:   a,
		errors:    make(validation.ErrorMap),
		delay:     cfg.delay,
		logger:    cfg.logger.With(slog.String("screen", screen.ID)),
	}, nil
}

// Screen returns the screen the session was opened for.
func (s *Session) Screen() schema.Screen {
	return s.screen
}

// Set stores value for id in the host map and clears any error shown for id.
// Errors of fields hidden by the change are dropped too.
func (s *Session) Set(id string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.answers[id] = value
	delete(s.errors, id)
	s.dropHiddenErrorsLocked()
	return nil
}

// Answers returns a snapshot of the host map.
func (s *Session) Answers() answers.Answers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone()
}

// Visible returns the current set of live field ids.
func (s *Session) Visible() visibility.Set {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.Resolver().VisibleFields(s.answers)
}

// Live returns the live answerable fields in document order.
func (s *Session) Live() []schema.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validator.Resolver().Live(s.answers)
}

// Errors returns a copy of the current error map.
func (s *Session) Errors() validation.ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// FormErrors returns screen-level messages merged from the server.
func (s *Session) FormErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.formErrs...)
}

// Blur validates one field the user has left. Hidden or unknown fields have
// their error cleared. The returned message is "" when the field is valid.
func (s *Session) Blur(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	field, ok := s.index.Field(id)
	if !ok || s.closed || !s.validator.Resolver().IsVisible(field, s.answers) {
		delete(s.errors, id)
		return ""
	}

	value, _ := s.answers.Lookup(id)
	msg := s.validator.ValidateField(field, value, s.answers)
	if msg == "" {
		delete(s.errors, id)
	} else {
		s.errors[id] = msg
	}
	s.logger.Debug("session: blur", slog.String("field", id), slog.Bool("valid", msg == ""))
	return msg
}

// Check validates a candidate value for id against the current answers
// without storing it. Hidden or unknown fields always pass.
func (s *Session) Check(id string, value any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	field, ok := s.index.Field(id)
	if !ok || !s.validator.Resolver().IsVisible(field, s.answers) {
		return ""
	}
	return s.validator.ValidateField(field, value, s.answers)
}

// Submit validates the whole live screen, replaces the error map and reports
// whether navigation may proceed.
func (s *Session) Submit() (validation.ErrorMap, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked()
}

func (s *Session) submitLocked() (validation.ErrorMap, bool) {
	s.errors = s.validator.ValidateScreen(s.answers)
	s.formErrs = nil
	s.logger.Debug("session: submit", slog.Int("errors", len(s.errors)))
	return s.errors.Clone(), s.errors.Valid()
}

// ScheduleAutoAdvance arms a timer that submits after the configured delay and
// calls next with a snapshot of the answers when the screen is valid. Arming
// again replaces the pending timer; Cancel and Close stop it.
func (s *Session) ScheduleAutoAdvance(next func(answers.Answers)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.stopLocked()
	s.generation++
	generation := s.generation
	s.timer = time.AfterFunc(s.delay, func() {
		s.fire(generation, next)
	})
	return nil
}

// Pending reports whether an auto-advance timer is armed.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Cancel stops a pending auto-advance. It reports whether one was pending.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Close cancels any pending auto-advance and rejects further writes.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}

// MergeServerErrors maps a server error payload onto the screen's fields and
// merges it into the error map. Keys that match no field become form errors.
func (s *Session) MergeServerErrors(payload map[string][]string) render.ErrorMapping {
	mapping := render.MapErrorPayload(s.screen, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, msg := range mapping.ErrorMap() {
		s.errors[id] = msg
	}
	s.formErrs = render.MergeFormErrors(s.formErrs, mapping.Form...)
	return mapping
}

func (s *Session) fire(generation uint64, next func(answers.Answers)) {
	s.mu.Lock()
	if s.closed || generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	_, ok := s.submitLocked()
	snapshot := s.answers.Clone()
	s.mu.Unlock()

	s.logger.Debug("session: auto-advance", slog.Bool("valid", ok))
	if ok && next != nil {
		next(snapshot)
	}
}

// stopLocked bumps the generation so a timer that already fired but is
// waiting on the lock becomes a no-op.
func (s *Session) stopLocked() bool {
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	s.generation++
	return true
}

func (s *Session) dropHiddenErrorsLocked() {
	if len(s.errors) == 0 {
		return
	}
	visible := s.validator.Resolver().VisibleFields(s.answers)
	for id := range s.errors {
		if !visible.Has(id) {
			delete(s.errors, id)
		}
	}
}
