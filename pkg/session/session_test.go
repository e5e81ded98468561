package session

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formwizard/pkg/answers"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

func accountScreen() schema.Screen {
	return schema.Screen{
		ID: "account",
		Fields: []schema.Field{
			{ID: "plan", Kind: schema.KindSingleChoice, Required: true},
			{ID: "coupon", Kind: schema.KindShortText, Required: true, Gate: schema.Conditional{Expression: `plan == "annual"`}},
			{ID: "email", Kind: schema.KindShortText, Required: true, Validation: &schema.Validation{Pattern: `\S+@\S+`}},
		},
	}
}

func TestSession_BlurAndSubmit(t *testing.T) {
	t.Parallel()

	host := answers.Answers{"previous_screen": "kept"}
	s, err := New(accountScreen(), host)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if msg := s.Blur("email"); msg != "This field is required" {
		t.Fatalf("blur email = %q", msg)
	}
	if msg := s.Blur("coupon"); msg != "" {
		t.Fatalf("hidden coupon must not error on blur, got %q", msg)
	}

	if err := s.Set("email", "a@b"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := s.Errors()["email"]; ok {
		t.Fatalf("Set must clear the field's error")
	}
	if host["email"] != "a@b" {
		t.Fatalf("Set must write through to the host map")
	}

	_ = s.Set("plan", "annual")
	errs, ok := s.Submit()
	if ok {
		t.Fatalf("expected submit to fail while coupon is empty")
	}
	if diff := cmp.Diff(validation.ErrorMap{"coupon": "This field is required"}, errs); diff != "" {
		t.Fatalf("submit errors mismatch (-want +got):\n%s", diff)
	}

	// Switching plan hides coupon, which drops its stale error.
	_ = s.Set("plan", "monthly")
	if !s.Errors().Valid() {
		t.Fatalf("hidden field error should be dropped, got %v", s.Errors())
	}
	if _, ok := s.Submit(); !ok {
		t.Fatalf("expected submit to pass, got %v", s.Errors())
	}
	if s.Visible().Has("coupon") {
		t.Fatalf("coupon should be hidden")
	}
}

func TestSession_AutoAdvance(t *testing.T) {
	t.Parallel()

	s, err := New(accountScreen(), answers.Answers{"plan": "monthly", "email": "a@b"}, WithAutoAdvanceDelay(5*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	advanced := make(chan answers.Answers, 1)
	if err := s.ScheduleAutoAdvance(func(a answers.Answers) { advanced <- a }); err != nil {
		t.Fatalf("ScheduleAutoAdvance: %v", err)
	}

	select {
	case got := <-advanced:
		if got["plan"] != "monthly" {
			t.Fatalf("unexpected snapshot: %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("auto-advance did not fire")
	}
	if s.Pending() {
		t.Fatalf("timer should be cleared after firing")
	}
}

func TestSession_AutoAdvanceSkipsInvalidScreen(t *testing.T) {
	t.Parallel()

	s, err := New(accountScreen(), answers.Answers{}, WithAutoAdvanceDelay(time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	called := make(chan struct{}, 1)
	_ = s.ScheduleAutoAdvance(func(answers.Answers) { called <- struct{}{} })

	deadline := time.Now().Add(2 * time.Second)
	for s.Pending() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	select {
	case <-called:
		t.Fatalf("next must not run for an invalid screen")
	default:
	}
	if s.Errors().Valid() {
		t.Fatalf("auto-advance should have populated errors")
	}
}

func TestSession_CancelAndClose(t *testing.T) {
	t.Parallel()

	s, err := New(accountScreen(), answers.Answers{"plan": "monthly", "email": "a@b"}, WithAutoAdvanceDelay(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	called := make(chan struct{}, 2)
	next := func(answers.Answers) { called <- struct{}{} }

	_ = s.ScheduleAutoAdvance(next)
	_ = s.ScheduleAutoAdvance(next)
	if !s.Cancel() {
		t.Fatalf("Cancel should report a pending timer")
	}
	if s.Cancel() {
		t.Fatalf("second Cancel has nothing to stop")
	}

	_ = s.ScheduleAutoAdvance(next)
	s.Close()
	time.Sleep(120 * time.Millisecond)
	select {
	case <-called:
		t.Fatalf("cancelled or closed timers must not advance")
	default:
	}

	if err := s.Set("plan", "annual"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Set after Close = %v", err)
	}
	if err := s.ScheduleAutoAdvance(next); !errors.Is(err, ErrClosed) {
		t.Fatalf("ScheduleAutoAdvance after Close = %v", err)
	}
}

func TestSession_MergeServerErrors(t *testing.T) {
	t.Parallel()

	s, err := New(accountScreen(), answers.Answers{"plan": "monthly", "email": "a@b"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mapping := s.MergeServerErrors(map[string][]string{
		"/body/email": {"Email already registered"},
		"__all__":     {"Try again later"},
	})
	if len(mapping.Form) != 1 {
		t.Fatalf("unexpected mapping: %+v", mapping)
	}
	if diff := cmp.Diff(validation.ErrorMap{"email": "Email already registered"}, s.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Try again later"}, s.FormErrors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := New(schema.Screen{ID: "dup", Fields: []schema.Field{
		{ID: "a", Kind: schema.KindShortText},
		{ID: "a", Kind: schema.KindNumeric},
	}}, nil)
	if !errors.Is(err, schema.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestSession_CheckDoesNotStore(t *testing.T) {
	t.Parallel()

	s, err := New(accountScreen(), answers.Answers{"plan": "monthly"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if msg := s.Check("email", "nope"); msg != "Invalid format" {
		t.Fatalf("Check email = %q", msg)
	}
	if msg := s.Check("coupon", ""); msg != "" {
		t.Fatalf("hidden coupon must pass, got %q", msg)
	}
	if _, ok := s.Answers().Lookup("email"); ok {
		t.Fatalf("Check must not store the candidate")
	}
	if !s.Errors().Valid() {
		t.Fatalf("Check must not touch the error map")
	}
}
