package formwizard

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadScreensAndCheck(t *testing.T) {
	t.Parallel()

	store, err := LoadScreens(filepath.Join("testdata", "intake.yaml"))
	if err != nil {
		t.Fatalf("LoadScreens: %v", err)
	}
	screen, err := LookupScreen(store, "medical_history")
	if err != nil {
		t.Fatalf("LookupScreen: %v", err)
	}

	result := Check(screen, Answers{
		"state":           "NY",
		"symptoms":        []string{"headache"},
		"weight":          "180",
		"goal_weight":     "200",
		"takes_metformin": "yes",
		"takes_insulin":   "yes",
	})

	wantVisible := []string{
		"dose_max", "dose_min", "goal_weight", "state", "symptoms",
		"takes_insulin", "takes_metformin", "weight",
	}
	if diff := cmp.Diff(wantVisible, result.Visible); diff != "" {
		t.Fatalf("visible mismatch (-want +got):\n%s", diff)
	}
	wantErrors := ErrorMap{
		"goal_weight":     "Goal weight must be below your current weight",
		"takes_metformin": "Please select only one medication you are currently taking",
		"takes_insulin":   "Please select only one medication you are currently taking",
	}
	if diff := cmp.Diff(wantErrors, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.Valid() {
		t.Fatalf("result should be invalid")
	}
}

func TestLoadScreens_Directory(t *testing.T) {
	t.Parallel()

	store, err := LoadScreens("testdata")
	if err != nil {
		t.Fatalf("LoadScreens: %v", err)
	}
	if _, err := LookupScreen(store, "account"); err != nil {
		t.Fatalf("account screen missing: %v", err)
	}
	if _, err := LookupScreen(store, "nope"); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("expected ErrUnknownScreen, got %v", err)
	}
}

func TestNewSessionAndLoadAnswers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "answers.json")
	if err := os.WriteFile(path, []byte(`{"email":"a@b.io","email_confirm":"a@b.io","terms":true}`), 0o600); err != nil {
		t.Fatalf("write answers: %v", err)
	}
	a, err := LoadAnswers(path)
	if err != nil {
		t.Fatalf("LoadAnswers: %v", err)
	}

	store, err := LoadScreens(filepath.Join("testdata", "intake.yaml"))
	if err != nil {
		t.Fatalf("LoadScreens: %v", err)
	}
	s, err := NewSession(store, "account", a)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	if errs, ok := s.Submit(); !ok {
		t.Fatalf("expected valid submit, got %v", errs)
	}
}
