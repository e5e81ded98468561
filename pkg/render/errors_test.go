package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formwizard/pkg/render"
	"github.com/goliatone/go-formwizard/pkg/schema"
	"github.com/goliatone/go-formwizard/pkg/validation"
)

func TestMapErrorPayload_ServerKeys(t *testing.T) {
	t.Parallel()

	screen := schema.Screen{
		ID: "intake",
		Fields: []schema.Field{
			{ID: "email", Kind: schema.KindShortText},
			{ID: "demographics.dob", Kind: schema.KindShortText},
			{ID: "meds", Kind: schema.KindGroup, Children: []schema.Field{
				{Kind: schema.KindRow, Children: []schema.Field{
					{ID: "dose_min", Kind: schema.KindNumeric},
				}},
			}},
			{ID: "symptoms", Kind: schema.KindMultiChoice},
		},
	}

	payload := map[string][]string{
		"/body/email":             {"Email already registered"},
		"demographics.dob":        {" Too young ", "Too young"},
		"$.answers.symptoms[0]":   {"Unknown symptom"},
		"request/body/dose_min":   {"Dose required"},
		"non_field_errors":        {"Screen expired"},
		"body/unknown-field":      {"Should fall back to form errors"},
		"":                        {"Unscoped"},
		"/data/demographics/dob/": {"Invalid date"},
	}

	mapped := render.MapErrorPayload(screen, payload)

	wantFields := map[string][]string{
		"email":            {"Email already registered"},
		"demographics.dob": {"Invalid date", "Too young"},
		"symptoms":         {"Unknown symptom"},
		"dose_min":         {"Dose required"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Screen expired", "Should fall back to form errors", "Unscoped"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}

	wantMap := validation.ErrorMap{
		"email":            "Email already registered",
		"demographics.dob": "Invalid date",
		"symptoms":         "Unknown symptom",
		"dose_min":         "Dose required",
	}
	if diff := cmp.Diff(wantMap, mapped.ErrorMap()); diff != "" {
		t.Fatalf("error map mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	t.Parallel()

	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}
