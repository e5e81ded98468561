package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// Prompt describes one question asked for a field. Each driver method reads
// only the parts its prompt kind needs.
type Prompt struct {
	Message string
	Help    string
	// Default prefills text prompts. Confirm prompts default to yes when it
	// reads "true".
	Default string
	Options []string
	// Selected holds preselected indices into Options. Select uses the first.
	Selected []int
	// Validate runs inside the prompt loop; a non-nil error re-asks.
	Validate func(string) error
}

// PromptDriver abstracts the terminal so the wizard loop can be driven by a
// script in tests. Select reports -1 when the answer matches no option.
type PromptDriver interface {
	Input(ctx context.Context, p Prompt) (string, error)
	TextArea(ctx context.Context, p Prompt) (string, error)
	Confirm(ctx context.Context, p Prompt) (bool, error)
	Select(ctx context.Context, p Prompt) (int, error)
	MultiSelect(ctx context.Context, p Prompt) ([]int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns the interactive driver backed by survey. Info
// messages go to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Input(ctx context.Context, p Prompt) (string, error) {
	var out string
	err := ask(ctx, &survey.Input{Message: p.Message, Help: p.Help, Default: p.Default}, &out, validator(p.Validate)...)
	return out, err
}

func (d *surveyDriver) TextArea(ctx context.Context, p Prompt) (string, error) {
	var out string
	err := ask(ctx, &survey.Multiline{Message: p.Message, Help: p.Help, Default: p.Default}, &out, validator(p.Validate)...)
	return out, err
}

func (d *surveyDriver) Confirm(ctx context.Context, p Prompt) (bool, error) {
	var out bool
	err := ask(ctx, &survey.Confirm{Message: p.Message, Help: p.Help, Default: p.Default == "true"}, &out)
	return out, err
}

func (d *surveyDriver) Select(ctx context.Context, p Prompt) (int, error) {
	prompt := &survey.Select{Message: p.Message, Options: p.Options, Help: p.Help}
	if picked := pick(p.Options, p.Selected); len(picked) > 0 {
		prompt.Default = picked[0]
	}
	var out string
	if err := ask(ctx, prompt, &out); err != nil {
		return -1, err
	}
	for i, option := range p.Options {
		if option == out {
			return i, nil
		}
	}
	return -1, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, p Prompt) ([]int, error) {
	prompt := &survey.MultiSelect{Message: p.Message, Options: p.Options, Help: p.Help}
	if picked := pick(p.Options, p.Selected); len(picked) > 0 {
		prompt.Default = picked
	}
	var out []string
	if err := ask(ctx, prompt, &out); err != nil {
		return nil, err
	}
	chosen := make(map[string]bool, len(out))
	for _, label := range out {
		chosen[label] = true
	}
	var indices []int
	for i, option := range p.Options {
		if chosen[option] {
			indices = append(indices, i)
		}
	}
	return indices, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// ask runs one survey prompt. Ctrl-C surfaces as ErrAborted.
func ask(ctx context.Context, prompt survey.Prompt, out any, opts ...survey.AskOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := survey.AskOne(prompt, out, opts...)
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}

func validator(validate func(string) error) []survey.AskOpt {
	if validate == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans interface{}) error {
		text, _ := ans.(string)
		return validate(text)
	})}
}

func pick(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
