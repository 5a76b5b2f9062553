// Package tui runs the questionnaire in a terminal on top of a
// form.Controller.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/parisxmas/icpform/internal/form"
	"github.com/parisxmas/icpform/internal/schema"
)

const (
	SuccessTitle   = "Form Submitted Successfully!"
	SuccessMessage = "Thank you for providing your information. Our team will review it and get back to you soon."
)

// Navigation labels.
const (
	actionNext     = "Next"
	actionSubmit   = "Submit"
	actionPrevious = "Previous"
	actionQuit     = "Quit"
	actionAnother  = "Submit Another Response"
)

// Run prompts for each step until the user quits. Quitting returns
// ErrAborted; a driver error ends the loop with that error.
func Run(ctx context.Context, ctrl *form.Controller, d Driver) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := ctrl.State()

		if st.Status == form.Submitted {
			again, err := confirmation(ctx, d)
			if err != nil || !again {
				return err
			}
			if err := ctrl.Reset(); err != nil {
				return err
			}
			continue
		}

		step, _ := schema.StepFor(st.Step)
		if err := d.Info(ctx, fmt.Sprintf("Step %d of %d: %s (%d%%)", st.Step, schema.StepCount, step.Title, st.Progress)); err != nil {
			return err
		}
		if st.Banner != "" {
			if err := d.Info(ctx, st.Banner); err != nil {
				return err
			}
		}
		if err := askStep(ctx, ctrl, d, step); err != nil {
			return err
		}

		action, err := chooseAction(ctx, d, ctrl.State())
		if err != nil {
			return err
		}
		switch action {
		case actionQuit:
			return ErrAborted
		case actionPrevious:
			if err := ctrl.Previous(); err != nil && !errors.Is(err, form.ErrFirstStep) {
				return err
			}
		default:
			out, err := ctrl.Next(ctx)
			if err != nil {
				return err
			}
			switch out {
			case form.Stayed:
				if err := showErrors(ctx, d, ctrl.State().Errors); err != nil {
					return err
				}
			case form.Sent:
				if err := d.Info(ctx, SuccessTitle); err != nil {
					return err
				}
			}
		}
	}
}

// askStep prompts every field of the step that is currently shown,
// re-checking each answer as it is entered.
func askStep(ctx context.Context, ctrl *form.Controller, d Driver, step schema.Step) error {
	for _, f := range step.Fields() {
		values := ctrl.State().Values
		if !f.Revealed(&values) {
			continue
		}
		current, err := schema.Get(&values, f.Name)
		if err != nil {
			return err
		}
		answer, err := ask(ctx, d, f, current)
		if err != nil {
			return err
		}
		if err := ctrl.Set(f.Name, answer); err != nil {
			return err
		}
		if msg, bad := ctrl.State().Errors[f.Name]; bad {
			if err := d.Info(ctx, "  "+msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func ask(ctx context.Context, d Driver, f schema.Field, current any) (any, error) {
	switch f.Kind {
	case schema.KindChoice:
		cur, _ := current.(string)
		idx, err := d.Select(ctx, SelectConfig{
			Message:      f.Label,
			Options:      labels(f.Options),
			DefaultIndex: optionIndex(f.Options, cur),
			Help:         f.Placeholder,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(f.Options) {
			return "", nil
		}
		return f.Options[idx].Value, nil

	case schema.KindTags:
		cur, _ := current.([]string)
		var defaults []int
		for _, v := range cur {
			if i := optionIndex(f.Options, v); i >= 0 {
				defaults = append(defaults, i)
			}
		}
		idxs, err := d.MultiSelect(ctx, SelectConfig{
			Message:  f.Label,
			Options:  labels(f.Options),
			Defaults: defaults,
			Help:     f.Placeholder,
		})
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(idxs))
		for _, i := range idxs {
			if i >= 0 && i < len(f.Options) {
				out = append(out, f.Options[i].Value)
			}
		}
		return out, nil

	default:
		cur, _ := current.(string)
		cfg := InputConfig{Message: f.Label, Default: cur, Help: f.Placeholder}
		if f.Multiline {
			return d.TextArea(ctx, cfg)
		}
		return d.Input(ctx, cfg)
	}
}

func chooseAction(ctx context.Context, d Driver, st form.State) (string, error) {
	forward := actionNext
	if st.Step == schema.StepCount {
		forward = actionSubmit
	}
	options := []string{forward}
	if st.CanGoBack() {
		options = append(options, actionPrevious)
	}
	options = append(options, actionQuit)

	idx, err := d.Select(ctx, SelectConfig{Message: "Continue", Options: options})
	if err != nil {
		return "", err
	}
	if idx < 0 || idx >= len(options) {
		return forward, nil
	}
	return options[idx], nil
}

func confirmation(ctx context.Context, d Driver) (bool, error) {
	if err := d.Info(ctx, SuccessMessage); err != nil {
		return false, err
	}
	idx, err := d.Select(ctx, SelectConfig{
		Message: "What next?",
		Options: []string{actionAnother, actionQuit},
	})
	if err != nil {
		return false, err
	}
	return idx == 0, nil
}

func showErrors(ctx context.Context, d Driver, errs schema.FieldErrors) error {
	for _, name := range errs.Fields() {
		label := name
		if f, ok := schema.Lookup(name); ok {
			label = f.Label
		}
		if err := d.Info(ctx, fmt.Sprintf("  %s: %s", label, errs[name])); err != nil {
			return err
		}
	}
	return nil
}

func labels(opts []schema.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Label
	}
	return out
}

func optionIndex(opts []schema.Option, value string) int {
	for i, o := range opts {
		if o.Value == value {
			return i
		}
	}
	return -1
}
