// Package form drives the multi-step ICP questionnaire: it holds the
// current step and the answers, validates a step before leaving it, and
// sends the finished questionnaire exactly once.
package form

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/parisxmas/icpform/internal/client"
	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/schema"
)

var (
	// ErrSubmitInFlight is returned while a submission is running. The
	// call has no effect.
	ErrSubmitInFlight = errors.New("form: submission in progress")
	// ErrFirstStep is returned by Previous on the first step.
	ErrFirstStep = errors.New("form: already on the first step")
	// ErrNotSubmitted is returned by Reset before a successful submission.
	ErrNotSubmitted = errors.New("form: not submitted")
	// ErrAlreadySubmitted is returned by navigation after a successful
	// submission; only Reset is available then.
	ErrAlreadySubmitted = errors.New("form: already submitted")
)

// UnexpectedErrorMessage is shown when the submission fails without an
// answer from the server.
const UnexpectedErrorMessage = "An unexpected error occurred. Please try again."

// SubmitFailedMessage is shown when the server rejects a submission
// without saying why.
const SubmitFailedMessage = "Failed to submit form. Please try again."

// Status is the controller's lifecycle state.
type Status int

const (
	Editing Status = iota
	Submitting
	Submitted
	Failed
)

func (s Status) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Submitter sends a finished questionnaire.
type Submitter interface {
	Submit(ctx context.Context, p *models.Profile) (*client.Envelope, error)
}

// Outcome says what a call to Next did.
type Outcome int

const (
	Stayed    Outcome = iota // validation failed, step unchanged
	Advanced                 // moved to the next step
	Sent                     // submission succeeded
	Rejected                 // submission failed, see the banner
)

// State is a copy of everything a view needs to render the form.
type State struct {
	Step     schema.StepID
	Status   Status
	Values   models.Profile
	Errors   schema.FieldErrors
	Banner   string
	ID       string
	Progress int
}

// CanGoBack reports whether the Previous control is enabled.
func (s State) CanGoBack() bool {
	return s.Step > schema.BusinessInfo && s.Status != Submitting
}

// Controller is the form state machine. It is safe for concurrent use;
// a Next call that arrives while a submission is running is ignored.
type Controller struct {
	validator *schema.Validator
	submitter Submitter

	mu       sync.Mutex
	step     schema.StepID
	status   Status
	values   models.Profile
	errors   schema.FieldErrors
	banner   string
	id       string
	inFlight bool

	onSubmitted func(id string)
}

// Opt configures a Controller.
type Opt func(*Controller)

// OnSubmitted registers fn to run after a successful submission with the
// stored document id. It stands in for navigating to the confirmation view.
func OnSubmitted(fn func(id string)) Opt {
	return func(c *Controller) { c.onSubmitted = fn }
}

// WithValues starts the controller with pre-filled answers.
func WithValues(p models.Profile) Opt {
	return func(c *Controller) { c.values = p.Clone() }
}

func New(v *schema.Validator, s Submitter, opts ...Opt) *Controller {
	c := &Controller{
		validator: v,
		submitter: s,
		step:      schema.BusinessInfo,
		status:    Editing,
		values:    models.NewProfile(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Step:     c.step,
		Status:   c.status,
		Values:   c.values.Clone(),
		Errors:   copyErrors(c.errors),
		Banner:   c.banner,
		ID:       c.id,
		Progress: int(c.step) * 100 / schema.StepCount,
	}
}

// Step returns the current step.
func (c *Controller) Step() schema.StepID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Set changes one answer and re-checks that field only.
func (c *Controller) Set(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrSubmitInFlight
	}
	if err := schema.Set(&c.values, name, value); err != nil {
		return err
	}
	res := c.validator.Field(&c.values, name)
	if res.Valid {
		delete(c.errors, name)
		return nil
	}
	if c.errors == nil {
		c.errors = schema.FieldErrors{}
	}
	c.errors[name] = res.Message
	return nil
}

// Next validates the current step. On success it moves forward, or on
// the last step submits the whole questionnaire.
func (c *Controller) Next(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return Stayed, err
	}
	step, _ := schema.StepFor(c.step)
	if errs := step.Validate(c.validator, &c.values); errs != nil {
		c.errors = errs
		c.mu.Unlock()
		return Stayed, nil
	}
	c.errors = nil
	if c.step < schema.StepCount {
		c.step++
		c.mu.Unlock()
		return Advanced, nil
	}
	return c.submitLocked(ctx)
}

// Previous moves back one step without validating.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.busyLocked(); err != nil {
		return err
	}
	if c.step <= schema.BusinessInfo {
		return ErrFirstStep
	}
	c.step--
	return nil
}

// Reset clears every answer and returns to the first step. It is only
// available after a successful submission.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Submitted {
		return ErrNotSubmitted
	}
	c.step = schema.BusinessInfo
	c.status = Editing
	c.values = models.NewProfile()
	c.errors = nil
	c.banner = ""
	c.id = ""
	return nil
}

// busyLocked reports why navigation is refused, if it is.
func (c *Controller) busyLocked() error {
	if c.inFlight {
		return ErrSubmitInFlight
	}
	if c.status == Submitted {
		return ErrAlreadySubmitted
	}
	return nil
}

// submitLocked re-validates every step and sends the questionnaire once.
// It must be called with c.mu held and releases it. inFlight is set in the
// same critical section as the checks, then the lock is dropped for the
// network call.
func (c *Controller) submitLocked(ctx context.Context) (Outcome, error) {
	if err := c.busyLocked(); err != nil {
		c.mu.Unlock()
		return Stayed, err
	}
	if errs := c.validator.Validate(&c.values); errs != nil {
		c.errors = errs
		c.mu.Unlock()
		return Stayed, nil
	}
	c.inFlight = true
	c.status = Submitting
	c.banner = ""
	payload := c.values.Clone()
	c.mu.Unlock()

	env, err := c.submitter.Submit(ctx, &payload)

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.status = Failed
		var apiErr *client.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Message != "":
			c.banner = apiErr.Message
		case errors.As(err, &apiErr):
			c.banner = SubmitFailedMessage
		default:
			log.Printf("Error submitting form: %v", err)
			c.banner = UnexpectedErrorMessage
		}
		c.mu.Unlock()
		return Rejected, nil
	}
	c.status = Submitted
	c.id = env.ID
	hook, id := c.onSubmitted, c.id
	c.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return Sent, nil
}

func copyErrors(e schema.FieldErrors) schema.FieldErrors {
	if e == nil {
		return nil
	}
	out := make(schema.FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
