package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/icpform/internal/client"
	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/schema"
	"github.com/parisxmas/icpform/internal/testutil"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []models.Profile
	err   error
	gate  chan struct{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, p *models.Profile) (*client.Envelope, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.Clone())
	if f.err != nil {
		return nil, f.err
	}
	return &client.Envelope{Success: true, ID: "id-1"}, nil
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func advanceTo(t *testing.T, c *Controller, step schema.StepID) {
	t.Helper()
	for c.Step() < step {
		out, err := c.Next(context.Background())
		require.NoError(t, err)
		require.Equal(t, Advanced, out)
	}
}

func TestNextBlocksOnInvalidStep(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(schema.NewValidator(), sub)

	out, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stayed, out)

	st := c.State()
	assert.Equal(t, schema.BusinessInfo, st.Step)
	assert.Equal(t, []string{"businessDescription", "companyName", "industry", "websiteUrl"}, st.Errors.Fields())
	assert.Zero(t, sub.count())
}

func TestNextOnlyChecksCurrentStep(t *testing.T) {
	c := New(schema.NewValidator(), &fakeSubmitter{})
	require.NoError(t, c.Set("companyName", "Acme"))
	require.NoError(t, c.Set("websiteUrl", "https://acme.io"))
	require.NoError(t, c.Set("industry", "finance"))
	require.NoError(t, c.Set("businessDescription", "Payments for small shops"))

	out, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Advanced, out)
	assert.Equal(t, schema.TargetAudience, c.Step())
	assert.Nil(t, c.State().Errors)
}

func TestFullFlowSubmitsOnce(t *testing.T) {
	sub := &fakeSubmitter{}
	var navigated string
	c := New(schema.NewValidator(), sub,
		WithValues(testutil.ValidProfile()),
		OnSubmitted(func(id string) { navigated = id }),
	)

	advanceTo(t, c, schema.ContentPreferences)
	assert.Equal(t, 100, c.State().Progress)

	out, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Sent, out)

	st := c.State()
	assert.Equal(t, Submitted, st.Status)
	assert.Equal(t, "id-1", st.ID)
	assert.Equal(t, "id-1", navigated)
	require.Equal(t, 1, sub.count())
	assert.Equal(t, testutil.ValidProfile(), sub.calls[0])

	_, err = c.Next(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, 1, sub.count())
}

func TestSubmitRevalidatesEverything(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(schema.NewValidator(), sub, WithValues(testutil.ValidProfile()))
	advanceTo(t, c, schema.ContentPreferences)

	// A stale earlier-step answer is caught at submit time.
	require.NoError(t, c.Set("companyName", ""))

	out, err := c.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stayed, out)
	st := c.State()
	assert.Equal(t, schema.ContentPreferences, st.Step)
	assert.Equal(t, Editing, st.Status)
	assert.Equal(t, "Company name is required", st.Errors["companyName"])
	assert.Zero(t, sub.count())
}

func TestSubmitFailureKeepsStep(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		banner string
	}{
		{"api message", &client.APIError{StatusCode: 400, Message: "Invalid form data"}, "Invalid form data"},
		{"api without message", &client.APIError{StatusCode: 200}, SubmitFailedMessage},
		{"transport", errors.New("connection refused"), UnexpectedErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{err: tt.err}
			c := New(schema.NewValidator(), sub, WithValues(testutil.ValidProfile()))
			advanceTo(t, c, schema.ContentPreferences)

			out, err := c.Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Rejected, out)

			st := c.State()
			assert.Equal(t, Failed, st.Status)
			assert.Equal(t, schema.ContentPreferences, st.Step)
			assert.Equal(t, tt.banner, st.Banner)
			assert.Equal(t, testutil.ValidProfile(), st.Values)

			// Manual retry clears the banner.
			sub.err = nil
			out, err = c.Next(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Sent, out)
			assert.Empty(t, c.State().Banner)
		})
	}
}

func TestSecondNextIgnoredWhileSubmitting(t *testing.T) {
	sub := &fakeSubmitter{gate: make(chan struct{})}
	c := New(schema.NewValidator(), sub, WithValues(testutil.ValidProfile()))
	advanceTo(t, c, schema.ContentPreferences)

	done := make(chan Outcome)
	go func() {
		out, _ := c.Next(context.Background())
		done <- out
	}()

	require.Eventually(t, func() bool { return c.State().Status == Submitting }, time.Second, time.Millisecond)
	assert.False(t, c.State().CanGoBack())

	_, err := c.Next(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.ErrorIs(t, c.Previous(), ErrSubmitInFlight)
	assert.ErrorIs(t, c.Set("companyName", "Other"), ErrSubmitInFlight)

	close(sub.gate)
	assert.Equal(t, Sent, <-done)
	assert.Equal(t, 1, sub.count())
}

func TestSubmitAfterSentIsRefused(t *testing.T) {
	sub := &fakeSubmitter{}
	c := New(schema.NewValidator(), sub, WithValues(testutil.ValidProfile()))
	advanceTo(t, c, schema.ContentPreferences)

	out, err := c.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, Sent, out)

	c.mu.Lock()
	out, err = c.submitLocked(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.Equal(t, Stayed, out)
	assert.Equal(t, 1, sub.count())
	assert.Equal(t, Submitted, c.State().Status)
}

func TestConcurrentNextSubmitsOnce(t *testing.T) {
	for i := 0; i < 50; i++ {
		sub := &fakeSubmitter{}
		c := New(schema.NewValidator(), sub, WithValues(testutil.ValidProfile()))
		advanceTo(t, c, schema.ContentPreferences)

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Next(context.Background())
			}()
		}
		wg.Wait()
		require.Equal(t, 1, sub.count())
		assert.Equal(t, Submitted, c.State().Status)
	}
}

func TestPrevious(t *testing.T) {
	c := New(schema.NewValidator(), &fakeSubmitter{}, WithValues(testutil.ValidProfile()))
	assert.ErrorIs(t, c.Previous(), ErrFirstStep)
	assert.False(t, c.State().CanGoBack())

	advanceTo(t, c, schema.SeoGoals)
	require.NoError(t, c.Set("targetKeywords", "x"))
	// Previous does not validate.
	require.NoError(t, c.Previous())
	assert.Equal(t, schema.TargetAudience, c.Step())
}

func TestNextThenPreviousKeepsValues(t *testing.T) {
	c := New(schema.NewValidator(), &fakeSubmitter{}, WithValues(testutil.ValidProfile()))
	for k := schema.TargetAudience; k < schema.ContentPreferences; k++ {
		advanceTo(t, c, k)
		before := c.State().Values

		out, err := c.Next(context.Background())
		require.NoError(t, err)
		require.Equal(t, Advanced, out)
		require.NoError(t, c.Previous())

		st := c.State()
		assert.Equal(t, k, st.Step)
		assert.Equal(t, before, st.Values)
	}
}

func TestReset(t *testing.T) {
	c := New(schema.NewValidator(), &fakeSubmitter{}, WithValues(testutil.ValidProfile()))
	assert.ErrorIs(t, c.Reset(), ErrNotSubmitted)

	advanceTo(t, c, schema.ContentPreferences)
	_, err := c.Next(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	st := c.State()
	assert.Equal(t, schema.BusinessInfo, st.Step)
	assert.Equal(t, Editing, st.Status)
	assert.Equal(t, models.NewProfile(), st.Values)
	assert.Empty(t, st.ID)
	assert.Equal(t, 20, st.Progress)
}

func TestSetRevalidatesField(t *testing.T) {
	c := New(schema.NewValidator(), &fakeSubmitter{})
	require.NoError(t, c.Set("websiteUrl", "nope"))
	assert.Equal(t, "Please enter a valid URL", c.State().Errors["websiteUrl"])

	require.NoError(t, c.Set("websiteUrl", "https://acme.io"))
	_, present := c.State().Errors["websiteUrl"]
	assert.False(t, present)

	assert.ErrorIs(t, c.Set("nope", "x"), schema.ErrUnknownField)
}

// With lenient conditionals, industry "other" and an empty otherIndustry
// still passes step 1. Strict mode blocks it.
func TestOtherIndustryConditional(t *testing.T) {
	p := testutil.ValidProfile()
	p.Industry = "other"

	lenient := New(schema.NewValidator(), &fakeSubmitter{}, WithValues(p))
	out, err := lenient.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Advanced, out)

	strict := New(schema.NewValidator(schema.WithStrictConditionals(true)), &fakeSubmitter{}, WithValues(p))
	out, err = strict.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stayed, out)
	assert.Equal(t, "Please specify your industry", strict.State().Errors["otherIndustry"])
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "error", Failed.String())
	assert.Equal(t, "unknown", Status(42).String())
}
