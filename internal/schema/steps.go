package schema

import (
	"fmt"

	"github.com/parisxmas/icpform/internal/models"
)

// StepID identifies one of the five questionnaire steps.
type StepID int

const (
	BusinessInfo StepID = iota + 1
	TargetAudience
	SeoGoals
	CompetitorAnalysis
	ContentPreferences
)

// StepCount is the number of steps.
const StepCount = 5

func (s StepID) String() string {
	if st, ok := StepFor(s); ok {
		return st.Title
	}
	return fmt.Sprintf("StepID(%d)", int(s))
}

// Valid reports whether s names a step.
func (s StepID) Valid() bool { return s >= BusinessInfo && s <= ContentPreferences }

// Step is one grouping of fields. Its triggers are the fields checked
// before the questionnaire may leave the step.
type Step struct {
	ID       StepID
	Title    string
	triggers []string
}

var steps = [StepCount]Step{
	{ID: BusinessInfo, Title: "Business Information",
		triggers: []string{"companyName", "websiteUrl", "industry", "businessDescription"}},
	{ID: TargetAudience, Title: "Target Audience",
		triggers: []string{"ageGroups", "genders", "interests", "regions", "purchasingBehavior"}},
	{ID: SeoGoals, Title: "SEO Goals",
		triggers: []string{"seoGoals", "seoType", "targetKeywords"}},
	{ID: CompetitorAnalysis, Title: "Competitor Analysis",
		triggers: []string{"competitors", "competitorWebsites"}},
	{ID: ContentPreferences, Title: "Content Preferences",
		triggers: []string{"contentTone", "contentTypes", "existingContent"}},
}

// Steps returns all steps in order.
func Steps() []Step {
	out := make([]Step, StepCount)
	copy(out, steps[:])
	return out
}

// StepFor returns the step with the given id.
func StepFor(id StepID) (Step, bool) {
	if !id.Valid() {
		return Step{}, false
	}
	return steps[id-1], true
}

// Fields returns every catalogue field shown on the step, in order.
func (s Step) Fields() []Field {
	var out []Field
	for _, f := range catalogue {
		if f.Step == s.ID {
			out = append(out, f)
		}
	}
	return out
}

// Triggers returns the field names validated when leaving the step.
// Conditional fields owned by the step are included only when strict.
func (s Step) Triggers(strict bool) []string {
	out := make([]string, len(s.triggers))
	copy(out, s.triggers)
	if strict {
		for _, f := range s.Fields() {
			if f.Conditional() {
				out = append(out, f.Name)
			}
		}
	}
	return out
}

// Validate checks the step's trigger fields.
func (s Step) Validate(v *Validator, p *models.Profile) FieldErrors {
	return v.ValidateFields(p, s.Triggers(v.Strict())...)
}
