// Package schema describes the ICP questionnaire: its fields, the rules
// each field must satisfy, and the five steps the fields are grouped into.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/parisxmas/icpform/internal/models"
)

// ErrUnknownField is returned for a name that is not in the catalogue.
var ErrUnknownField = errors.New("schema: unknown field")

// Kind is the shape of a field's value.
type Kind int

const (
	KindText     Kind = iota // required free text
	KindURL                  // required URL
	KindChoice               // one value from Options
	KindTags                 // one or more values from Options
	KindOptional             // unconstrained free text
)

// Option is one selectable value.
type Option struct {
	Value string
	Label string
}

// Field describes one questionnaire field.
type Field struct {
	Name        string
	Label       string
	Placeholder string
	Kind        Kind
	Step        StepID
	Options     []Option
	Multiline   bool

	// Message is reported when the field's rule fails.
	Message string

	// DependsOn and Sentinel make an optional field conditionally
	// required: it must be filled when DependsOn equals (or, for tags,
	// contains) Sentinel.
	DependsOn string
	Sentinel  string
}

// Conditional reports whether the field is only required by a sibling value.
func (f Field) Conditional() bool { return f.DependsOn != "" }

// Revealed reports whether the field is shown for p. Unconditional
// fields are always shown.
func (f Field) Revealed(p *models.Profile) bool {
	return !f.Conditional() || triggered(p, f)
}

// HasOption reports whether v is one of the field's option values.
func (f Field) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

var catalogue = []Field{
	// Step 1
	{Name: "companyName", Label: "Company Name", Placeholder: "Enter your company name", Kind: KindText, Step: BusinessInfo,
		Message: "Company name is required"},
	{Name: "websiteUrl", Label: "Website URL", Placeholder: "https://example.com", Kind: KindURL, Step: BusinessInfo,
		Message: "Please enter a valid URL"},
	{Name: "industry", Label: "Industry/Niche", Kind: KindChoice, Step: BusinessInfo,
		Message: "Industry is required",
		Options: []Option{
			{"e-commerce", "E-commerce"},
			{"technology", "Technology"},
			{"health-wellness", "Health & Wellness"},
			{"education", "Education"},
			{"real-estate", "Real Estate"},
			{"finance", "Finance"},
			{"other", "Others (Specify)"},
		}},
	{Name: "otherIndustry", Label: "Specify Industry", Placeholder: "Please specify your industry", Kind: KindOptional, Step: BusinessInfo,
		Message: "Please specify your industry", DependsOn: "industry", Sentinel: "other"},
	{Name: "businessDescription", Label: "Brief description of your business and offerings",
		Placeholder: "Tell us about your business and what you offer", Kind: KindText, Step: BusinessInfo, Multiline: true,
		Message: "Please provide a brief description"},

	// Step 2
	{Name: "ageGroups", Label: "Primary target audience (Age Group)", Kind: KindTags, Step: TargetAudience,
		Message: "Select at least one age group",
		Options: []Option{{"18-24", "18-24"}, {"25-34", "25-34"}, {"35-44", "35-44"}, {"45-54", "45-54"}, {"55+", "55+"}}},
	{Name: "genders", Label: "Gender", Kind: KindTags, Step: TargetAudience,
		Message: "Select at least one gender",
		Options: []Option{{"male", "Male"}, {"female", "Female"}, {"other", "Other"}}},
	{Name: "profession", Label: "Profession", Placeholder: "Enter target profession", Kind: KindOptional, Step: TargetAudience},
	{Name: "interests", Label: "Main interests or pain points related to your industry",
		Placeholder: "Describe interests or pain points of your target audience", Kind: KindText, Step: TargetAudience, Multiline: true,
		Message: "Please describe interests or pain points"},
	{Name: "regions", Label: "Geographical regions or markets you primarily target", Kind: KindTags, Step: TargetAudience,
		Message: "Select at least one region",
		Options: []Option{{"specific-countries", "Specific Countries"}, {"specific-cities", "Specific Cities"}, {"global", "Global"}}},
	{Name: "specificCountries", Label: "Specify Countries", Placeholder: "Enter countries separated by commas", Kind: KindOptional, Step: TargetAudience,
		Message: "Please specify countries", DependsOn: "regions", Sentinel: "specific-countries"},
	{Name: "specificCities", Label: "Specify Cities", Placeholder: "Enter cities separated by commas", Kind: KindOptional, Step: TargetAudience,
		Message: "Please specify cities", DependsOn: "regions", Sentinel: "specific-cities"},
	{Name: "purchasingBehavior", Label: "Typical purchasing behavior of your customers", Kind: KindChoice, Step: TargetAudience,
		Message: "Please select purchasing behavior",
		Options: []Option{{"online", "Online"}, {"in-store", "In-store"}, {"both", "Both"}}},

	// Step 3
	{Name: "seoGoals", Label: "Main goals for SEO", Kind: KindTags, Step: SeoGoals,
		Message: "Select at least one SEO goal",
		Options: []Option{
			{"increase-traffic", "Increase organic traffic"},
			{"rank-keywords", "Rank for specific keywords"},
			{"boost-sales", "Boost sales and conversions"},
			{"improve-visibility", "Improve brand visibility"},
			{"reduce-bounce", "Reduce bounce rate"},
			{"other", "Other (Specify)"},
		}},
	{Name: "otherSeoGoal", Label: "Specify Other SEO Goal", Placeholder: "Please specify your other SEO goal", Kind: KindOptional, Step: SeoGoals,
		Message: "Please specify your other SEO goal", DependsOn: "seoGoals", Sentinel: "other"},
	{Name: "seoType", Label: "Focus on SEO type", Kind: KindChoice, Step: SeoGoals,
		Message: "Please select SEO type",
		Options: []Option{{"local", "Local SEO"}, {"global", "Global SEO"}}},
	{Name: "targetKeywords", Label: "Specific keywords or topics you'd like to target",
		Placeholder: "Enter keywords or topics separated by commas", Kind: KindText, Step: SeoGoals, Multiline: true,
		Message: "Please provide target keywords"},

	// Step 4
	{Name: "competitors", Label: "Main competitors in your industry", Placeholder: "List your main competitors",
		Kind: KindText, Step: CompetitorAnalysis, Multiline: true,
		Message: "Please list your main competitors"},
	{Name: "competitorWebsites", Label: "Competitor websites", Placeholder: "Please list their URLs",
		Kind: KindText, Step: CompetitorAnalysis, Multiline: true,
		Message: "Please list competitor websites"},

	// Step 5
	{Name: "contentTone", Label: "Preferred tone of content", Kind: KindChoice, Step: ContentPreferences,
		Message: "Please select content tone",
		Options: []Option{
			{"formal", "Formal"},
			{"conversational", "Conversational"},
			{"technical", "Technical"},
			{"persuasive", "Persuasive"},
			{"informative", "Informative"},
		}},
	{Name: "contentTypes", Label: "Type of content that resonates best with your audience", Kind: KindTags, Step: ContentPreferences,
		Message: "Select at least one content type",
		Options: []Option{
			{"blogs", "Blogs/Articles"},
			{"videos", "Videos"},
			{"infographics", "Infographics"},
			{"case-studies", "Case Studies"},
			{"webinars", "Webinars"},
			{"podcasts", "Podcasts"},
		}},
	{Name: "existingContent", Label: "Do you have existing content you'd like optimized?", Kind: KindChoice, Step: ContentPreferences,
		Message: "Please select an option",
		Options: []Option{{"yes", "Yes"}, {"no", "No"}}},
}

var (
	byName     = make(map[string]int, len(catalogue))
	fieldIndex = make(map[string]int)
)

func init() {
	for i, f := range catalogue {
		byName[f.Name] = i
	}
	t := reflect.TypeOf(models.Profile{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		fieldIndex[name] = i
	}
}

// Fields returns the catalogue in questionnaire order.
func Fields() []Field {
	out := make([]Field, len(catalogue))
	copy(out, catalogue)
	return out
}

// Lookup returns the field named name.
func Lookup(name string) (Field, bool) {
	i, ok := byName[name]
	if !ok {
		return Field{}, false
	}
	return catalogue[i], true
}

// Get returns the value of the named field: a string, or a []string for tags.
func Get(p *models.Profile, name string) (any, error) {
	i, ok := fieldIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v := reflect.ValueOf(p).Elem().Field(i)
	if v.Kind() == reflect.Slice {
		out := make([]string, v.Len())
		copy(out, v.Interface().([]string))
		return out, nil
	}
	return v.String(), nil
}

// Set assigns value to the named field. Text fields take a string and
// tag fields take a []string.
func Set(p *models.Profile, name string, value any) error {
	i, ok := fieldIndex[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	v := reflect.ValueOf(p).Elem().Field(i)
	switch val := value.(type) {
	case string:
		if v.Kind() != reflect.String {
			return fmt.Errorf("schema: field %q takes a list of values", name)
		}
		v.SetString(val)
	case []string:
		if v.Kind() != reflect.Slice {
			return fmt.Errorf("schema: field %q takes a single value", name)
		}
		tags := make([]string, len(val))
		copy(tags, val)
		v.Set(reflect.ValueOf(tags))
	default:
		return fmt.Errorf("schema: field %q: unsupported value type %T", name, value)
	}
	return nil
}
