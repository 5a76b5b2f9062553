package models

import "time"

// Profile is one Ideal Customer Profile questionnaire. Field names match
// the JSON body accepted by the intake endpoint and the stored document.
type Profile struct {
	// Business information
	CompanyName         string `json:"companyName" bson:"companyName" validate:"required"`
	WebsiteURL          string `json:"websiteUrl" bson:"websiteUrl" validate:"required,url"`
	Industry            string `json:"industry" bson:"industry" validate:"required,oneof=e-commerce technology health-wellness education real-estate finance other"`
	OtherIndustry       string `json:"otherIndustry" bson:"otherIndustry"`
	BusinessDescription string `json:"businessDescription" bson:"businessDescription" validate:"min=10"`

	// Target audience
	AgeGroups          []string `json:"ageGroups" bson:"ageGroups" validate:"min=1,dive,oneof=18-24 25-34 35-44 45-54 55+"`
	Genders            []string `json:"genders" bson:"genders" validate:"min=1,dive,oneof=male female other"`
	Profession         string   `json:"profession" bson:"profession"`
	Interests          string   `json:"interests" bson:"interests" validate:"min=10"`
	Regions            []string `json:"regions" bson:"regions" validate:"min=1,dive,oneof=specific-countries specific-cities global"`
	SpecificCountries  string   `json:"specificCountries" bson:"specificCountries"`
	SpecificCities     string   `json:"specificCities" bson:"specificCities"`
	PurchasingBehavior string   `json:"purchasingBehavior" bson:"purchasingBehavior" validate:"required,oneof=online in-store both"`

	// SEO goals
	SeoGoals       []string `json:"seoGoals" bson:"seoGoals" validate:"min=1,dive,oneof=increase-traffic rank-keywords boost-sales improve-visibility reduce-bounce other"`
	OtherSeoGoal   string   `json:"otherSeoGoal" bson:"otherSeoGoal"`
	SeoType        string   `json:"seoType" bson:"seoType" validate:"required,oneof=local global"`
	TargetKeywords string   `json:"targetKeywords" bson:"targetKeywords" validate:"min=5"`

	// Competitor analysis
	Competitors        string `json:"competitors" bson:"competitors" validate:"min=5"`
	CompetitorWebsites string `json:"competitorWebsites" bson:"competitorWebsites" validate:"min=5"`

	// Content preferences
	ContentTone     string   `json:"contentTone" bson:"contentTone" validate:"required,oneof=formal conversational technical persuasive informative"`
	ContentTypes    []string `json:"contentTypes" bson:"contentTypes" validate:"min=1,dive,oneof=blogs videos infographics case-studies webinars podcasts"`
	ExistingContent string   `json:"existingContent" bson:"existingContent" validate:"required,oneof=yes no"`
}

// NewProfile returns an empty questionnaire with non-nil tag slices.
func NewProfile() Profile {
	return Profile{
		AgeGroups:    []string{},
		Genders:      []string{},
		Regions:      []string{},
		SeoGoals:     []string{},
		ContentTypes: []string{},
	}
}

// Clone returns a deep copy.
func (p Profile) Clone() Profile {
	p.AgeGroups = cloneTags(p.AgeGroups)
	p.Genders = cloneTags(p.Genders)
	p.Regions = cloneTags(p.Regions)
	p.SeoGoals = cloneTags(p.SeoGoals)
	p.ContentTypes = cloneTags(p.ContentTypes)
	return p
}

func cloneTags(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// StoredProfile is a persisted questionnaire.
type StoredProfile struct {
	ID string `json:"_id,omitempty"`
	Profile
	CreatedAt time.Time `json:"createdAt"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total int `json:"total" yaml:"total"`
	Page  int `json:"page" yaml:"page"`
	Limit int `json:"limit" yaml:"limit"`
	Pages int `json:"pages" yaml:"pages"`
}

// SubmissionPage is the data of a listing response.
type SubmissionPage struct {
	Submissions []StoredProfile `json:"submissions"`
	Pagination  Pagination      `json:"pagination"`
}
