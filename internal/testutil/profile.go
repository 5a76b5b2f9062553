// Package testutil holds fixtures shared by package tests.
package testutil

import "github.com/parisxmas/icpform/internal/models"

// ValidProfile returns a questionnaire that passes every rule.
func ValidProfile() models.Profile {
	return models.Profile{
		CompanyName:         "Acme Analytics",
		WebsiteURL:          "https://acme.example.com",
		Industry:            "technology",
		BusinessDescription: "We build dashboards for retail chains.",
		AgeGroups:           []string{"25-34", "35-44"},
		Genders:             []string{"female", "male"},
		Profession:          "Store managers",
		Interests:           "Inventory forecasting and staff scheduling",
		Regions:             []string{"global"},
		PurchasingBehavior:  "both",
		SeoGoals:            []string{"increase-traffic", "boost-sales"},
		SeoType:             "global",
		TargetKeywords:      "retail analytics, forecasting",
		Competitors:         "Looker, Tableau",
		CompetitorWebsites:  "looker.com, tableau.com",
		ContentTone:         "informative",
		ContentTypes:        []string{"blogs", "case-studies"},
		ExistingContent:     "yes",
	}
}
