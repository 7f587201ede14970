package icp

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// industryNames maps snake_case industry keys to their canonical display
// form. Unmatched values fall through to a title-cased rendering.
var industryNames = map[string]string{
	"information_technology_and_services": "Information Technology & Services",
	"computer_software":                   "Computer Software",
	"internet":                            "Internet",
	"financial_services":                  "Financial Services",
	"banking":                             "Banking",
	"insurance":                           "Insurance",
	"hospital_and_health_care":            "Hospital & Health Care",
	"biotechnology":                       "Biotechnology",
	"pharmaceuticals":                     "Pharmaceuticals",
	"medical_devices":                     "Medical Devices",
	"marketing_and_advertising":           "Marketing & Advertising",
	"management_consulting":               "Management Consulting",
	"telecommunications":                  "Telecommunications",
	"real_estate":                         "Real Estate",
	"construction":                        "Construction",
	"retail":                              "Retail",
	"consumer_goods":                      "Consumer Goods",
	"logistics_and_supply_chain":          "Logistics & Supply Chain",
	"automotive":                          "Automotive",
	"oil_and_energy":                      "Oil & Energy",
	"renewables_and_environment":          "Renewables & Environment",
	"education_management":                "Education Management",
	"higher_education":                    "Higher Education",
	"government_administration":           "Government Administration",
	"nonprofit_organization_management":   "Nonprofit Organization Management",
	"legal_services":                      "Legal Services",
	"accounting":                          "Accounting",
	"human_resources":                     "Human Resources",
	"staffing_and_recruiting":             "Staffing & Recruiting",
	"media_production":                    "Media Production",
	"entertainment":                       "Entertainment",
	"hospitality":                         "Hospitality",
	"food_and_beverages":                  "Food & Beverages",
	"manufacturing":                       "Manufacturing",
	"machinery":                           "Machinery",
	"aviation_and_aerospace":              "Aviation & Aerospace",
	"security_and_investigations":         "Security & Investigations",
	"wholesale":                           "Wholesale",
	"e_learning":                          "E-Learning",
}

// canonicalIndustries is the reverse set used to keep normalization
// idempotent: already-canonical values pass through untouched.
var canonicalIndustries = func() map[string]bool {
	set := make(map[string]bool, len(industryNames))
	for _, v := range industryNames {
		set[v] = true
	}
	return set
}()

var titleCaser = cases.Title(language.English)

// NormalizeIndustry maps a raw industry value to its canonical display
// form. Missing values become "Unknown". The function is idempotent:
// normalizing a normalized value returns it unchanged.
func NormalizeIndustry(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "Unknown"
	}
	if canonicalIndustries[s] {
		return s
	}

	key := strings.ToLower(strings.ReplaceAll(s, " ", "_"))
	if canonical, ok := industryNames[key]; ok {
		return canonical
	}

	// Fallback: title-case the raw value, "_" -> space, "And" -> "&".
	out := titleCaser.String(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	out = strings.ReplaceAll(out, " And ", " & ")
	return out
}
