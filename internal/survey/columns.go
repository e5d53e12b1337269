package survey

import (
	"fmt"
	"strings"
)

// Canonical column names of the cleaned dataset
const (
	ColTimestamp        = "timestamp"
	ColGender           = "gender"
	ColExperience       = "experience_years"
	ColSalary           = "salary_numeric"
	ColLocationInferred = "is_likely_in_company_location"
	ColSeniority        = "seniority_level_ic"
	ColManager          = "is_manager"

	PrefixCompanyLocation = "company_location_"
	PrefixEmploymentType  = "employment_type_"
	PrefixWorkMode        = "work_mode_"
	PrefixRole            = "role_"
	PrefixManagement      = "management_"
	PrefixProgramming     = "programming_"
	PrefixFrontend        = "frontend_"
	PrefixTools           = "tools_"

	ColReact         = "frontend_React"
	ColRemote        = "work_mode_Remote"
	ColOffice        = "work_mode_Office"
	ColHybrid        = "work_mode_Hybrid"
	ColEurope        = "company_location_Avrupa"
	ColTurkey        = "company_location_Turkiye"
	ColNoLanguage    = "programming_Hicbiri"
	ColNoFrontend    = "frontend_Kullanmiyorum"
	ColJavaScript    = "programming_JavaScript"
	ColPython        = "programming_Python"
	ColTypeScript    = "programming_TypeScript"
	ColEmploymentOwn = "employment_type_Kendi_isim"

	// TimestampLayout is the layout timestamps are written with after cleaning
	TimestampLayout = "2006-01-02 15:04:05"
)

// Gender codes
const (
	GenderMale   = 0.0
	GenderFemale = 1.0
)

// TechnologyPrefixes are the multi-select families used for ROI and correlations
var TechnologyPrefixes = []string{PrefixProgramming, PrefixFrontend, PrefixTools}

// ExcludedTechnologyColumns are "none of these" answers that carry no technology.
// The Hicbiri flags of frontend and tools come from imputed empty answers.
var ExcludedTechnologyColumns = map[string]bool{
	ColNoLanguage:      true,
	ColNoFrontend:      true,
	"frontend_Hicbiri": true,
	"tools_Hicbiri":    true,
}

// LocationNote qualifies every statement about inferred respondent location
const LocationNote = "Note: Estimated location is inferred from company location and work mode (Office/Hybrid → company location). Not definitive."

var careerLevels = map[int]string{
	0: "Management",
	1: "Junior",
	2: "Mid",
	3: "Senior",
	4: "Staff Engineer",
	5: "Team Lead",
	6: "Architect",
}

// CareerLevelLabel returns the label of a seniority_level_ic value
func CareerLevelLabel(level int) string {
	if label, ok := careerLevels[level]; ok {
		return label
	}
	return fmt.Sprintf("Level %d", level)
}

// CareerLevels returns the known seniority codes in ascending order
func CareerLevels() []int {
	return []int{0, 1, 2, 3, 4, 5, 6}
}

var displayLabels = map[string]string{
	"Turkiye":         "Türkiye",
	"Avrupa":          "Europe",
	"Amerika":         "America",
	"Yurtdisi_TR_hub": "Overseas TR hub",
	"Kendi_isim":      "Self-employed",
	"Tam_zamanli":     "Full-time",
	"Yari_zamanli":    "Part-time",
	"Hicbiri":         "None",
	"Kullanmiyorum":   "Not used",
}

// DisplayLabel turns a one-hot column into a human readable category label
func DisplayLabel(column, prefix string) string {
	value := strings.TrimPrefix(column, prefix)
	if label, ok := displayLabels[value]; ok {
		return label
	}
	return strings.ReplaceAll(value, "_", " ")
}

// GenderLabel returns the label of a gender code
func GenderLabel(code float64) string {
	switch code {
	case GenderMale:
		return "Male"
	case GenderFemale:
		return "Female"
	default:
		return "Unknown"
	}
}

// HourBucket groups a submission hour into the four periods of the day
func HourBucket(hour int) string {
	switch {
	case hour < 0:
		return ""
	case hour <= 6:
		return "Night (0-6)"
	case hour <= 12:
		return "Morning (7-12)"
	case hour <= 18:
		return "Afternoon (13-18)"
	default:
		return "Evening (19-23)"
	}
}

// HourBuckets lists the bucket labels in chronological order
func HourBuckets() []string {
	return []string{"Night (0-6)", "Morning (7-12)", "Afternoon (13-18)", "Evening (19-23)"}
}
