package cleaning

import (
	"slices"
	"strings"
	"time"

	"salarycli/internal/survey"
)

// Intermediate column names between renaming and encoding
const (
	colCompanyLocation = "company_location"
	colEmploymentType  = "employment_type"
	colWorkMode        = "work_mode"
	colLevel           = "level"
	colRole            = "role"
	colSalaryRange     = "salary_range"
	colProgramming     = "programming_languages"
	colFrontend        = "frontend_technologies"
	colTools           = "tools"

	noneAnswer        = "Hiçbiri"
	overseasHubAnswer = "Yurtdışı TR hub"
)

// HeaderMapping translates the survey questions to column names
var HeaderMapping = map[string]string{
	"Timestamp":       survey.ColTimestamp,
	"Şirket lokasyon": colCompanyLocation,
	"Çalışma türü":    colEmploymentType,
	"Çalışma şekli":   colWorkMode,
	"Cinsiyet":        survey.ColGender,
	"Toplam kaç yıllık iş deneyimin var?":           survey.ColExperience,
	"Hangi seviyedesin?":                            colLevel,
	"Hangi programlama dillerini kullanıyorsun":     colProgramming,
	"Ne yapıyorsun?":                                colRole,
	"Frontend yazıyorsan hangilerini kullanıyorsun": colFrontend,
	"Hangi tool'ları kullanıyorsun":                 colTools,
	"Aylık ortalama net kaç bin TL alıyorsun?":      colSalaryRange,
}

// requiredColumns must exist after renaming; multi-select questions are optional
var requiredColumns = []string{
	survey.ColTimestamp, colCompanyLocation, colEmploymentType, colWorkMode,
	survey.ColGender, survey.ColExperience, colLevel, colRole, colSalaryRange,
}

// categoricalColumns are imputed with their mode
var categoricalColumns = []string{
	colCompanyLocation, colEmploymentType, colWorkMode,
	survey.ColGender, survey.ColExperience, colLevel, colRole,
}

var multiSelectColumns = []string{colProgramming, colFrontend, colTools}

var oneHotColumns = []string{colCompanyLocation, colEmploymentType, colWorkMode, colRole}

var experienceMap = map[string]string{
	"0": "0", "1": "1", "2": "2", "3": "3", "4": "4", "5": "5",
	"6": "6", "7": "7", "8": "8", "9": "9", "10": "10",
	"11 - 15": "13", "16 - 20": "18", "20 - 30": "25", "30+": "30",
}

var seniorityMap = map[string]string{
	"Junior":         "1",
	"Mid":            "2",
	"Senior":         "3",
	"Staff Engineer": "4",
	"Team Lead":      "5",
	"Architect":      "6",
}

var managementLevels = map[string]bool{
	"Engineering Manager":    true,
	"Director Level Manager": true,
	"C-Level Manager":        true,
	"Partner":                true,
}

var genderMap = map[string]string{
	"Erkek": "0",
	"Kadın": "1",
}

var timestampLayouts = []string{
	survey.TimestampLayout,
	"2006/01/02 15:04:05",
	"2006/01/02 3:04:05 PM",
	"1/2/2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// rawHeaders inverts HeaderMapping for the columns present in the table
func rawHeaders(t *survey.Table) map[string]string {
	out := make(map[string]string, len(HeaderMapping))
	for raw, name := range HeaderMapping {
		if t.Has(raw) {
			out[name] = raw
		}
	}
	return out
}

// mode returns the most frequent non-missing value; ties go to the smallest
func mode(cells []string) (string, bool) {
	counts := make(map[string]int)
	for _, c := range cells {
		if !survey.IsMissing(c) {
			counts[strings.TrimSpace(c)]++
		}
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best, bestCount > 0
}

// fillMissing replaces missing cells in place and returns how many were filled
func fillMissing(cells []string, value string) int {
	n := 0
	for i, c := range cells {
		if survey.IsMissing(c) {
			cells[i] = value
			n++
		}
	}
	return n
}

// ParseTimestamp accepts the layouts form exports are known to use
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func normalizeTimestamps(cells []string) (out []string, invalid int) {
	out = make([]string, len(cells))
	for i, c := range cells {
		ts, ok := ParseTimestamp(c)
		if !ok {
			invalid++
			continue
		}
		out[i] = ts.Format(survey.TimestampLayout)
	}
	return out, invalid
}

// InferLocation reports whether the respondent most likely lives where the company is
func InferLocation(companyLocation, workMode string) int {
	if strings.TrimSpace(companyLocation) == overseasHubAnswer {
		return 0
	}
	switch strings.TrimSpace(workMode) {
	case "Office", "Hybrid":
		return 1
	default:
		return 0
	}
}

// oneHot replaces column with <prefix>_<value> indicator columns in sorted category order
func oneHot(t *survey.Table, column, prefix string) ([]string, error) {
	cells := t.Column(column)
	categories := distinct(cells)
	t.Drop(column)

	added := make([]string, 0, len(categories))
	for _, cat := range categories {
		values := make([]string, len(cells))
		for i, c := range cells {
			values[i] = indicator(strings.TrimSpace(c) == cat)
		}
		name := prefix + "_" + cat
		if err := t.Set(name, values); err != nil {
			return nil, err
		}
		added = append(added, name)
	}
	return added, nil
}

func distinct(cells []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cells {
		v := strings.TrimSpace(c)
		if survey.IsMissing(v) || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func mapCells(cells []string, mapping map[string]string, fallback string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if v, ok := mapping[strings.TrimSpace(c)]; ok {
			out[i] = v
		} else {
			out[i] = fallback
		}
	}
	return out
}

func indicator(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
