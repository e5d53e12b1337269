package analysis

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"salarycli/internal/stats"
	"salarycli/internal/survey"
)

// TechnologyROI is the salary difference between users and non-users of a technology
type TechnologyROI struct {
	Technology  string  `json:"technology"`
	Category    string  `json:"category"`
	Column      string  `json:"column"`
	Users       int     `json:"users"`
	NonUsers    int     `json:"non_users"`
	UserMean    float64 `json:"user_mean"`
	NonUserMean float64 `json:"non_user_mean"`
	ROI         float64 `json:"roi"`
	ROIPct      float64 `json:"roi_pct"`
	T           float64 `json:"t_statistic"`
	P           float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// technologyColumns lists usable indicator columns of a prefix
func technologyColumns(d *survey.Dataset, prefix string) []string {
	var out []string
	for _, col := range d.ColumnsWithPrefix(prefix) {
		if !survey.ExcludedTechnologyColumns[col] {
			out = append(out, col)
		}
	}
	return out
}

// TechnologyROI computes the ROI of every technology with at least MinROIGroup
// users and non-users, sorted by ROI descending
func (a *Analyzer) TechnologyROI(d *survey.Dataset) []TechnologyROI {
	var out []TechnologyROI
	for _, prefix := range survey.TechnologyPrefixes {
		for _, col := range technologyColumns(d, prefix) {
			users := d.Salaries(d.Mask(col, 1))
			nonUsers := d.Salaries(d.Mask(col, 0))
			if len(users) < a.opts.MinROIGroup || len(nonUsers) < a.opts.MinROIGroup {
				continue
			}
			welch, err := stats.WelchTTest(users, nonUsers)
			if err != nil {
				continue
			}
			um, nm := stats.Mean(users), stats.Mean(nonUsers)
			roi := TechnologyROI{
				Technology:  survey.DisplayLabel(col, prefix),
				Category:    strings.TrimSuffix(prefix, "_"),
				Column:      col,
				Users:       len(users),
				NonUsers:    len(nonUsers),
				UserMean:    um,
				NonUserMean: nm,
				ROI:         um - nm,
				T:           welch.T,
				P:           welch.P,
				Significant: welch.P < a.opts.Alpha,
			}
			if nm != 0 {
				roi.ROIPct = roi.ROI / nm * 100
			}
			out = append(out, roi)
		}
	}
	slices.SortStableFunc(out, func(x, y TechnologyROI) int { return cmp.Compare(y.ROI, x.ROI) })
	return out
}

// SignificantROI keeps rows whose |ROI| is more than threshold of the user mean
func SignificantROI(rows []TechnologyROI, threshold float64) []TechnologyROI {
	var out []TechnologyROI
	for _, r := range rows {
		if math.Abs(r.ROI) > threshold*r.UserMean {
			out = append(out, r)
		}
	}
	return out
}

// FilterCategory returns the rows of one technology family
func FilterCategory(rows []TechnologyROI, category string) []TechnologyROI {
	var out []TechnologyROI
	for _, r := range rows {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// GenderUsage is the share of men and women using a technology
type GenderUsage struct {
	Technology string  `json:"technology"`
	Column     string  `json:"column"`
	Users      int     `json:"users"`
	OverallPct float64 `json:"overall_pct"`
	MalePct    float64 `json:"male_pct"`
	FemalePct  float64 `json:"female_pct"`
}

// GenderTechnologyUsage holds usage by gender for the most used technologies
type GenderTechnologyUsage struct {
	Languages []GenderUsage `json:"languages"`
	Frontend  []GenderUsage `json:"frontend"`
}

const (
	topGenderLanguages = 10
	topGenderFrontend  = 8
)

// GenderTechnologyUsage compares adoption of the top languages and frontend
// technologies between men and women
func (a *Analyzer) GenderTechnologyUsage(d *survey.Dataset) GenderTechnologyUsage {
	return GenderTechnologyUsage{
		Languages: genderUsage(d, survey.PrefixProgramming, topGenderLanguages),
		Frontend:  genderUsage(d, survey.PrefixFrontend, topGenderFrontend),
	}
}

func genderUsage(d *survey.Dataset, prefix string, top int) []GenderUsage {
	male := d.Mask(survey.ColGender, survey.GenderMale)
	female := d.Mask(survey.ColGender, survey.GenderFemale)
	nMale, nFemale := survey.Count(male), survey.Count(female)

	var out []GenderUsage
	for _, col := range technologyColumns(d, prefix) {
		used := d.Mask(col, 1)
		out = append(out, GenderUsage{
			Technology: survey.DisplayLabel(col, prefix),
			Column:     col,
			Users:      survey.Count(used),
			OverallPct: pct(survey.Count(used), d.Len()),
			MalePct:    pct(survey.Count(survey.And(used, male)), nMale),
			FemalePct:  pct(survey.Count(survey.And(used, female)), nFemale),
		})
	}
	slices.SortStableFunc(out, func(x, y GenderUsage) int { return cmp.Compare(y.Users, x.Users) })
	if len(out) > top {
		out = out[:top]
	}
	return out
}

// TechnologyCorrelation is the Pearson correlation of a technology flag with salary
type TechnologyCorrelation struct {
	Technology string  `json:"technology"`
	Category   string  `json:"category"`
	Column     string  `json:"column"`
	R          float64 `json:"r"`
	P          float64 `json:"p_value"`
}

// TechnologyCorrelations correlates every non-constant technology column with
// salary, strongest positive first
func (a *Analyzer) TechnologyCorrelations(d *survey.Dataset) []TechnologyCorrelation {
	salary := d.Float(survey.ColSalary)
	var out []TechnologyCorrelation
	for _, prefix := range survey.TechnologyPrefixes {
		for _, col := range technologyColumns(d, prefix) {
			res, err := stats.Pearson(d.Float(col), salary)
			if err != nil {
				continue
			}
			out = append(out, TechnologyCorrelation{
				Technology: survey.DisplayLabel(col, prefix),
				Category:   strings.TrimSuffix(prefix, "_"),
				Column:     col,
				R:          res.R,
				P:          res.P,
			})
		}
	}
	slices.SortStableFunc(out, func(x, y TechnologyCorrelation) int { return cmp.Compare(y.R, x.R) })
	return out
}
