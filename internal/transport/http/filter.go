package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"salarycli/internal/analysis"
	apierrors "salarycli/internal/errors"
	"salarycli/internal/survey"
)

// Query parameters of the dashboard filter. Each may repeat or hold a comma
// separated list.
const (
	ParamExperience = "experience"
	ParamLevel      = "level"
	ParamWorkMode   = "work_mode"
	ParamGender     = "gender"
)

// ParseFilter reads the dashboard filter from a query string
func ParseFilter(q url.Values) (analysis.Filter, error) {
	var (
		f    analysis.Filter
		errs []apierrors.ValidationError
	)
	reject := func(param, value, reason string) {
		errs = append(errs, apierrors.ValidationError{
			Field:   param,
			Message: fmt.Sprintf("%q %s", value, reason),
		})
	}

	for _, v := range values(q, ParamExperience) {
		e, err := strconv.ParseFloat(v, 64)
		if err != nil || e < 0 {
			reject(ParamExperience, v, "is not a non-negative number")
			continue
		}
		f.Experience = append(f.Experience, e)
	}
	for _, v := range values(q, ParamLevel) {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			reject(ParamLevel, v, "is not a career level")
			continue
		}
		f.Levels = append(f.Levels, l)
	}
	for _, v := range values(q, ParamWorkMode) {
		if strings.ContainsAny(v, "/\\ ") {
			reject(ParamWorkMode, v, "is not a work mode")
			continue
		}
		f.WorkModes = append(f.WorkModes, v)
	}
	for _, v := range values(q, ParamGender) {
		g, err := strconv.ParseFloat(v, 64)
		if err != nil || (g != survey.GenderMale && g != survey.GenderFemale) {
			reject(ParamGender, v, "must be 0 (male) or 1 (female)")
			continue
		}
		f.Genders = append(f.Genders, g)
	}

	if len(errs) > 0 {
		return analysis.Filter{}, apierrors.NewValidationErrors(errs)
	}
	return f, nil
}

func values(q url.Values, param string) []string {
	var out []string
	for _, raw := range q[param] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// FilterQuery encodes f back into query parameters
func FilterQuery(f analysis.Filter) url.Values {
	q := url.Values{}
	for _, e := range f.Experience {
		q.Add(ParamExperience, survey.FormatFloat(e))
	}
	for _, l := range f.Levels {
		q.Add(ParamLevel, strconv.Itoa(l))
	}
	for _, m := range f.WorkModes {
		q.Add(ParamWorkMode, m)
	}
	for _, g := range f.Genders {
		q.Add(ParamGender, survey.FormatFloat(g))
	}
	return q
}
