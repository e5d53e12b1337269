package cleaning

import (
	"regexp"
	"slices"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"salarycli/internal/survey"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	nonSlugRun     = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonColumnChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	underscoreRun  = regexp.MustCompile(`_+`)
)

var tokenAliases = map[string]string{
	"objective c": "Objective C",
	"r language":  "R Language",
	"html css":    "HTML/CSS",
	"html/css":    "HTML/CSS",
	"c sharp":     "C#",
	"c plus plus": "C++",
	"js":          "JavaScript",
	"ts":          "TypeScript",
}

// NormalizeToken trims a multi-select answer, collapses inner whitespace and
// resolves known spelling variants
func NormalizeToken(v string) string {
	text := whitespaceRun.ReplaceAllString(strings.TrimSpace(v), " ")
	key := strings.ToLower(text)
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	if alias, ok := tokenAliases[key]; ok {
		return alias
	}
	return text
}

// SplitTokens returns the distinct normalised answers of a cell, sorted
func SplitTokens(cell string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(cell, ",") {
		tok := NormalizeToken(part)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	slices.Sort(out)
	return out
}

// Slug reduces a label to [A-Za-z0-9_] after transliteration
func Slug(label string) string {
	s := nonSlugRun.ReplaceAllString(unidecode.Unidecode(label), "_")
	return strings.Trim(underscoreRun.ReplaceAllString(s, "_"), "_")
}

// CleanColumnName transliterates a header and keeps only [A-Za-z0-9_]
func CleanColumnName(name string) string {
	s := unidecode.Unidecode(name)
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = nonColumnChars.ReplaceAllString(s, "_")
	s = underscoreRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// multiSelectPrefix is the text before the first underscore of a source column
func multiSelectPrefix(column string) string {
	prefix, _, _ := strings.Cut(column, "_")
	return prefix
}

// expansion records what a multi-select source turned into
type expansion struct {
	source  string
	prefix  string
	tokens  int
	columns []string
	dropped []string
}

// expandMultiSelect binarises a comma separated column over its sorted token set
// as <prefix>__<slug>. Labels whose slug collides with an earlier one are dropped.
func expandMultiSelect(t *survey.Table, column string) (expansion, error) {
	cells := t.Column(column)
	ex := expansion{source: column, prefix: multiSelectPrefix(column)}

	rows := make([]map[string]bool, len(cells))
	classSet := make(map[string]bool)
	for i, c := range cells {
		if survey.IsMissing(c) {
			c = noneAnswer
		}
		toks := SplitTokens(c)
		rows[i] = make(map[string]bool, len(toks))
		for _, tok := range toks {
			rows[i][tok] = true
			classSet[tok] = true
		}
		ex.tokens += len(toks)
	}

	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	t.Drop(column)
	for _, class := range classes {
		name := ex.prefix + "__" + Slug(class)
		if t.Has(name) {
			ex.dropped = append(ex.dropped, class)
			continue
		}
		values := make([]string, len(cells))
		for i := range rows {
			values[i] = indicator(rows[i][class])
		}
		if err := t.Set(name, values); err != nil {
			return ex, err
		}
		ex.columns = append(ex.columns, name)
	}
	return ex, nil
}
