// Package highlight marks scientific (taxonomic) names in free-text passages
// with an emphasis wrapper: markdown for screen display, HTML for the export
// report. Matching is case-insensitive, whole-word, and idempotent.
package highlight

import (
	"regexp"
	"strings"
)

// Style is the emphasis wrapper applied around a matched name.
type Style struct {
	Open  string
	Close string
}

// Markdown wraps names for on-screen display.
var Markdown = Style{Open: "*", Close: "*"}

// HTML wraps names for the export report.
var HTML = Style{Open: "<i>", Close: "</i>"}

// subspeciesMarkers are the tokens recognized between the species epithet and
// a subspecies/variety epithet.
var subspeciesMarkers = map[string]struct{}{
	"subsp.":     {},
	"ssp.":       {},
	"subspecies": {},
	"var.":       {},
	"variety":    {},
}

// markerAlternatives covers both styles' wrappers so a text highlighted in
// one style is left alone by a second pass in either style.
const (
	openMarkers  = `\*|<i>`
	closeMarkers = `\*|</i>`
)

// Highlighter holds the compiled patterns for one model's species list.
type Highlighter struct {
	patterns []*regexp.Regexp
}

// New builds a Highlighter from a species list. Each name yields an ordered
// set of patterns, most specific first: the subspecies-qualified form when
// the name carries one, then the genus+species binomial, then the
// abbreviated-genus forms. Names shorter than 3 characters are skipped.
func New(scientificNames []string) *Highlighter {
	h := &Highlighter{}
	seen := make(map[string]struct{})

	for _, name := range scientificNames {
		for _, form := range nameForms(name) {
			if _, dup := seen[form]; dup {
				continue
			}
			seen[form] = struct{}{}
			h.patterns = append(h.patterns, compileForm(form))
		}
	}
	return h
}

// Apply wraps every unwrapped occurrence of each known name form in the
// given style. Applying twice yields the same output as applying once.
func (h *Highlighter) Apply(text string, style Style) string {
	for _, re := range h.patterns {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			sub := re.FindStringSubmatch(match)
			// Already wrapped occurrences are left untouched.
			if sub[1] != "" || sub[3] != "" {
				return match
			}
			return style.Open + sub[2] + style.Close
		})
	}
	return text
}

// nameForms expands one stored scientific name into the ordered list of
// textual forms to match.
func nameForms(name string) []string {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil
	}

	fields := strings.Fields(name)
	if len(fields) < 2 {
		// A bare genus still gets whole-word matching.
		return []string{name}
	}

	genus, species := fields[0], fields[1]
	abbrev := string([]rune(genus)[0]) + "."

	var forms []string

	// Subspecies-qualified form first, when present.
	if len(fields) >= 4 {
		if _, ok := subspeciesMarkers[strings.ToLower(fields[2])]; ok {
			qualified := strings.Join(fields, " ")
			forms = append(forms, qualified)
			forms = append(forms, abbrev+" "+strings.Join(fields[1:], " "))
		}
	}

	forms = append(forms, genus+" "+species)
	forms = append(forms, abbrev+" "+species)

	return forms
}

// compileForm builds the matching pattern for one name form. The optional
// surrounding groups capture an existing emphasis wrapper; the replacement
// only fires when both are absent (idempotence guard). Word boundaries keep
// a name embedded in a longer word from matching.
func compileForm(form string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(form)
	// Tolerate runs of whitespace between name tokens.
	quoted = strings.ReplaceAll(quoted, " ", `\s+`)
	return regexp.MustCompile(`(?i)(` + openMarkers + `)?\b(` + quoted + `)\b(` + closeMarkers + `)?`)
}
