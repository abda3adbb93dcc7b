package scores

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Live indicators: innings chases ("need 54 runs", "chasing 180"), an
	// explicit Live tag, or a minute marker like 67'. Deliberately
	// case-sensitive on "Live" so prose containing "delivered" etc. does not
	// flag a finished match as running.
	liveRe = regexp.MustCompile(`need|chasing|Live|\d'`)
	// Finished indicators take precedence over any coincidental live-looking
	// substring in the same text.
	finishedRe = regexp.MustCompile(`won by|won|Full Time|\bFT\b`)
)

// ShortName derives the display code for a team. Names of up to four
// characters are used as-is, uppercased; longer names become an acronym of
// the initials of up to the first three words, with non-alphanumeric
// characters stripped before splitting.
func ShortName(name string) string {
	name = normalizeSpace(name)
	if name == "" {
		return ""
	}
	if len([]rune(name)) <= 4 {
		return strings.ToUpper(name)
	}

	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, name)

	words := strings.Fields(cleaned)
	if len(words) > 3 {
		words = words[:3]
	}

	var b strings.Builder
	for _, w := range words {
		b.WriteString(strings.ToUpper(string([]rune(w)[0])))
	}
	return b.String()
}

// DeriveIsLive reports whether a match is in progress. A match is live when
// a live indicator appears in either the raw fragment text or the status
// line, and the status line carries no finished indicator.
func DeriveIsLive(rawText, status string) bool {
	if finishedRe.MatchString(status) {
		return false
	}
	return liveRe.MatchString(rawText) || liveRe.MatchString(status)
}

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// teamOrNil builds a Team record, returning nil when there is nothing to
// show for the side. Short falls back to derivation when the upstream gave
// no short name of its own.
func teamOrNil(name, score, short string, logo *string) *Team {
	name = normalizeSpace(name)
	if name == "" && normalizeSpace(score) == "" && logo == nil {
		return nil
	}
	if short == "" {
		short = ShortName(name)
	}
	return &Team{
		Name:  name,
		Score: normalizeSpace(score),
		Logo:  logo,
		Short: short,
	}
}
