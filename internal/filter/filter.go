package filter

import (
	"regexp"
	"strings"
)

// Short-form engines emit stray tokens for silence and noise. The filter
// encodes an acceptance policy separating those artifacts from deliberate
// short utterances.

var (
	timestampRange = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	timestampMilli = regexp.MustCompile(`\d{2}:\d{2}:\d{2}\.\d{3}`)
	timestampBare  = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
	nonAlphabetic  = regexp.MustCompile(`^[\d\s.,!?;:]*$`)
)

const trimCutset = " .,!?;-"

// DefaultNoiseWords are rejected outright when they make up the whole
// transcript.
func DefaultNoiseWords() []string {
	return []string{"um", "uh", "ah", "eh", "er"}
}

// DefaultMeaningfulWords are single-word utterances accepted despite their
// length.
func DefaultMeaningfulWords() []string {
	return []string{"you", "hello", "yes", "no", "okay", "ok", "stop", "go", "up", "down", "left", "right"}
}

// Filter cleans raw engine output and decides whether it is worth delivering.
type Filter struct {
	noise      map[string]struct{}
	meaningful map[string]struct{}
}

// New builds a filter from the configured noise and single-word whitelist
// sets. Empty slices fall back to the defaults.
func New(noiseWords, meaningfulWords []string) *Filter {
	if len(noiseWords) == 0 {
		noiseWords = DefaultNoiseWords()
	}
	if len(meaningfulWords) == 0 {
		meaningfulWords = DefaultMeaningfulWords()
	}
	return &Filter{
		noise:      toSet(noiseWords),
		meaningful: toSet(meaningfulWords),
	}
}

// Clean applies the filter pipeline in order: strip timestamp markup,
// normalize whitespace and edge punctuation, then run the acceptance rules.
// It returns the cleaned transcript and true, or "" and false on rejection.
func (f *Filter) Clean(raw string) (string, bool) {
	text := timestampRange.ReplaceAllString(raw, "")
	text = timestampMilli.ReplaceAllString(text, "")
	text = timestampBare.ReplaceAllString(text, "")

	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, trimCutset)

	lower := strings.ToLower(text)
	if len(lower) < 2 {
		return "", false
	}
	if _, isNoise := f.noise[lower]; isNoise {
		return "", false
	}

	// Single words are accepted only off the whitelist; everything else a
	// short-form engine produces alone is overwhelmingly a noise artifact.
	words := strings.Fields(lower)
	if len(words) == 1 {
		if _, ok := f.meaningful[words[0]]; ok {
			return text, true
		}
		return "", false
	}

	if nonAlphabetic.MatchString(text) {
		return "", false
	}

	return text, true
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		trimmed := strings.ToLower(strings.TrimSpace(word))
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}
