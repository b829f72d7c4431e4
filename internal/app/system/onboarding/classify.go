package onboarding

import (
	"strings"

	"github.com/dalemusser/santahub/internal/app/system/normalize"
)

// Reply is the coarse meaning of a yes/no style answer.
type Reply int

const (
	ReplyUnknown Reply = iota
	ReplyYes
	ReplyNo
)

// Replies are read in order: the opening word or phrase decides when it
// is a clear yes or no; otherwise a firm negative phrase anywhere means no,
// then any affirmative means yes, and only then does a bare negator such as
// "not" or "never" count as no.
var (
	openingNegative = []string{
		"no", "n", "nope", "nah", "never", "decline", "pass", "stop",
		"no thanks", "not yet", "not interested", "not now", "not really",
	}
	firmNegative = []string{
		"no thanks", "not yet", "not interested", "not now", "not really",
		"not sure", "not sent", "not done", "not shipped",
		"didn't", "didnt", "haven't", "havent", "decline", "count me out",
	}
	bareNegative = []string{
		"no", "n", "nope", "nah", "not", "never", "pass", "stop",
		"don't", "dont", "won't", "wont",
	}
	affirmativeVocab = []string{
		"yes", "y", "yeah", "yea", "yep", "yup", "sure", "ok", "okay",
		"absolutely", "definitely", "of course", "sent", "done", "shipped",
		"count me in", "i'm in", "im in", "let's go", "lets go",
		"why not", "no problem", "no worries",
	}
)

var skipVocab = map[string]bool{"skip": true, "none": true, "n/a": true}

// Classify reads text as a yes, a no or neither. Matching is loose: the
// message only has to contain one of the vocabulary words or phrases.
func Classify(text string) Reply {
	words := normalize.Words(strings.ReplaceAll(text, "’", "'"))
	if len(words) == 0 {
		return ReplyUnknown
	}
	joined := " " + strings.Join(words, " ") + " "
	switch {
	case startsWithAny(joined, affirmativeVocab):
		return ReplyYes
	case startsWithAny(joined, openingNegative):
		return ReplyNo
	case containsAny(joined, firmNegative):
		return ReplyNo
	case containsAny(joined, affirmativeVocab):
		return ReplyYes
	case containsAny(joined, bareNegative):
		return ReplyNo
	}
	return ReplyUnknown
}

func startsWithAny(joined string, vocab []string) bool {
	for _, v := range vocab {
		if strings.HasPrefix(joined, " "+v+" ") {
			return true
		}
	}
	return false
}

func containsAny(joined string, vocab []string) bool {
	for _, v := range vocab {
		if strings.Contains(joined, " "+v+" ") {
			return true
		}
	}
	return false
}

// IsSkip reports whether a notes reply means "no notes".
func IsSkip(text string) bool {
	words := normalize.Words(text)
	switch len(words) {
	case 0:
		return true
	case 1:
		return skipVocab[words[0]]
	default:
		return false
	}
}
