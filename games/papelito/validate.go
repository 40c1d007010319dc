package papelito

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
)

var fold = cases.Fold()

func sameWord(a, b string) bool {
	return fold.String(a) == fold.String(b)
}

// ValidatePapelito checks a submission by author, who already has submitted
// papelitos counted against the quota, and returns the new papelito. The
// rules run in a fixed order and the first failure is returned.
func ValidatePapelito(cfg Config, author string, submitted int, answer string, forbidden []string) (Papelito, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Papelito{}, ErrMissingAnswer
	}

	words := []string{}
	if !cfg.EasyMode {
		if len(forbidden) != forbiddenWordCount {
			return Papelito{}, ErrIncompleteRestrictions
		}
		for _, w := range forbidden {
			w = strings.TrimSpace(w)
			if w == "" {
				return Papelito{}, ErrIncompleteRestrictions
			}
			words = append(words, w)
		}

		for i := range words {
			for j := i + 1; j < len(words); j++ {
				if sameWord(words[i], words[j]) {
					return Papelito{}, ErrDuplicateRestriction
				}
			}
		}

		for _, w := range words {
			if sameWord(w, answer) {
				return Papelito{}, ErrRestrictionIsAnswer
			}
		}
	}

	if submitted >= cfg.PapelitosPerPlayer {
		return Papelito{}, ErrQuotaExceeded
	}

	return Papelito{
		ID:        uuid.NewString(),
		Answer:    answer,
		Forbidden: words,
		CreatedBy: author,
	}, nil
}
