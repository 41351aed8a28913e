package classification

import (
	"strings"

	"github.com/samber/lo"
)

// Postprocessor narrows the classifications reported for one detection.
type Postprocessor func(Classifications) Classifications

// NewScoreFilter drops classifications scoring below minScore.
func NewScoreFilter(minScore float64) Postprocessor {
	return func(in Classifications) Classifications {
		return lo.Filter(in, func(c Classification, _ int) bool {
			return c.Score() >= minScore
		})
	}
}

// NewLabelFilter keeps only the given labels, compared case-insensitively. No labels keeps all.
func NewLabelFilter(labels []string) Postprocessor {
	wanted := lo.SliceToMap(labels, func(l string) (string, struct{}) {
		return strings.ToLower(l), struct{}{}
	})
	return func(in Classifications) Classifications {
		if len(wanted) == 0 {
			return in
		}
		return lo.Filter(in, func(c Classification, _ int) bool {
			_, ok := wanted[strings.ToLower(c.Label())]
			return ok
		})
	}
}
