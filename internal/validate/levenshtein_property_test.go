package validate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestLevenshteinDistanceProperties verifies the testable properties
// spec.md §8 names for the suggestion's edit-distance bound: identity
// (zero distance from a string to itself), symmetry, and the triangle
// inequality, plus the bound the suggestion cutoff depends on
// (distance never exceeds the longer string's length).
func TestLevenshteinDistanceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("distance from a string to itself is zero", prop.ForAll(
		func(s string) bool {
			return levenshteinDistance(s, s) == 0
		},
		gen.AlphaString(),
	))

	properties.Property("distance is symmetric", prop.ForAll(
		func(a, b string) bool {
			return levenshteinDistance(a, b) == levenshteinDistance(b, a)
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("distance never exceeds the longer operand's length", prop.ForAll(
		func(a, b string) bool {
			d := levenshteinDistance(a, b)
			longer := len(a)
			if len(b) > longer {
				longer = len(b)
			}
			return d <= longer
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("triangle inequality holds across three strings", prop.ForAll(
		func(a, b, c string) bool {
			return levenshteinDistance(a, c) <= levenshteinDistance(a, b)+levenshteinDistance(b, c)
		},
		gen.AlphaString(), gen.AlphaString(), gen.AlphaString(),
	))

	properties.Property("findSimilarTempID never returns a candidate farther than 2 edits away", prop.ForAll(
		func(target string, candidate string) bool {
			got, ok := findSimilarTempID(target, []string{candidate})
			if !ok {
				return true
			}
			return levenshteinDistance(target, got) <= 2
		},
		gen.AlphaString(), gen.AlphaString(),
	))

	properties.TestingRun(t)
}
