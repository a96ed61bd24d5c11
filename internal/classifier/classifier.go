// Package classifier maps raw text to per-category confidence scores using
// a fixed set of heuristic pattern families. It is stateless and
// deterministic; preference weighting happens downstream.
package classifier

import (
	"regexp"
	"strings"

	"github.com/MarcoLSC/echo-emergent/internal/types"
)

const (
	// baseScore is the confidence a family receives on any match.
	baseScore = 0.3

	// greetingBaseScore is higher because greetings are short and
	// unambiguous.
	greetingBaseScore = 0.4

	// matchIncrement is added once per matching family on top of its base.
	matchIncrement = 0.1

	// unknownBaseline is the floor score always assigned to the unknown
	// category for non-empty text. It is a fallback, not a competitor.
	unknownBaseline = 0.1
)

// family pairs a category with its detection pattern and base score.
type family struct {
	category types.Category
	base     float64
	pattern  *regexp.Regexp
}

// families are tested independently against the normalized text; a text
// matching several families accumulates a score for each.
var families = []family{
	{types.CategoryCode, baseScore, regexp.MustCompile(`function|const|var|let|if|else|for|while|class|import|export|return|=>|\{|\}|\[|\]|<`)},
	{types.CategoryFood, baseScore, regexp.MustCompile(`ingredient|recipe|cook|bake|food|eat|drink|meal|dinner|lunch|breakfast|restaurant`)},
	{types.CategoryCreativeWriting, baseScore, regexp.MustCompile(`story|novel|poem|creative|write|character|plot|scene|setting|narrative`)},
	{types.CategoryQuestion, baseScore, regexp.MustCompile(`\?|how|what|when|where|why|who|which|can you|could you`)},
	{types.CategoryGreeting, greetingBaseScore, regexp.MustCompile(`hello|hi|hey|good morning|good afternoon|good evening|greetings|welcome`)},
	{types.CategoryTask, baseScore, regexp.MustCompile(`todo|task|reminder|schedule|plan|organize|list|create|make|build|develop|implement`)},
	{types.CategoryPersonal, baseScore, regexp.MustCompile(`i feel|i think|i want|i need|my|i'm|i am|i've|i have`)},
}

// Normalize trims and lower-cases text. The same normalization feeds both
// pattern matching and cache key derivation.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify scores the text against every pattern family. Empty or
// whitespace-only text yields an all-zero map and skips pattern evaluation.
func Classify(text string) types.Scores {
	scores := types.NewScores()

	normalized := Normalize(text)
	if normalized == "" {
		return scores
	}

	scores[types.CategoryUnknown] = unknownBaseline

	for _, f := range families {
		if f.pattern.MatchString(normalized) {
			scores[f.category] = f.base + matchIncrement
		}
	}

	return scores
}

// Details returns the human-readable explanation attached to a result.
func Details(text string, category types.Category) string {
	switch category {
	case types.CategoryCode:
		if len(text) > 20 {
			return "Looks like programming or markup code"
		}
		return "Possibly a programming-related term"
	case types.CategoryFood:
		return "Content related to food or cooking"
	case types.CategoryCreativeWriting:
		return "Appears to be creative or narrative text"
	case types.CategoryQuestion:
		return "This seems to be a question or inquiry"
	case types.CategoryGreeting:
		return "A conversational greeting"
	case types.CategoryTask:
		return "Task or planning related content"
	case types.CategoryPersonal:
		return "Personal or emotional expression"
	default:
		return "Unclear context"
	}
}
