// Package complexity scores incoming requests and decides whether they
// warrant delegation to a multi-stage agent pipeline. Classification is a
// pure function over the message text: no state, no external calls.
package complexity

import "strings"

// Category buckets a request by its dominant subject matter.
type Category string

// Known categories, in match priority order.
const (
	CategoryCreative Category = "creative"
	CategoryCode     Category = "code"
	CategoryResearch Category = "research"
	CategoryBusiness Category = "business"
	CategoryGeneral  Category = "general"
)

// Score bounds.
const (
	MinScore = 0
	MaxScore = 5

	// DefaultDelegationThreshold is the score at which a request is routed
	// to the delegated pipeline.
	DefaultDelegationThreshold = 3
)

// Analysis is the per-request classification result. It is discarded after
// the routing decision.
type Analysis struct {
	Score              int
	Category           Category
	RequiresDelegation bool
}

// Bucket coarsens the score for cache keying: low (≤2), medium (3–4),
// high (5).
func (a Analysis) Bucket() string {
	switch {
	case a.Score >= 5:
		return "high"
	case a.Score >= 3:
		return "medium"
	default:
		return "low"
	}
}

// categoryKeywords maps each category to its trigger keywords. Matching is
// substring-based over the lower-cased message, so stems cover inflected
// forms in both English and Russian.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryCreative, []string{
		"стих", "поэм", "рассказ", "сказк", "сочини", "придумай истори", "песн",
		"poem", "story", "творческ", "creative writing", "fiction",
	}},
	{CategoryCode, []string{
		"код", "функци", "скрипт", "программ", "рефактор", "багфикс",
		"code", "debug", "python", "javascript", "golang", "compile", "api endpoint",
	}},
	{CategoryResearch, []string{
		"проанализируй", "анализ", "сравни", "исследуй", "изучи", "обзор",
		"research", "analyze", "analyse", "compare", "почему", "объясни",
	}},
	{CategoryBusiness, []string{
		"бизнес", "стратег", "маркетинг", "бюджет", "продаж", "инвест",
		"business", "strategy", "marketing", "revenue", "startup", "план развития",
	}},
}

// complexityKeywords contribute to the score (+1 each, capped at +2).
var complexityKeywords = []string{
	"подробно", "детально", "комплексн", "всесторонн", "проанализируй", "сравни",
	"comprehensive", "detailed", "in-depth", "thorough", "all aspects", "trade-off",
}

// multiStepCues indicate a request that decomposes into ordered steps.
var multiStepCues = []string{
	"сначала", "затем", "после этого", "поэтапно", "шаг за шагом", "по шагам",
	"step by step", "first,", "and then", "afterwards", "finally",
}

// multiAgentPhrases explicitly ask for a multi-agent treatment.
var multiAgentPhrases = []string{
	"несколько агентов", "командой агентов", "мульти-агент", "мультиагент",
	"multi-agent", "multiple agents", "team of agents", "agent team",
}

// Classify analyzes message and returns its complexity score, category and
// delegation flag using the default delegation threshold.
func Classify(message string) Analysis {
	return ClassifyWithThreshold(message, DefaultDelegationThreshold)
}

// ClassifyWithThreshold is Classify with a caller-supplied delegation
// threshold. Values < 1 fall back to the default.
func ClassifyWithThreshold(message string, threshold int) Analysis {
	if threshold < 1 {
		threshold = DefaultDelegationThreshold
	}
	lower := strings.ToLower(message)

	score := lengthScore(message) + questionScore(message) + keywordScore(lower)
	if score > MaxScore {
		score = MaxScore
	}
	if score < MinScore {
		score = MinScore
	}

	category := classifyCategory(lower)

	return Analysis{
		Score:              score,
		Category:           category,
		RequiresDelegation: requiresDelegation(lower, score, category, threshold),
	}
}

func lengthScore(message string) int {
	n := len([]rune(message))
	switch {
	case n > 500:
		return 2
	case n > 200:
		return 1
	default:
		return 0
	}
}

func questionScore(message string) int {
	n := strings.Count(message, "?")
	switch {
	case n > 3:
		return 2
	case n > 1:
		return 1
	default:
		return 0
	}
}

func keywordScore(lower string) int {
	hits := 0
	for _, kw := range complexityKeywords {
		if strings.Contains(lower, kw) {
			hits++
			if hits == 2 {
				break
			}
		}
	}
	return hits
}

// classifyCategory assigns the first matching category in priority order
// creative > code > research > business; unmatched text is general.
func classifyCategory(lower string) Category {
	for _, group := range categoryKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.category
			}
		}
	}
	return CategoryGeneral
}

func requiresDelegation(lower string, score int, category Category, threshold int) bool {
	for _, phrase := range multiAgentPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	if score >= threshold {
		return true
	}
	if (category == CategoryResearch || category == CategoryBusiness) && score >= threshold {
		return true
	}
	if score >= 2 {
		for _, cue := range multiStepCues {
			if strings.Contains(lower, cue) {
				return true
			}
		}
	}
	return false
}
