package quality

import (
	"strings"
	"unicode/utf8"
)

// Score bounds and heuristic weights. The values mirror the fallback
// heuristic the dispatch layer ships with; an external judge can use any
// scale as long as it stays within [MinScore, MaxScore].
const (
	MinScore = 0.0
	MaxScore = 10.0

	baseScore         = 5.0
	goodLengthBonus   = 1.0
	tooShortPenalty   = 2.0
	tooLongPenalty    = 1.0
	structureBonus    = 0.5
	apologyPenalty    = 1.5
	overlapBonusMax   = 1.5
	goodLengthMin     = 50
	goodLengthMax     = 2000
	tooShortThreshold = 20
	tooLongThreshold  = 5000
)

// Assessor scores a response against its prompt and explains deductions.
type Assessor interface {
	// Assess returns a score in [0, 10].
	Assess(prompt, response string) float64

	// Critique returns a short human-readable explanation of the score,
	// suitable for embedding in an improvement prompt.
	Critique(prompt, response string) string
}

// apologyMarkers flag responses that lead with an apology or an error
// instead of content.
var apologyMarkers = []string{
	"i'm sorry",
	"i am sorry",
	"i apologize",
	"i cannot",
	"i can't",
	"as an ai",
	"error occurred",
	"an error",
	"извините",
	"прошу прощения",
	"не могу",
}

// HeuristicAssessor is the default judge-free Assessor.
type HeuristicAssessor struct{}

// NewHeuristicAssessor constructs the default assessor.
func NewHeuristicAssessor() *HeuristicAssessor { return &HeuristicAssessor{} }

// Assess implements Assessor.
func (a *HeuristicAssessor) Assess(prompt, response string) float64 {
	score := baseScore

	// Thresholds are in characters, not bytes; Cyrillic responses must not
	// cross them at half length.
	n := utf8.RuneCountInString(response)
	switch {
	case n < tooShortThreshold:
		score -= tooShortPenalty
	case n >= goodLengthMin && n <= goodLengthMax:
		score += goodLengthBonus
	case n > tooLongThreshold:
		score -= tooLongPenalty
	}

	if hasStructure(response) {
		score += structureBonus
	}
	if hasApology(response) {
		score -= apologyPenalty
	}
	score += overlapBonusMax * overlapRatio(prompt, response)

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Critique implements Assessor. The returned text names the concrete
// shortcomings so the reflection loop can embed actionable feedback.
func (a *HeuristicAssessor) Critique(prompt, response string) string {
	var issues []string

	n := utf8.RuneCountInString(response)
	switch {
	case n < tooShortThreshold:
		issues = append(issues, "the response is far too short to be useful")
	case n < goodLengthMin:
		issues = append(issues, "the response is brief; add substance and detail")
	case n > tooLongThreshold:
		issues = append(issues, "the response is overly long; tighten it to the essentials")
	}
	if !hasStructure(response) {
		issues = append(issues, "the response lacks structure; use paragraphs or bullet points")
	}
	if hasApology(response) {
		issues = append(issues, "the response apologizes or reports an error instead of answering")
	}
	if overlapRatio(prompt, response) < 0.3 {
		issues = append(issues, "the response barely addresses the terms of the question")
	}

	if len(issues) == 0 {
		return "the response is close to acceptable; polish wording and completeness"
	}
	return strings.Join(issues, "; ")
}

func hasStructure(response string) bool {
	if strings.Contains(response, "\n\n") {
		return true
	}
	for _, line := range strings.Split(response, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") || strings.HasPrefix(trimmed, "• ") {
			return true
		}
	}
	return false
}

func hasApology(response string) bool {
	lower := strings.ToLower(response)
	for _, marker := range apologyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// overlapRatio measures how many distinct prompt tokens (len > 3) appear in
// the response, in [0, 1].
func overlapRatio(prompt, response string) float64 {
	promptTokens := tokenize(prompt)
	if len(promptTokens) == 0 {
		return 0
	}
	responseText := strings.ToLower(response)
	hits := 0
	for token := range promptTokens {
		if strings.Contains(responseText, token) {
			hits++
		}
	}
	return float64(hits) / float64(len(promptTokens))
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(text)) {
		field = strings.Trim(field, ".,!?;:\"'()[]{}")
		if len([]rune(field)) > 3 {
			tokens[field] = struct{}{}
		}
	}
	return tokens
}
