package quality

import (
	"context"
	"fmt"

	"github.com/hupe1980/modelmesh/logging"
	"github.com/hupe1980/modelmesh/router"
)

// Reflector defaults.
const (
	DefaultMaxIterations = 3
	DefaultMinQuality    = 8.0
)

// Generator produces one response per call. *router.Executor satisfies it.
type Generator interface {
	Execute(ctx context.Context, prompt, taskType string, intelligencePriority bool) (*router.Result, error)
}

// Candidate is one scored response produced during reflection.
type Candidate struct {
	Text      string
	Score     float64
	Iteration int
}

// ReflectorOptions configures a Reflector.
type ReflectorOptions struct {
	// MaxIterations caps generate→assess rounds.
	MaxIterations int

	// MinQuality is the early-exit threshold in [0, 10].
	MinQuality float64

	// TaskType is forwarded to the generator.
	TaskType string

	// IntelligencePriority is forwarded to the generator.
	IntelligencePriority bool

	// Assessor scores candidates. Defaults to the heuristic assessor.
	Assessor Assessor

	// Logger receives per-iteration diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// Reflector iterates generation until a response clears the quality
// threshold or the iteration cap is reached, in which case the best
// candidate seen wins. The loop degrades quality gracefully rather than
// failing.
type Reflector struct {
	generator Generator
	opts      ReflectorOptions
}

// NewReflector constructs a Reflector around a generator.
func NewReflector(generator Generator, optFns ...func(o *ReflectorOptions)) *Reflector {
	opts := ReflectorOptions{
		MaxIterations: DefaultMaxIterations,
		MinQuality:    DefaultMinQuality,
		Assessor:      NewHeuristicAssessor(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Assessor == nil {
		opts.Assessor = NewHeuristicAssessor()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.MaxIterations < 1 {
		opts.MaxIterations = 1
	}
	return &Reflector{generator: generator, opts: opts}
}

// Reflect runs the bounded generate-critique-improve cycle for prompt.
// The returned error is non-nil only when no candidate could be produced at
// all (e.g. the model pool was exhausted on the first round).
func (r *Reflector) Reflect(ctx context.Context, prompt string) (string, error) {
	var best *Candidate
	currentPrompt := prompt

	for iteration := 1; iteration <= r.opts.MaxIterations; iteration++ {
		result, err := r.generator.Execute(ctx, currentPrompt, r.opts.TaskType, r.opts.IntelligencePriority)
		if err != nil {
			if best != nil {
				// A later round failing does not discard earlier work.
				r.opts.Logger.Warn("reflection generation failed, returning best earlier candidate", "iteration", iteration, "error", err)
				return best.Text, nil
			}
			return "", fmt.Errorf("reflection produced no candidate: %w", err)
		}

		score := r.opts.Assessor.Assess(prompt, result.Text)
		candidate := &Candidate{Text: result.Text, Score: score, Iteration: iteration}
		if best == nil || candidate.Score > best.Score {
			best = candidate
		}

		accepted := score >= r.opts.MinQuality
		r.opts.Logger.Debug("reflection iteration scored", "iteration", iteration, "score", score, "accepted", accepted, "model", result.ModelID)
		if accepted {
			return result.Text, nil
		}

		if iteration < r.opts.MaxIterations {
			critique := r.opts.Assessor.Critique(prompt, result.Text)
			currentPrompt = improvementPrompt(prompt, result.Text, critique, score)
		}
	}

	return best.Text, nil
}

// improvementPrompt embeds the prior response and its full critique so the
// next round has concrete feedback to act on.
func improvementPrompt(original, response, critique string, score float64) string {
	return fmt.Sprintf(
		"Original request:\n%s\n\nYour previous answer:\n%s\n\nThat answer scored %.1f/10. Reviewer feedback: %s.\n\nWrite an improved answer to the original request. Address every point of the feedback.",
		original, response, score, critique,
	)
}
