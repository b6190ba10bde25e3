package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/modelmesh/router"
)

// stubGenerator replays scripted responses and records prompts.
type stubGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (s *stubGenerator) Execute(_ context.Context, prompt, _ string, _ bool) (*router.Result, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.responses) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, errors.New("no scripted response")
	}
	text := s.responses[0]
	s.responses = s.responses[1:]
	return &router.Result{Text: text, ModelID: "stub"}, nil
}

// scriptedAssessor returns predetermined scores in order.
type scriptedAssessor struct {
	scores []float64
	calls  int
}

func (s *scriptedAssessor) Assess(_, _ string) float64 {
	score := s.scores[s.calls%len(s.scores)]
	s.calls++
	return score
}

func (s *scriptedAssessor) Critique(_, _ string) string { return "needs more depth" }

func TestReflect_FirstResponseAboveThresholdCallsGeneratorOnce(t *testing.T) {
	gen := &stubGenerator{responses: []string{"great answer"}}
	reflector := NewReflector(gen, func(o *ReflectorOptions) {
		o.Assessor = &scriptedAssessor{scores: []float64{9.0}}
	})

	text, err := reflector.Reflect(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "great answer", text)
	assert.Len(t, gen.prompts, 1, "threshold met on the first round, no further generation")
}

func TestReflect_CapReachedReturnsBestCandidate(t *testing.T) {
	gen := &stubGenerator{responses: []string{"first", "second", "third"}}
	assessor := &scriptedAssessor{scores: []float64{4.0, 6.5, 5.0}}
	reflector := NewReflector(gen, func(o *ReflectorOptions) {
		o.Assessor = assessor
	})

	text, err := reflector.Reflect(context.Background(), "question")
	require.NoError(t, err)

	assert.Len(t, gen.prompts, DefaultMaxIterations, "every round below threshold runs the full cap")
	// The best-scoring candidate wins, not the last one.
	assert.Equal(t, "second", text)
}

func TestReflect_ImprovementPromptEmbedsResponseAndCritique(t *testing.T) {
	gen := &stubGenerator{responses: []string{"weak draft", "still weak", "meh"}}
	reflector := NewReflector(gen, func(o *ReflectorOptions) {
		o.Assessor = &scriptedAssessor{scores: []float64{2.0}}
	})

	_, err := reflector.Reflect(context.Background(), "the original question")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 3)
	second := gen.prompts[1]
	assert.Contains(t, second, "the original question")
	assert.Contains(t, second, "weak draft")
	assert.Contains(t, second, "needs more depth")
}

func TestReflect_FirstRoundFailurePropagates(t *testing.T) {
	gen := &stubGenerator{err: &router.ExhaustedError{Attempted: []string{"m1"}}}
	reflector := NewReflector(gen)

	_, err := reflector.Reflect(context.Background(), "question")
	require.Error(t, err)

	var exhausted *router.ExhaustedError
	assert.True(t, errors.As(err, &exhausted))
}

func TestReflect_LaterFailureReturnsBestSoFar(t *testing.T) {
	gen := &stubGenerator{responses: []string{"only draft"}, err: errors.New("pool collapsed")}
	reflector := NewReflector(gen, func(o *ReflectorOptions) {
		o.Assessor = &scriptedAssessor{scores: []float64{4.0}}
	})

	text, err := reflector.Reflect(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "only draft", text)
}
