package delegate

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/modelmesh/complexity"
)

// Task is one unit of work handed to the agent execution backend.
type Task struct {
	// Role names the agent role performing the task.
	Role string

	// Description summarizes the task for tracing and backend scheduling.
	Description string

	// Prompt is the full instruction text for the role.
	Prompt string
}

// AgentBackend runs a two-stage pipeline. Implementations must execute the
// research task first and feed its output into the writing task; the
// writing stage must not start before research completes.
type AgentBackend interface {
	Run(ctx context.Context, research, writing Task) (string, error)
}

// Role describes one cooperating agent inside a topology.
type Role struct {
	Name         string
	Instructions string
}

// Topology is the constructed set of cooperating roles and their task
// wiring for one (category, complexity bucket) combination. Topologies are
// immutable after construction and cached for reuse.
type Topology struct {
	ID       string
	Category complexity.Category
	Bucket   string

	Coordinator Role
	Researcher  Role
	Writer      Role
}

// TopologyBuilder constructs a topology for a category/bucket pair.
// Injectable so tests can count constructions and substitute fakes.
type TopologyBuilder func(category complexity.Category, bucket string) *Topology

// NewTopology is the default TopologyBuilder. Role instructions are tuned
// per category so the pipeline speaks the domain of the request.
func NewTopology(category complexity.Category, bucket string) *Topology {
	focus := categoryFocus(category)
	return &Topology{
		ID:       uuid.NewString(),
		Category: category,
		Bucket:   bucket,
		Coordinator: Role{
			Name:         "coordinator",
			Instructions: "Break the request into a research task and a writing task, keep both on scope, and ensure the final answer addresses the original request completely.",
		},
		Researcher: Role{
			Name:         "researcher",
			Instructions: fmt.Sprintf("Gather the facts, considerations and source material needed to answer the request. Focus on %s. Produce structured findings, not prose for the end user.", focus),
		},
		Writer: Role{
			Name:         "writer",
			Instructions: fmt.Sprintf("Using only the researcher's findings and the original request, write the final answer. Match the register expected for %s. Be complete but not padded.", focus),
		},
	}
}

func categoryFocus(category complexity.Category) string {
	switch category {
	case complexity.CategoryCreative:
		return "tone, imagery and narrative structure"
	case complexity.CategoryCode:
		return "correctness, edge cases and idiomatic implementation"
	case complexity.CategoryResearch:
		return "evidence, comparisons and balanced analysis"
	case complexity.CategoryBusiness:
		return "market context, risks and actionable recommendations"
	default:
		return "accuracy and clarity"
	}
}

// Tasks builds the wired task pair for one request. The writing task embeds
// the sequencing contract: it consumes the research output.
func (t *Topology) Tasks(message, contextBlock string) (Task, Task) {
	researchPrompt := fmt.Sprintf("%s\n\nRequest:\n%s", t.Researcher.Instructions, message)
	if contextBlock != "" {
		researchPrompt = fmt.Sprintf("%s\n\nBackground context:\n%s", researchPrompt, contextBlock)
	}

	research := Task{
		Role:        t.Researcher.Name,
		Description: fmt.Sprintf("research for a %s/%s request", t.Category, t.Bucket),
		Prompt:      researchPrompt,
	}
	writing := Task{
		Role:        t.Writer.Name,
		Description: fmt.Sprintf("final answer for a %s/%s request", t.Category, t.Bucket),
		Prompt:      fmt.Sprintf("%s\n\nOriginal request:\n%s\n\nThe researcher's findings precede this task; base the answer on them.", t.Writer.Instructions, message),
	}
	return research, writing
}
