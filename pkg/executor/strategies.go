package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zen-systems/taskgate/pkg/scorer"
	"github.com/zen-systems/taskgate/pkg/task"
)

type analysisPayload struct {
	Type        task.Kind     `json:"type"`
	Prompt      string        `json:"prompt"`
	Metadata    task.Metadata `json:"metadata"`
	Summary     string        `json:"summary"`
	Findings    []string      `json:"findings"`
	GeneratedAt string        `json:"generatedAt"`
}

type generationPayload struct {
	Type        task.Kind     `json:"type"`
	Prompt      string        `json:"prompt"`
	Metadata    task.Metadata `json:"metadata"`
	Content     string        `json:"content"`
	Sections    []string      `json:"sections"`
	GeneratedAt string        `json:"generatedAt"`
}

type processedPayload struct {
	Type        task.Kind     `json:"type"`
	Prompt      string        `json:"prompt"`
	Metadata    task.Metadata `json:"metadata"`
	Status      string        `json:"status"`
	Steps       []string      `json:"steps"`
	GeneratedAt string        `json:"generatedAt"`
}

type genericPayload struct {
	Type        task.Kind     `json:"type"`
	Prompt      string        `json:"prompt"`
	Metadata    task.Metadata `json:"metadata"`
	Output      string        `json:"output"`
	GeneratedAt string        `json:"generatedAt"`
}

func stamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339Nano)
}

func analyze(_ context.Context, t *task.Task, now time.Time) (any, error) {
	words := task.Words(t.Prompt)
	findings := []string{fmt.Sprintf("request spans %d words", words)}
	if terms := focusTerms(t.Prompt); len(terms) > 0 {
		findings = append(findings, "focus areas: "+strings.Join(terms, ", "))
	}
	findings = append(findings, requirementNotes(t.Metadata)...)

	return analysisPayload{
		Type:        task.KindAnalysis,
		Prompt:      t.Prompt,
		Metadata:    t.Metadata,
		Summary:     fmt.Sprintf("Analysis of %q produced %d findings", excerpt(t.Prompt), len(findings)),
		Findings:    findings,
		GeneratedAt: stamp(now),
	}, nil
}

func generate(_ context.Context, t *task.Task, now time.Time) (any, error) {
	sections := []string{"overview", "details"}
	if t.Metadata.RequiresMultipleSteps {
		sections = append(sections, "steps")
	}
	sections = append(sections, "next steps")

	return generationPayload{
		Type:        task.KindGeneration,
		Prompt:      t.Prompt,
		Metadata:    t.Metadata,
		Content:     fmt.Sprintf("Generated draft for %q", excerpt(t.Prompt)),
		Sections:    sections,
		GeneratedAt: stamp(now),
	}, nil
}

func processTask(_ context.Context, t *task.Task, now time.Time) (any, error) {
	steps := []string{"interpret request"}
	if t.Metadata.RequiresContext {
		steps = append(steps, "gather context")
	}
	if t.Metadata.RequiresReasoning {
		steps = append(steps, "reason about approach")
	}
	steps = append(steps, "execute", "verify outcome")

	return processedPayload{
		Type:        t.Type,
		Prompt:      t.Prompt,
		Metadata:    t.Metadata,
		Status:      "processed",
		Steps:       steps,
		GeneratedAt: stamp(now),
	}, nil
}

func generic(_ context.Context, t *task.Task, now time.Time) (any, error) {
	return genericPayload{
		Type:        t.Type,
		Prompt:      t.Prompt,
		Metadata:    t.Metadata,
		Output:      fmt.Sprintf("Handled %q locally", excerpt(t.Prompt)),
		GeneratedAt: stamp(now),
	}, nil
}

func focusTerms(prompt string) []string {
	lower := strings.ToLower(prompt)
	var terms []string
	for _, kw := range scorer.DefaultKeywords {
		if strings.Contains(lower, kw) {
			terms = append(terms, kw)
		}
	}
	return terms
}

func requirementNotes(m task.Metadata) []string {
	var notes []string
	if m.RequiresContext {
		notes = append(notes, "needs surrounding context")
	}
	if m.RequiresMultipleSteps {
		notes = append(notes, "needs a multi-step plan")
	}
	if m.RequiresReasoning {
		notes = append(notes, "needs explicit reasoning")
	}
	if m.EstimatedDuration != "" {
		notes = append(notes, fmt.Sprintf("estimated duration: %s", m.EstimatedDuration))
	}
	return notes
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= 60 {
		return s
	}
	return string(r[:60]) + "..."
}
