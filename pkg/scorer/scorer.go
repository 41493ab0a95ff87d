// Package scorer estimates how demanding a task is on a 0-100 scale.
package scorer

import (
	"math"
	"strings"

	"github.com/zen-systems/taskgate/pkg/task"
)

const (
	// MaxScore is the upper bound of every score.
	MaxScore = 100

	wordWeight     = 0.4
	maxLengthScore = 20.0
	keywordWeight  = 3.0
)

// DefaultKeywords are the prompt terms that suggest broader work.
var DefaultKeywords = []string{
	"refactor",
	"architecture",
	"design",
	"comprehensive",
	"multiple",
	"across",
	"entire",
	"system",
	"migration",
	"analyze",
	"detailed",
}

// Weights holds the scoring table.
type Weights struct {
	// Types maps a task kind to its base score. Kinds not listed use DefaultType.
	Types       map[task.Kind]float64
	DefaultType float64

	RequiresContext       float64
	RequiresMultipleSteps float64
	RequiresReasoning     float64
	MediumDuration        float64
	LongDuration          float64

	Keywords []string
}

// DefaultWeights returns the standard scoring table. Analysis and generation
// tasks have no entry and score as unknown kinds.
func DefaultWeights() Weights {
	return Weights{
		Types: map[task.Kind]float64{
			task.KindExplore:        8,
			task.KindTask:           28,
			task.KindGeneralPurpose: 50,
			task.KindCodeReview:     40,
		},
		DefaultType:           20,
		RequiresContext:       10,
		RequiresMultipleSteps: 20,
		RequiresReasoning:     15,
		MediumDuration:        8,
		LongDuration:          20,
		Keywords:              append([]string(nil), DefaultKeywords...),
	}
}

// Scorer computes complexity scores. The zero value is not usable; use New.
type Scorer struct {
	weights  Weights
	keywords []string
}

// Default is the scorer built from DefaultWeights.
var Default = New(DefaultWeights())

// New creates a scorer from a weights table.
func New(w Weights) *Scorer {
	keywords := make([]string, 0, len(w.Keywords))
	seen := make(map[string]bool, len(w.Keywords))
	for _, kw := range w.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return &Scorer{weights: w, keywords: keywords}
}

// Score computes the complexity of t with the default table.
func Score(t *task.Task) int {
	return Default.Score(t)
}

// Score returns an integer in [0, 100]. A nil task scores 0.
func (s *Scorer) Score(t *task.Task) int {
	return s.Explain(t).Score
}

// Breakdown itemizes how a score was reached.
type Breakdown struct {
	Length   float64  `json:"length"`
	Type     float64  `json:"type"`
	Metadata float64  `json:"metadata"`
	Keywords []string `json:"keywords,omitempty"`
	Raw      float64  `json:"raw"`
	Score    int      `json:"score"`
}

// Explain scores t and reports the contribution of each term.
func (s *Scorer) Explain(t *task.Task) Breakdown {
	if t == nil {
		return Breakdown{}
	}

	var b Breakdown
	b.Length = math.Min(float64(task.Words(t.Prompt))*wordWeight, maxLengthScore)
	b.Type = s.typeWeight(t.Type)
	b.Metadata = s.metadataWeight(t.Metadata)
	b.Keywords = s.matchKeywords(t.Prompt)

	b.Raw = b.Length + b.Type + b.Metadata + float64(len(b.Keywords))*keywordWeight
	b.Score = clamp(int(math.Round(b.Raw)))
	return b
}

func (s *Scorer) typeWeight(kind task.Kind) float64 {
	if w, ok := s.weights.Types[kind]; ok {
		return w
	}
	return s.weights.DefaultType
}

func (s *Scorer) metadataWeight(m task.Metadata) float64 {
	var total float64
	if m.RequiresContext {
		total += s.weights.RequiresContext
	}
	if m.RequiresMultipleSteps {
		total += s.weights.RequiresMultipleSteps
	}
	if m.RequiresReasoning {
		total += s.weights.RequiresReasoning
	}
	switch m.EstimatedDuration {
	case task.DurationMedium:
		total += s.weights.MediumDuration
	case task.DurationLong:
		total += s.weights.LongDuration
	}
	return total
}

// matchKeywords returns the keywords appearing anywhere in the prompt,
// compared case-insensitively. Partial words count: "systems" matches "system".
func (s *Scorer) matchKeywords(prompt string) []string {
	if prompt == "" {
		return nil
	}
	promptLower := strings.ToLower(prompt)

	var matched []string
	for _, kw := range s.keywords {
		if strings.Contains(promptLower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
