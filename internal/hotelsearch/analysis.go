package hotelsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"
)

const (
	StrategyModel = "structured_model"
	StrategyLocal = "local_heuristic"
	StrategyNone  = "none"
)

// AnalysisStrategy scores one hotel from its reviews.
type AnalysisStrategy interface {
	Name() string
	Analyze(ctx context.Context, hotelName string, reviews []Review, aspects []string) (Analysis, error)
}

const modelAttempts = 3

// ModelAnalyzer asks an LLM for a structured JSON score record.
type ModelAnalyzer struct {
	caller LLMCaller
	sleep  func(time.Duration)
}

func NewModelAnalyzer(caller LLMCaller) *ModelAnalyzer {
	return &ModelAnalyzer{caller: caller, sleep: time.Sleep}
}

func (m *ModelAnalyzer) Name() string { return StrategyModel }

func (m *ModelAnalyzer) Analyze(ctx context.Context, hotelName string, reviews []Review, aspects []string) (Analysis, error) {
	prompt := buildAnalysisPrompt(hotelName, reviews, aspects)
	var lastErr error
	for attempt := 1; attempt <= modelAttempts; attempt++ {
		raw, err := m.caller.GenerateJSON(ctx, prompt)
		if err != nil {
			lastErr = fmt.Errorf("analysis call failed: %w", err)
			class := classifyTransportError(err)
			if attempt < modelAttempts && class != failureClient {
				log.Printf("analysis model=%s attempt=%d transient error: %v", m.caller.ModelName(), attempt, err)
				m.sleep(backoffDelay(attempt))
				continue
			}
			return Analysis{}, lastErr
		}
		analysis, err := parseAnalysisJSON(raw)
		if err != nil {
			lastErr = fmt.Errorf("analysis response unusable: %w", err)
			if attempt < modelAttempts {
				log.Printf("analysis model=%s attempt=%d bad payload: %v", m.caller.ModelName(), attempt, err)
				continue
			}
			return Analysis{}, lastErr
		}
		return analysis, nil
	}
	return Analysis{}, lastErr
}

func buildAnalysisPrompt(hotelName string, reviews []Review, aspects []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze these guest reviews for %q and score the hotel.\n\n", hotelName)
	if len(aspects) > 0 {
		fmt.Fprintf(&sb, "Focus on these aspects: %s\n\n", strings.Join(aspects, ", "))
	}
	sb.WriteString("Reviews:\n")
	limit := len(reviews)
	if limit > MaxPromptReviews {
		limit = MaxPromptReviews
	}
	for i := 0; i < limit; i++ {
		r := reviews[i]
		rating := strings.TrimSpace(r.Rating)
		if rating == "" {
			rating = "N/A"
		}
		fmt.Fprintf(&sb, "Review %d (Rating: %s): %s\n", i+1, rating, r.Text)
	}
	sb.WriteString(`
Respond with a single JSON object and nothing else, using exactly these keys:
  "overall_score": number from 0 to 10
  "aspect_scores": object mapping each aspect name to a number from 0 to 10
  "summary": one or two sentences summarizing guest sentiment
  "strengths": array of short strings
  "weaknesses": array of short strings
Do not wrap the JSON in markdown fences.`)
	return sb.String()
}

// analysisWire uses pointers so a missing key can be told apart from a zero.
type analysisWire struct {
	OverallScore *float64            `json:"overall_score"`
	AspectScores map[string]*float64 `json:"aspect_scores"`
	Summary      *string             `json:"summary"`
	Strengths    []string            `json:"strengths"`
	Weaknesses   []string            `json:"weaknesses"`
}

func parseAnalysisJSON(raw string) (Analysis, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return Analysis{}, errors.New("empty response")
	}
	var wire analysisWire
	if err := json.Unmarshal([]byte(clean), &wire); err != nil {
		return Analysis{}, fmt.Errorf("parse JSON: %w", err)
	}
	out := Analysis{
		OverallScore: 5.0,
		AspectScores: map[string]float64{},
		Summary:      "No data",
		Strengths:    []string{},
		Weaknesses:   []string{},
	}
	if wire.OverallScore != nil {
		out.OverallScore = clampFloat(*wire.OverallScore, 0, 10)
	}
	for name, score := range wire.AspectScores {
		v := 5.0
		if score != nil {
			v = clampFloat(*score, 0, 10)
		}
		out.AspectScores[name] = round1(v)
	}
	if wire.Summary != nil && strings.TrimSpace(*wire.Summary) != "" {
		out.Summary = strings.TrimSpace(*wire.Summary)
	}
	if wire.Strengths != nil {
		out.Strengths = wire.Strengths
	}
	if wire.Weaknesses != nil {
		out.Weaknesses = wire.Weaknesses
	}
	out.OverallScore = round1(out.OverallScore)
	return out, nil
}

// AnalysisEngine chooses a strategy per hotel. The model strategy is
// preferred when enough reviews exist; any model failure falls back to
// the local heuristic so the pipeline keeps moving.
type AnalysisEngine struct {
	model AnalysisStrategy
	local AnalysisStrategy
}

// NewAnalysisEngine wires the engine. model may be nil when no LLM is
// configured, in which case every hotel takes the local path.
func NewAnalysisEngine(model AnalysisStrategy) *AnalysisEngine {
	return &AnalysisEngine{model: model, local: NewLocalAnalyzer()}
}

// Analyze returns the score record and the name of the strategy that
// produced it.
func (e *AnalysisEngine) Analyze(ctx context.Context, hotelName string, reviews []Review, aspects []string) (Analysis, string) {
	if len(reviews) == 0 {
		return Analysis{
			OverallScore: 0,
			AspectScores: map[string]float64{},
			Summary:      "No reviews available for analysis.",
			Strengths:    []string{},
			Weaknesses:   []string{},
		}, StrategyNone
	}
	if len(reviews) < 2 || e.model == nil {
		return e.runLocal(ctx, hotelName, reviews, aspects)
	}
	analysis, err := e.model.Analyze(ctx, hotelName, reviews, aspects)
	if err != nil {
		log.Printf("analysis hotel=%q model strategy failed, using local heuristic: %v", hotelName, err)
		return e.runLocal(ctx, hotelName, reviews, aspects)
	}
	return analysis, e.model.Name()
}

func (e *AnalysisEngine) runLocal(ctx context.Context, hotelName string, reviews []Review, aspects []string) (Analysis, string) {
	analysis, err := e.local.Analyze(ctx, hotelName, reviews, aspects)
	if err != nil {
		// The heuristic cannot fail today; keep the record shape if it ever does.
		log.Printf("analysis hotel=%q local heuristic failed: %v", hotelName, err)
		return Analysis{
			OverallScore: 5.0,
			AspectScores: map[string]float64{},
			Summary:      "No data",
			Strengths:    []string{},
			Weaknesses:   []string{},
		}, StrategyLocal
	}
	return analysis, e.local.Name()
}

// sortedAspects returns aspect names ordered by score descending, names
// ascending on ties, for deterministic report output.
func sortedAspects(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
