package hotelsearch

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var positiveWords = []string{
	"good", "great", "excellent", "amazing", "love", "best", "perfect",
	"wonderful", "fantastic", "awesome",
}

var negativeWords = []string{
	"bad", "poor", "terrible", "awful", "worst", "horrible",
	"disappointing", "disappointed", "not good", "not great",
}

// LocalAnalyzer scores reviews with a deterministic lexicon heuristic.
// It makes no external calls and never fails.
type LocalAnalyzer struct{}

func NewLocalAnalyzer() *LocalAnalyzer { return &LocalAnalyzer{} }

func (LocalAnalyzer) Name() string { return StrategyLocal }

func (LocalAnalyzer) Analyze(_ context.Context, hotelName string, reviews []Review, aspects []string) (Analysis, error) {
	result := Analysis{
		AspectScores: map[string]float64{},
		Strengths:    []string{},
		Weaknesses:   []string{},
	}
	if len(reviews) == 0 {
		result.Summary = fmt.Sprintf("No reviews available for %s.", hotelName)
		return result, nil
	}

	texts := make([]string, len(reviews))
	for i, r := range reviews {
		texts[i] = strings.ToLower(r.Text)
	}

	mentions := map[string]int{}
	for _, aspect := range aspects {
		needle := strings.ToLower(aspect)
		count := 0
		for _, text := range texts {
			if strings.Contains(text, needle) {
				count++
			}
		}
		if count > 0 {
			mentions[aspect] = count
		}
	}

	overall := overallFromRatings(reviews)
	if overall <= 0 {
		overall = overallFromSentiment(texts)
	}

	ordered := []string{}
	for _, aspect := range aspects {
		count, ok := mentions[aspect]
		if !ok {
			continue
		}
		result.AspectScores[aspect] = aspectScore(texts, strings.ToLower(aspect), count, len(reviews))
		ordered = append(ordered, aspect)
	}

	// No aspect keyword ever matched: synthesize a minimal score set so the
	// record still carries per-topic signal.
	if len(result.AspectScores) == 0 {
		result.AspectScores = map[string]float64{
			"overall experience": overall,
			"value":              clampFloat(overall-1.0, 3.0, 10.0),
			"location":           clampFloat(overall+0.5, 3.0, 10.0),
		}
		ordered = []string{"overall experience", "value", "location"}
	}

	for name := range result.AspectScores {
		result.AspectScores[name] = round1(result.AspectScores[name])
	}
	overall = round1(overall)

	for _, aspect := range ordered {
		score := result.AspectScores[aspect]
		note := ""
		if n, ok := mentions[aspect]; ok {
			note = fmt.Sprintf(" (mentioned in %d reviews)", n)
		}
		switch {
		case score >= 7.0:
			result.Strengths = append(result.Strengths, fmt.Sprintf("Good %s%s", strings.ToLower(aspect), note))
		case score <= 4.0:
			result.Weaknesses = append(result.Weaknesses, fmt.Sprintf("Needs improvement in %s%s", strings.ToLower(aspect), note))
		}
	}
	if len(result.Strengths) == 0 {
		best := ordered[0]
		for _, aspect := range ordered[1:] {
			if result.AspectScores[aspect] > result.AspectScores[best] {
				best = aspect
			}
		}
		result.Strengths = append(result.Strengths, fmt.Sprintf("Relatively good %s compared to other aspects", strings.ToLower(best)))
	}

	result.OverallScore = overall
	result.Summary = composeSummary(hotelName, len(reviews), overall, result.Strengths, result.Weaknesses)
	return result, nil
}

func overallFromRatings(reviews []Review) float64 {
	sum := 0.0
	n := 0
	for _, r := range reviews {
		v, ok := ratingValue(r.Rating)
		if !ok {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	// Provider ratings are on a 0-5 scale; project onto 0-10.
	return (sum / float64(n)) * 2.0
}

func overallFromSentiment(texts []string) float64 {
	if len(texts) == 0 {
		return 5.0
	}
	positive := 0
	negative := 0
	for _, text := range texts {
		if containsAny(text, positiveWords) {
			positive++
		}
		if containsAny(text, negativeWords) {
			negative++
		}
	}
	total := float64(len(texts))
	posRatio := float64(positive) / total
	negRatio := float64(negative) / total
	return ((posRatio - negRatio + 1) / 2) * 10.0
}

func aspectScore(texts []string, needle string, mentionCount, reviewCount int) float64 {
	positive := 0
	negative := 0
	for _, text := range texts {
		if !strings.Contains(text, needle) {
			continue
		}
		if containsAny(text, positiveWords) {
			positive++
		} else if containsAny(text, negativeWords) {
			negative++
		}
	}
	if positive+negative > 0 {
		return float64(positive) / float64(positive+negative) * 10.0
	}
	mentionRatio := float64(mentionCount) / float64(reviewCount)
	return 5.0 + mentionRatio*2.0
}

func composeSummary(hotelName string, reviewCount int, overall float64, strengths, weaknesses []string) string {
	var b strings.Builder
	if reviewCount >= 5 {
		fmt.Fprintf(&b, "Based on %d reviews, %s has an overall score of %.1f/10.0. ", reviewCount, hotelName, overall)
	} else {
		fmt.Fprintf(&b, "Based on limited data (%d reviews), %s has an estimated score of %.1f/10.0. ", reviewCount, hotelName, overall)
	}
	if len(strengths) > 0 {
		b.WriteString("Positive aspects: " + strings.Join(strengths, ", ") + ". ")
	}
	if len(weaknesses) > 0 {
		b.WriteString("Areas for improvement: " + strings.Join(weaknesses, ", ") + ".")
	}
	return strings.TrimSpace(b.String())
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func ratingValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
