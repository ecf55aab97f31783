package hotelsearch

import (
	"context"
	"strings"
	"testing"
)

func TestLocalAnalyzerRatingsDriveOverall(t *testing.T) {
	reviews := []Review{
		{Text: "breakfast was great", Rating: "4"},
		{Text: "lovely breakfast spread", Rating: "5"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "The Grand", reviews, []string{"breakfast"})
	if err != nil {
		t.Fatal(err)
	}
	// avg rating 4.5 on a 0-5 scale projects to 9.0.
	if a.OverallScore != 9.0 {
		t.Fatalf("overall = %v, want 9.0", a.OverallScore)
	}
	if a.AspectScores["breakfast"] != 10.0 {
		t.Fatalf("breakfast = %v, want 10.0 (all positive-context mentions)", a.AspectScores["breakfast"])
	}
	if len(a.Strengths) == 0 || !strings.Contains(a.Strengths[0], "breakfast") {
		t.Fatalf("expected breakfast strength, got %v", a.Strengths)
	}
}

func TestLocalAnalyzerSentimentFallback(t *testing.T) {
	reviews := []Review{
		{Text: "really great place"},
		{Text: "great value"},
		{Text: "it was terrible"},
		{Text: "nothing remarkable"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "Hotel X", reviews, []string{"pool"})
	if err != nil {
		t.Fatal(err)
	}
	// pos ratio 0.5, neg ratio 0.25: ((0.5-0.25+1)/2)*10 = 6.25, rounded 6.3.
	if a.OverallScore != 6.3 {
		t.Fatalf("overall = %v, want 6.3", a.OverallScore)
	}
}

func TestLocalAnalyzerMentionWithoutSentiment(t *testing.T) {
	reviews := []Review{
		{Text: "the breakfast room opens at seven"},
		{Text: "quiet street"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "Hotel X", reviews, []string{"breakfast"})
	if err != nil {
		t.Fatal(err)
	}
	// Mentioned in 1 of 2 reviews with no lexicon co-occurrence: 5.0 + 2*0.5.
	if a.AspectScores["breakfast"] != 6.0 {
		t.Fatalf("breakfast = %v, want 6.0", a.AspectScores["breakfast"])
	}
}

func TestLocalAnalyzerSynthesizesDefaultAspects(t *testing.T) {
	reviews := []Review{
		{Text: "fine", Rating: "4"},
		{Text: "ok", Rating: "4"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "Hotel X", reviews, []string{"spa"})
	if err != nil {
		t.Fatal(err)
	}
	if len(a.AspectScores) != 3 {
		t.Fatalf("expected 3 synthesized aspects, got %v", a.AspectScores)
	}
	if a.AspectScores["overall experience"] != 8.0 {
		t.Fatalf("overall experience = %v, want 8.0", a.AspectScores["overall experience"])
	}
	if a.AspectScores["value"] != 7.0 {
		t.Fatalf("value = %v, want 7.0", a.AspectScores["value"])
	}
	if a.AspectScores["location"] != 8.5 {
		t.Fatalf("location = %v, want 8.5", a.AspectScores["location"])
	}
}

func TestLocalAnalyzerAlwaysEmitsAStrength(t *testing.T) {
	reviews := []Review{
		{Text: "the breakfast room opens at seven"},
		{Text: "quiet street"},
		{Text: "close to the metro"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "Hotel X", reviews, []string{"breakfast"})
	if err != nil {
		t.Fatal(err)
	}
	// Aspect scores in (4,7) qualify neither as strength nor weakness; the
	// best-scoring aspect is still emitted as a strength.
	if len(a.Strengths) != 1 || !strings.Contains(a.Strengths[0], "breakfast") {
		t.Fatalf("expected best-aspect strength, got %v", a.Strengths)
	}
}

func TestLocalAnalyzerRecordCompleteness(t *testing.T) {
	cases := [][]Review{
		nil,
		{{Text: "great"}},
		{{Text: "bad", Rating: "junk"}},
	}
	for _, reviews := range cases {
		a, err := NewLocalAnalyzer().Analyze(context.Background(), "H", reviews, []string{"clean"})
		if err != nil {
			t.Fatal(err)
		}
		if a.AspectScores == nil || a.Strengths == nil || a.Weaknesses == nil {
			t.Fatalf("nil collection in analysis: %+v", a)
		}
		if a.OverallScore < 0 || a.OverallScore > 10 {
			t.Fatalf("overall out of range: %v", a.OverallScore)
		}
		if a.Summary == "" {
			t.Fatalf("empty summary for %v", reviews)
		}
	}
}

func TestLocalAnalyzerInvalidRatingsAreDropped(t *testing.T) {
	reviews := []Review{
		{Text: "good stay", Rating: "five stars"},
		{Text: "good enough", Rating: "4.0"},
	}
	a, err := NewLocalAnalyzer().Analyze(context.Background(), "Hotel X", reviews, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Only the parseable rating counts: 4.0 * 2 = 8.0.
	if a.OverallScore != 8.0 {
		t.Fatalf("overall = %v, want 8.0", a.OverallScore)
	}
}
