package hotelsearch

import (
	"sort"
	"strconv"
	"strings"
)

const (
	weightBaseRating = 0.4
	weightAnalysis   = 0.6
	maxFinalScore    = 5.0
)

// BaseRating coerces a provider rating string to the 0-5 scale. A
// missing rating counts as zero so the hotel is not credited for data
// it never had; text that fails to parse counts as an average 3.0.
func BaseRating(raw string) float64 {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0.0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 3.0
	}
	return v
}

// FinalScore blends the provider rating with the analysis score. The
// analysis overall is on a 0-10 scale and is halved to match ratings.
// When no analysis score exists the provider rating stands alone.
func FinalScore(baseRating, analysisOverall float64) float64 {
	analysisScore := analysisOverall / 2.0
	score := baseRating
	if analysisScore > 0 {
		score = baseRating*weightBaseRating + analysisScore*weightAnalysis
	}
	return clampFloat(round2(score), 0, maxFinalScore)
}

// TravelURL links the hotel's review page. Only spaces are escaped,
// matching what the review site accepts in practice.
func TravelURL(hotelName, location string) string {
	esc := func(s string) string { return strings.ReplaceAll(s, " ", "%20") }
	return "https://www.google.com/travel/search?q=" + esc(hotelName) + "%20" + esc(location) +
		"&hl=en&gl=us&ssta=1&ap=ugEHcmV2aWV3cw"
}

// ScoreHotel builds the ranked record for one hotel. The hotel's
// Reviews are expected to be deduplicated already.
func ScoreHotel(h Hotel, analysis Analysis, strategy, location string) ScoredHotel {
	name := h.Name
	if name == "" {
		name = "Unknown Hotel"
	}
	source := h.Source
	if source == "" {
		source = "google"
	}
	return ScoredHotel{
		Name:        name,
		FinalScore:  FinalScore(BaseRating(h.Rating), analysis.OverallScore),
		Source:      source,
		Address:     h.Address,
		Rating:      h.Rating,
		Price:       h.Price,
		Reviews:     h.Reviews,
		ReviewCount: len(h.Reviews),
		TravelURL:   TravelURL(name, location),
		Analysis:    analysis,
		Strategy:    strategy,
	}
}

// RankHotels sorts by final score descending and keeps the top n.
// The sort is stable so hotels with equal scores keep arrival order.
func RankHotels(hotels []ScoredHotel, topN int) []ScoredHotel {
	if topN <= 0 {
		topN = DefaultTopN
	}
	ranked := make([]ScoredHotel, len(hotels))
	copy(ranked, hotels)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// SampleHotel is the placeholder result used when acquisition finds
// nothing, so downstream consumers always see a well formed record.
func SampleHotel(location string) ScoredHotel {
	return ScoredHotel{
		Name:       "Sample Hotel 1",
		FinalScore: 4.5,
		Source:     SampleSource,
		Address:    "Sample Address 1",
		Rating:     "4.5",
		Reviews:    []Review{},
		TravelURL:  TravelURL("Sample Hotel 1", location),
		Analysis: Analysis{
			OverallScore: 0,
			AspectScores: map[string]float64{},
			Summary:      "No reviews available for analysis.",
			Strengths:    []string{},
			Weaknesses:   []string{},
		},
		Strategy: StrategyNone,
	}
}
