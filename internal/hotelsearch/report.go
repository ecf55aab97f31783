package hotelsearch

import (
	"fmt"
	"strings"
	"time"
)

const reportSampleReviews = 3

var travelReviewSources = map[string]struct{}{
	"google_travel":      {},
	"google_travel_html": {},
}

// BuildReportMarkdown renders the ranked hotels as a markdown report.
func BuildReportMarkdown(result PipelineResult) string {
	var b strings.Builder
	buildReportHeader(&b, result)
	for i, h := range result.Context.TopHotels {
		buildHotelSection(&b, i+1, h)
	}
	buildReportMetadata(&b, result.Metadata)
	return b.String()
}

func buildReportHeader(b *strings.Builder, result PipelineResult) {
	qc := result.Context
	fmt.Fprintf(b, "# Hotel Search Report\n\n")
	fmt.Fprintf(b, "- Location: %s\n", safe(qc.Location))
	fmt.Fprintf(b, "- Stay: %s to %s, %d guest(s)\n", safe(qc.CheckIn), safe(qc.CheckOut), qc.Guests)
	fmt.Fprintf(b, "- Aspects: %s\n", safe(strings.Join(qc.Aspects, ", ")))
	fmt.Fprintf(b, "- Date: %s\n\n", time.Now().Format(time.RFC3339))
	if result.Metadata.Degraded {
		fmt.Fprintf(b, "**Degraded result:** %s\n\n", result.Metadata.DegradedReason)
	}
}

func buildHotelSection(b *strings.Builder, rank int, h ScoredHotel) {
	fmt.Fprintf(b, "## %d. %s\n\n", rank, h.Name)
	fmt.Fprintf(b, "- Final Score: %.2f/5.0\n", h.FinalScore)
	fmt.Fprintf(b, "- Provider Rating: %s/5.0\n", safe(h.Rating))
	fmt.Fprintf(b, "- Analysis Score: %.1f/10.0 (%s)\n", h.Analysis.OverallScore, safe(h.Strategy))
	fmt.Fprintf(b, "- Address: %s\n", safe(h.Address))
	fmt.Fprintf(b, "- Reviews: %d total (%d from travel pages)\n", h.ReviewCount, countTravelReviews(h.Reviews))
	if h.Price != "" {
		fmt.Fprintf(b, "- Price: %s\n", h.Price)
	}
	if h.TravelURL != "" {
		fmt.Fprintf(b, "- [Reviews page](%s)\n", h.TravelURL)
	}
	b.WriteString("\n")

	if h.Analysis.Summary != "" {
		fmt.Fprintf(b, "### Summary\n\n%s\n\n", h.Analysis.Summary)
	}
	if len(h.Analysis.AspectScores) > 0 {
		fmt.Fprintf(b, "### Aspect Scores\n\n")
		for _, name := range sortedAspects(h.Analysis.AspectScores) {
			fmt.Fprintf(b, "- %s: %.1f/10.0\n", name, h.Analysis.AspectScores[name])
		}
		b.WriteString("\n")
	}
	if len(h.Analysis.Strengths) > 0 {
		fmt.Fprintf(b, "### Strengths\n\n")
		for _, s := range h.Analysis.Strengths {
			fmt.Fprintf(b, "- %s\n", s)
		}
		b.WriteString("\n")
	}
	if len(h.Analysis.Weaknesses) > 0 {
		fmt.Fprintf(b, "### Areas For Improvement\n\n")
		for _, w := range h.Analysis.Weaknesses {
			fmt.Fprintf(b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
	if len(h.Reviews) > 0 {
		fmt.Fprintf(b, "### Sample Reviews\n\n")
		for i, r := range h.Reviews {
			if i >= reportSampleReviews {
				break
			}
			fmt.Fprintf(b, "> %q\n", reviewText(r))
			if r.Author != "" {
				fmt.Fprintf(b, "> - %s (%s)\n", r.Author, r.Date)
			}
			b.WriteString("\n")
		}
	}
}

func buildReportMetadata(b *strings.Builder, meta PipelineMetadata) {
	fmt.Fprintf(b, "## Run Metadata\n\n")
	fmt.Fprintf(b, "- Stages executed: %s\n", strings.Join(meta.StagesExecuted, ", "))
	if len(meta.StagesFailed) > 0 {
		fmt.Fprintf(b, "- Stages failed: %s\n", strings.Join(meta.StagesFailed, ", "))
	}
	if meta.Model != "" {
		fmt.Fprintf(b, "- Model: %s\n", meta.Model)
	}
	if meta.ListingRetried {
		fmt.Fprintf(b, "- Listing fetch retried\n")
	}
	if meta.ReviewFetchErrors > 0 {
		fmt.Fprintf(b, "- Review fetch errors: %d\n", meta.ReviewFetchErrors)
	}
	if meta.SampleResult {
		fmt.Fprintf(b, "- Sample result (no hotel data found)\n")
	}
	fmt.Fprintf(b, "- Duration: %dms\n", meta.DurationMS)
}

// BuildConsoleSummary is the short per-hotel listing printed after a run.
func BuildConsoleSummary(result PipelineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top hotels for %s:\n", result.Context.Location)
	for _, h := range result.Context.TopHotels {
		fmt.Fprintf(&b, "%s (Score: %.2f/5.0, Analysis: %.1f/10.0) - %d reviews\n",
			h.Name, h.FinalScore, h.Analysis.OverallScore, h.ReviewCount)
	}
	return b.String()
}

func countTravelReviews(reviews []Review) int {
	n := 0
	for _, r := range reviews {
		if _, ok := travelReviewSources[r.Source]; ok {
			n++
		}
	}
	return n
}

func reviewText(r Review) string {
	if strings.TrimSpace(r.Text) == "" {
		return "No review text"
	}
	return r.Text
}

func safe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
