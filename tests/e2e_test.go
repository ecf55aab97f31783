//go:build integration

package tests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/joelkehle/hotelscout/internal/hotelsearch"
	"github.com/joelkehle/hotelscout/internal/render"
)

type scriptedCaller struct {
	calls int
}

func (c *scriptedCaller) GenerateJSON(_ context.Context, prompt string) (string, error) {
	c.calls++
	// Score by how often "excellent" shows up in the prompt so the two
	// hotels rank deterministically.
	score := 6.0
	if strings.Count(prompt, "excellent") >= 2 {
		score = 9.0
	}
	return fmt.Sprintf(`{"overall_score": %.1f, "aspect_scores": {"breakfast": %.1f}, "summary": "Scripted summary.", "strengths": ["good breakfast"], "weaknesses": []}`, score, score), nil
}

func (c *scriptedCaller) ModelName() string { return "scripted-model" }

func newFakeProxy(t *testing.T, hotelsByLocation map[string][]byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/hotels":
			location := r.URL.Query().Get("location")
			body, ok := hotelsByLocation[location]
			if !ok {
				body = []byte(`{"results":{"hotels":[]}}`)
			}
			w.Write(body)
		case "/hotel-reviews":
			name := r.URL.Query().Get("hotelName")
			if name == "Grand Hotel" {
				w.Write([]byte(`{"results":{"reviews":[
					{"text":"excellent breakfast spread","rating":"5","source":"google_travel","author":"Ana","date":"2025-04-02"},
					{"text":"excellent service at the desk","rating":"5","source":"google_travel"},
					{"text":"comfortable beds","rating":"4","source":"google_travel_html"}
				]}}`))
				return
			}
			w.Write([]byte(`{"results":{"reviews":[
				{"text":"good value for money","rating":"4","source":"google_travel"},
				{"text":"street noise at night","rating":"3","source":"google_travel"}
			]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestE2EHotelSearch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	proxy := newFakeProxy(t, map[string][]byte{
		"New York": []byte(`{"results":{"hotels":[
			{"name":"Grand Hotel","rating":"4.5","address":"1 Main St","source":"google",
			 "reviews":[{"text":"excellent breakfast spread","rating":"5"}]},
			{"name":"Budget Inn","rating":"3.5","address":"2 Side St","source":"google",
			 "reviews":[{"text":"good value for money","rating":"4"}]}
		]}}`),
	})
	defer proxy.Close()

	source := hotelsearch.NewTravelSource(hotelsearch.SourceConfig{
		BaseURL:            proxy.URL,
		RateLimitPerMinute: 60000,
	})
	caller := &scriptedCaller{}
	pipeline, err := hotelsearch.NewPipeline(hotelsearch.PipelineConfig{
		Listings:  source,
		Reviews:   source,
		Engine:    hotelsearch.NewAnalysisEngine(hotelsearch.NewModelAnalyzer(caller)),
		ModelName: caller.ModelName(),
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := pipeline.Run(ctx, hotelsearch.QueryContext{Location: "New York"})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if result.Metadata.Degraded {
		t.Fatalf("degraded: %s", result.Metadata.DegradedReason)
	}
	top := result.Context.TopHotels
	if len(top) != 2 {
		t.Fatalf("top hotels = %d", len(top))
	}
	if top[0].Name != "Grand Hotel" || top[1].Name != "Budget Inn" {
		t.Fatalf("ranking = %q, %q", top[0].Name, top[1].Name)
	}
	// Grand Hotel: three detailed reviews plus one duplicate inline review.
	if top[0].ReviewCount != 3 {
		t.Fatalf("review count = %d", top[0].ReviewCount)
	}
	if top[0].Strategy != hotelsearch.StrategyModel {
		t.Fatalf("strategy = %q", top[0].Strategy)
	}
	// 0.4*4.5 + 0.6*(9.0/2) = 4.5
	if top[0].FinalScore != 4.5 {
		t.Fatalf("final score = %v", top[0].FinalScore)
	}
	if caller.calls != 2 {
		t.Fatalf("model calls = %d", caller.calls)
	}

	env := hotelsearch.BuildResponse(result)
	if !strings.Contains(env.ReportMarkdown, "## 1. Grand Hotel") {
		t.Fatal("report missing top hotel")
	}
	doc, err := render.BuildHTML(env.ReportMarkdown)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(doc, "Grand Hotel") {
		t.Fatal("html missing hotel")
	}
}

func TestE2ENoHotelsFoundEmitsSample(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	proxy := newFakeProxy(t, nil)
	defer proxy.Close()

	source := hotelsearch.NewTravelSource(hotelsearch.SourceConfig{
		BaseURL:            proxy.URL,
		RateLimitPerMinute: 60000,
	})
	pipeline, err := hotelsearch.NewPipeline(hotelsearch.PipelineConfig{Listings: source, Reviews: source})
	if err != nil {
		t.Fatal(err)
	}

	result, err := pipeline.Run(ctx, hotelsearch.QueryContext{Location: "Paris"})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if !result.Metadata.ListingRetried || !result.Metadata.SampleResult {
		t.Fatalf("metadata = %+v", result.Metadata)
	}
	top := result.Context.TopHotels
	if len(top) != 1 || top[0].Source != "sample" {
		t.Fatalf("top hotels = %+v", top)
	}
	env := hotelsearch.BuildResponse(result)
	if !strings.Contains(env.ReportMarkdown, "Sample Hotel 1") {
		t.Fatal("report missing sample hotel")
	}
}
