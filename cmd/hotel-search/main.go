package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joelkehle/hotelscout/internal/hotelsearch"
)

func main() {
	location := flag.String("location", hotelsearch.DefaultLocation, "Location to search for hotels")
	aspects := flag.String("aspects", strings.Join(hotelsearch.DefaultAspects(), ","), "Comma-separated review aspects to focus on")
	checkin := flag.String("checkin", hotelsearch.DefaultCheckIn, "Check-in date (YYYY-MM-DD)")
	checkout := flag.String("checkout", hotelsearch.DefaultCheckOut, "Check-out date (YYYY-MM-DD)")
	guests := flag.Int("guests", hotelsearch.DefaultGuests, "Number of guests")
	output := flag.String("output", "hotel_report.md", "Path to write the markdown report")
	jsonOutput := flag.String("json-output", "", "Optional path to write the response envelope JSON")
	sourceURL := flag.String("source-url", hotelsearch.DefaultSourceBaseURL, "Hotel data proxy base URL")
	topN := flag.Int("top", hotelsearch.DefaultTopN, "Number of hotels to rank")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := setupTracing(ctx)
	if err != nil {
		log.Printf("hotel-search tracing disabled: %v", err)
	}
	if shutdown != nil {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Printf("hotel-search tracing shutdown: %v", err)
			}
		}()
	}

	var model hotelsearch.AnalysisStrategy
	modelName := ""
	caller, err := hotelsearch.NewCallerFromEnv(ctx)
	if err != nil {
		log.Printf("hotel-search LLM caller unavailable, using local heuristic only: %v", err)
	} else {
		model = hotelsearch.NewModelAnalyzer(caller)
		modelName = caller.ModelName()
	}

	source := hotelsearch.NewTravelSource(hotelsearch.SourceConfig{
		BaseURL:            *sourceURL,
		APIKey:             strings.TrimSpace(os.Getenv("HOTEL_SOURCE_API_KEY")),
		RateLimitPerMinute: envInt("HOTEL_SOURCE_RATE_LIMIT", hotelsearch.DefaultSourceRateLimitPerMin),
	})

	pipeline, err := hotelsearch.NewPipeline(hotelsearch.PipelineConfig{
		Listings:  source,
		Reviews:   source,
		Engine:    hotelsearch.NewAnalysisEngine(model),
		TopN:      *topN,
		ModelName: modelName,
	})
	if err != nil {
		log.Fatal(err)
	}

	req := hotelsearch.QueryContext{
		Location: *location,
		CheckIn:  *checkin,
		CheckOut: *checkout,
		Guests:   *guests,
		Aspects:  splitList(*aspects),
	}
	result, err := pipeline.RunWithProgress(ctx, req, func(stage hotelsearch.Stage, message string) {
		log.Printf("hotel-search stage=%s %s", stage, message)
	})
	if err != nil {
		log.Fatalf("pipeline failed at %s: %v", hotelsearch.StageNameFromError(err), err)
	}

	env := hotelsearch.BuildResponse(result)
	if err := os.WriteFile(*output, []byte(env.ReportMarkdown), 0o644); err != nil {
		log.Fatalf("write report: %v", err)
	}
	log.Printf("hotel-search report written to %s", *output)
	if *jsonOutput != "" {
		if err := writeEnvelopeJSON(*jsonOutput, env); err != nil {
			log.Fatalf("write json output: %v", err)
		}
		log.Printf("hotel-search envelope written to %s", *jsonOutput)
	}
	fmt.Print(hotelsearch.BuildConsoleSummary(result))
}

func writeEnvelopeJSON(path string, env hotelsearch.ResponseEnvelope) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	if n <= 0 {
		return fallback
	}
	return n
}
