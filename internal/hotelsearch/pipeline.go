package hotelsearch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "hotelscout/pipeline"

type StageProgressFn func(stage Stage, message string)

type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return "pipeline"
}

type PipelineConfig struct {
	Listings  ListingSource
	Reviews   ReviewSource
	Engine    *AnalysisEngine
	TopN      int
	ModelName string
}

// Pipeline runs one travel query through the fixed stage sequence
// orchestrator, acquisition, consolidation, scoring, terminal. Stages
// degrade rather than fail: transport errors become markers on the
// context and a panicking stage is recovered with its input falling
// through unchanged.
type Pipeline struct {
	listings ListingSource
	reviews  ReviewSource
	engine   *AnalysisEngine
	topN     int
	model    string
}

func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Listings == nil {
		return nil, errors.New("listing source is required")
	}
	if cfg.Engine == nil {
		cfg.Engine = NewAnalysisEngine(nil)
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	return &Pipeline{
		listings: cfg.Listings,
		reviews:  cfg.Reviews,
		engine:   cfg.Engine,
		topN:     cfg.TopN,
		model:    cfg.ModelName,
	}, nil
}

func (p *Pipeline) Run(ctx context.Context, req QueryContext) (PipelineResult, error) {
	return p.runWithProgress(ctx, req, nil)
}

func (p *Pipeline) RunWithProgress(ctx context.Context, req QueryContext, progress StageProgressFn) (PipelineResult, error) {
	return p.runWithProgress(ctx, req, progress)
}

type stageFn func(ctx context.Context, qc QueryContext, meta *PipelineMetadata) QueryContext

func (p *Pipeline) runWithProgress(ctx context.Context, req QueryContext, progress StageProgressFn) (PipelineResult, error) {
	res := PipelineResult{
		Request:  req.Clone(),
		Metadata: PipelineMetadata{StartedAt: time.Now(), Model: p.model},
	}
	qc := req.Clone()

	stages := []struct {
		name    Stage
		message string
		fn      stageFn
	}{
		{StageOrchestrator, "Preparing query defaults...", p.runOrchestrator},
		{StageAcquisition, "Fetching hotel listings and reviews...", p.runAcquisition},
		{StageConsolidation, "Consolidating and deduplicating reviews...", p.runConsolidation},
		{StageScoring, "Analyzing reviews and ranking hotels...", p.runScoring},
	}
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			res.Context = qc
			p.finalize(&res, qc)
			return res, &StageError{Stage: st.name, Err: err}
		}
		emit(progress, st.name, st.message)
		qc = p.runStage(ctx, st.name, st.fn, qc, &res.Metadata)
		res.Trace = append(res.Trace, StageTrace{Stage: st.name, Context: qc.Clone()})
		res.Metadata.StagesExecuted = append(res.Metadata.StagesExecuted, string(st.name))
	}

	emit(progress, StageTerminal, "Finalizing result...")
	res.Metadata.StagesExecuted = append(res.Metadata.StagesExecuted, string(StageTerminal))
	res.Context = qc
	p.finalize(&res, qc)
	return res, nil
}

// runStage executes one stage on a copy of the context. A panic is
// logged, recorded as a stage failure, and the input context falls
// through so downstream stages still see a usable record.
func (p *Pipeline) runStage(ctx context.Context, stage Stage, fn stageFn, in QueryContext, meta *PipelineMetadata) (out QueryContext) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline."+string(stage))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("hotel-search stage=%s panic recovered: %v", stage, r)
			meta.StagesFailed = append(meta.StagesFailed, string(stage))
			span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", r))
			out = in
		}
	}()
	out = fn(ctx, in.Clone(), meta)
	if out.Empty() {
		out.Location = "Unknown"
	}
	span.SetAttributes(
		attribute.Int("hotels.listed", len(out.Listings.Hotels)),
		attribute.Int("hotels.consolidated", len(out.Consolidated.Hotels)),
		attribute.Int("hotels.ranked", len(out.TopHotels)),
	)
	span.SetStatus(codes.Ok, "stage complete")
	return out
}

func (p *Pipeline) runOrchestrator(_ context.Context, qc QueryContext, _ *PipelineMetadata) QueryContext {
	if strings.TrimSpace(qc.Location) == "" {
		qc.Location = DefaultLocation
	}
	if strings.TrimSpace(qc.CheckIn) == "" {
		qc.CheckIn = DefaultCheckIn
	}
	if strings.TrimSpace(qc.CheckOut) == "" {
		qc.CheckOut = DefaultCheckOut
	}
	if qc.Guests <= 0 {
		qc.Guests = DefaultGuests
	}
	if len(qc.Aspects) == 0 {
		qc.Aspects = DefaultAspects()
	}
	aspects := make([]string, 0, len(qc.Aspects))
	for _, a := range qc.Aspects {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		aspects = append(aspects, a)
	}
	qc.Aspects = aspects
	log.Printf("hotel-search orchestrator location=%q checkin=%s checkout=%s guests=%d aspects=%v",
		qc.Location, qc.CheckIn, qc.CheckOut, qc.Guests, qc.Aspects)
	return qc
}

func (p *Pipeline) runAcquisition(ctx context.Context, qc QueryContext, meta *PipelineMetadata) QueryContext {
	query := SearchQuery{
		Location: qc.Location,
		CheckIn:  qc.CheckIn,
		CheckOut: qc.CheckOut,
		Guests:   qc.Guests,
		Keywords: qc.Aspects,
	}
	hotels, err := p.listings.SearchHotels(ctx, query)
	if err == nil && len(hotels) == 0 {
		log.Printf("hotel-search acquisition location=%q returned 0 hotels, retrying once", qc.Location)
		meta.ListingRetried = true
		hotels, err = p.listings.SearchHotels(ctx, query)
	} else if err != nil {
		log.Printf("hotel-search acquisition listing fetch failed, retrying once: %v", err)
		meta.ListingRetried = true
		hotels, err = p.listings.SearchHotels(ctx, query)
	}
	if err != nil {
		qc.Listings = ListingPayload{Err: err.Error()}
		return qc
	}

	for i := range hotels {
		detailed := p.fetchDetailed(ctx, hotels[i].Name, qc.Location, qc.Aspects, meta)
		hotels[i].Detailed = detailed
	}
	qc.Listings = ListingPayload{Hotels: hotels}
	log.Printf("hotel-search acquisition location=%q hotels=%d review_fetch_errors=%d",
		qc.Location, len(hotels), meta.ReviewFetchErrors)
	return qc
}

func (p *Pipeline) fetchDetailed(ctx context.Context, hotelName, location string, keywords []string, meta *PipelineMetadata) []Review {
	if p.reviews == nil {
		return nil
	}
	detailed, err := p.reviews.FetchReviews(ctx, hotelName, location, keywords)
	if err != nil {
		meta.ReviewFetchErrors++
		log.Printf("hotel-search acquisition hotel=%q detailed review fetch failed: %v", hotelName, err)
		return nil
	}
	return detailed
}

func (p *Pipeline) runConsolidation(_ context.Context, qc QueryContext, _ *PipelineMetadata) QueryContext {
	hotels := cloneHotels(qc.Listings.Hotels)
	for i := range hotels {
		merged := MergeReviews(hotels[i].Detailed, hotels[i].Reviews)
		hotels[i].Reviews = merged
		hotels[i].Detailed = nil
	}
	qc.Consolidated = ConsolidatedPayload{Hotels: hotels, Err: qc.Listings.Err}
	return qc
}

func (p *Pipeline) runScoring(ctx context.Context, qc QueryContext, meta *PipelineMetadata) QueryContext {
	hotels := qc.Consolidated.Hotels
	if len(hotels) == 0 {
		log.Printf("hotel-search scoring no hotel data, emitting sample result")
		meta.SampleResult = true
		qc.TopHotels = []ScoredHotel{SampleHotel(qc.Location)}
		return qc
	}
	scored := make([]ScoredHotel, 0, len(hotels))
	for _, h := range hotels {
		analysis, strategy := p.engine.Analyze(ctx, h.Name, h.Reviews, qc.Aspects)
		sh := ScoreHotel(h, analysis, strategy, qc.Location)
		log.Printf("hotel-search scoring hotel=%q strategy=%s analysis=%.1f final=%.2f",
			sh.Name, strategy, analysis.OverallScore, sh.FinalScore)
		scored = append(scored, sh)
	}
	qc.TopHotels = RankHotels(scored, p.topN)
	return qc
}

func (p *Pipeline) finalize(res *PipelineResult, qc QueryContext) {
	meta := &res.Metadata
	meta.CompletedAt = time.Now()
	meta.DurationMS = meta.CompletedAt.Sub(meta.StartedAt).Milliseconds()
	switch {
	case len(meta.StagesFailed) > 0:
		meta.Degraded = true
		meta.DegradedReason = fmt.Sprintf("stage failure in %s", strings.Join(meta.StagesFailed, ", "))
	case qc.Listings.Err != "":
		meta.Degraded = true
		meta.DegradedReason = "hotel listing source unavailable"
	case meta.SampleResult:
		meta.Degraded = true
		meta.DegradedReason = "no hotel data found, sample result emitted"
	case meta.ReviewFetchErrors > 0:
		meta.Degraded = true
		meta.DegradedReason = fmt.Sprintf("%d detailed review fetches failed", meta.ReviewFetchErrors)
	}
}

func emit(progress StageProgressFn, stage Stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}

// BuildResponse shapes the pipeline result for consumers: the CLI's
// JSON output and the report renderer.
func BuildResponse(result PipelineResult) ResponseEnvelope {
	qc := result.Context
	return ResponseEnvelope{
		Location:       qc.Location,
		CheckIn:        qc.CheckIn,
		CheckOut:       qc.CheckOut,
		Guests:         qc.Guests,
		Aspects:        qc.Aspects,
		Hotels:         qc.TopHotels,
		ReportMarkdown: BuildReportMarkdown(result),
		Metadata:       result.Metadata,
	}
}
