package hotelsearch

import "time"

const (
	DefaultLocation = "New York"
	DefaultCheckIn  = "2025-05-01"
	DefaultCheckOut = "2025-05-03"
	DefaultGuests   = 2
	DefaultTopN     = 5

	// MaxPromptReviews caps how many reviews are serialized into a single
	// model prompt to stay inside token limits.
	MaxPromptReviews = 10

	SampleSource = "sample"
)

func DefaultAspects() []string {
	return []string{"breakfast", "clean", "service", "location", "value"}
}

type Stage string

const (
	StageOrchestrator  Stage = "orchestrator"
	StageAcquisition   Stage = "acquisition"
	StageConsolidation Stage = "consolidation"
	StageScoring       Stage = "scoring"
	StageTerminal      Stage = "terminal"
)

type Review struct {
	Text   string `json:"text"`
	Rating string `json:"rating,omitempty"`
	Source string `json:"source,omitempty"`
	Author string `json:"author,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Hotel struct {
	Name    string `json:"name"`
	Rating  string `json:"rating,omitempty"`
	Address string `json:"address,omitempty"`
	Price   string `json:"price,omitempty"`
	Source  string `json:"source"`
	// Reviews holds the provider-inline reviews from the listing payload.
	// Detailed holds the separately fetched review set; consolidation
	// merges Detailed ahead of Reviews and clears Detailed.
	Reviews  []Review `json:"reviews,omitempty"`
	Detailed []Review `json:"detailed_reviews,omitempty"`
}

type Analysis struct {
	OverallScore float64            `json:"overall_score"`
	AspectScores map[string]float64 `json:"aspect_scores"`
	Summary      string             `json:"summary"`
	Strengths    []string           `json:"strengths"`
	Weaknesses   []string           `json:"weaknesses"`
}

type ScoredHotel struct {
	Name        string   `json:"name"`
	FinalScore  float64  `json:"score"`
	Source      string   `json:"source"`
	Address     string   `json:"address,omitempty"`
	Rating      string   `json:"rating,omitempty"`
	Price       string   `json:"price,omitempty"`
	Reviews     []Review `json:"reviews"`
	ReviewCount int      `json:"review_count"`
	TravelURL   string   `json:"travel_url,omitempty"`
	Analysis    Analysis `json:"analysis"`
	Strategy    string   `json:"analysis_strategy,omitempty"`
}

type ListingPayload struct {
	Err    string  `json:"error,omitempty"`
	Hotels []Hotel `json:"hotels,omitempty"`
}

type ConsolidatedPayload struct {
	Err    string  `json:"error,omitempty"`
	Hotels []Hotel `json:"hotels,omitempty"`
}

// QueryContext is the single record threaded through the pipeline stages.
// Stages receive a copy and own their output; they never mutate the
// caller's value.
type QueryContext struct {
	Location     string              `json:"location,omitempty"`
	CheckIn      string              `json:"checkin,omitempty"`
	CheckOut     string              `json:"checkout,omitempty"`
	Guests       int                 `json:"guests,omitempty"`
	Aspects      []string            `json:"aspects,omitempty"`
	Listings     ListingPayload      `json:"listings,omitempty"`
	Consolidated ConsolidatedPayload `json:"consolidated,omitempty"`
	TopHotels    []ScoredHotel       `json:"top_hotels,omitempty"`
}

func (qc QueryContext) Clone() QueryContext {
	out := qc
	out.Aspects = append([]string(nil), qc.Aspects...)
	out.Listings.Hotels = cloneHotels(qc.Listings.Hotels)
	out.Consolidated.Hotels = cloneHotels(qc.Consolidated.Hotels)
	out.TopHotels = cloneScored(qc.TopHotels)
	return out
}

// Empty reports whether none of the eight recognized context fields carry
// a value. Stages use it to install the "Unknown" location placeholder
// rather than hand an empty record downstream.
func (qc QueryContext) Empty() bool {
	return qc.Location == "" && qc.CheckIn == "" && qc.CheckOut == "" &&
		qc.Guests == 0 && len(qc.Aspects) == 0 &&
		qc.Listings.Err == "" && len(qc.Listings.Hotels) == 0 &&
		qc.Consolidated.Err == "" && len(qc.Consolidated.Hotels) == 0 &&
		len(qc.TopHotels) == 0
}

func cloneHotels(in []Hotel) []Hotel {
	if in == nil {
		return nil
	}
	out := make([]Hotel, len(in))
	for i, h := range in {
		h.Reviews = append([]Review(nil), h.Reviews...)
		h.Detailed = append([]Review(nil), h.Detailed...)
		out[i] = h
	}
	return out
}

func cloneScored(in []ScoredHotel) []ScoredHotel {
	if in == nil {
		return nil
	}
	out := make([]ScoredHotel, len(in))
	for i, h := range in {
		h.Reviews = append([]Review(nil), h.Reviews...)
		h.Analysis = h.Analysis.clone()
		out[i] = h
	}
	return out
}

func (a Analysis) clone() Analysis {
	out := a
	if a.AspectScores != nil {
		out.AspectScores = make(map[string]float64, len(a.AspectScores))
		for k, v := range a.AspectScores {
			out.AspectScores[k] = v
		}
	}
	out.Strengths = append([]string(nil), a.Strengths...)
	out.Weaknesses = append([]string(nil), a.Weaknesses...)
	return out
}

type StageTrace struct {
	Stage   Stage        `json:"stage"`
	Context QueryContext `json:"context"`
}

type PipelineMetadata struct {
	StagesExecuted    []string  `json:"stages_executed"`
	StagesFailed      []string  `json:"stages_failed,omitempty"`
	StartedAt         time.Time `json:"started_at"`
	CompletedAt       time.Time `json:"completed_at"`
	DurationMS        int64     `json:"duration_ms"`
	Model             string    `json:"model,omitempty"`
	ListingRetried    bool      `json:"listing_retried,omitempty"`
	ReviewFetchErrors int       `json:"review_fetch_errors,omitempty"`
	SampleResult      bool      `json:"sample_result,omitempty"`
	Degraded          bool      `json:"degraded"`
	DegradedReason    string    `json:"degraded_reason,omitempty"`
}

type PipelineResult struct {
	Request  QueryContext     `json:"request"`
	Context  QueryContext     `json:"context"`
	Trace    []StageTrace     `json:"-"`
	Metadata PipelineMetadata `json:"metadata"`
}

type ResponseEnvelope struct {
	Location       string           `json:"location"`
	CheckIn        string           `json:"checkin"`
	CheckOut       string           `json:"checkout"`
	Guests         int              `json:"guests"`
	Aspects        []string         `json:"aspects"`
	Hotels         []ScoredHotel    `json:"hotels"`
	ReportMarkdown string           `json:"report_markdown"`
	Metadata       PipelineMetadata `json:"metadata"`
}
