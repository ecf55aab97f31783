package hotelsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestSource(baseURL string) *TravelSource {
	return NewTravelSource(SourceConfig{
		BaseURL:            baseURL,
		RateLimitPerMinute: 60000,
	})
}

func TestSearchHotelsParsesNestedResults(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hotels" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		gotQuery = map[string]string{
			"location": r.URL.Query().Get("location"),
			"checkin":  r.URL.Query().Get("checkin"),
			"checkout": r.URL.Query().Get("checkout"),
			"guests":   r.URL.Query().Get("guests"),
			"keywords": r.URL.Query().Get("keywords"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":{"hotels":[
			{"name":"Grand Hotel","rating":4.5,"address":"1 Main St","price":"$210","source":"google",
			 "reviews":[{"text":"great stay","rating":"5","author":"Ana","date":"2025-04-01"}]},
			{"name":"  ","rating":"3.0"},
			{"name":"Plain Inn"}
		]}}`))
	}))
	defer srv.Close()

	source := newTestSource(srv.URL)
	hotels, err := source.SearchHotels(context.Background(), SearchQuery{
		Location: "New York",
		CheckIn:  "2025-05-01",
		CheckOut: "2025-05-03",
		Guests:   2,
		Keywords: []string{"breakfast", "clean"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery["location"] != "New York" || gotQuery["guests"] != "2" {
		t.Fatalf("query = %v", gotQuery)
	}
	if gotQuery["keywords"] != "breakfast,clean" {
		t.Fatalf("keywords = %q", gotQuery["keywords"])
	}
	if len(hotels) != 2 {
		t.Fatalf("hotels = %d, want 2 (blank name dropped)", len(hotels))
	}
	first := hotels[0]
	if first.Rating != "4.5" {
		t.Fatalf("numeric rating flattened to %q", first.Rating)
	}
	if len(first.Reviews) != 1 || first.Reviews[0].Author != "Ana" {
		t.Fatalf("reviews = %+v", first.Reviews)
	}
	if hotels[1].Source != "unknown" {
		t.Fatalf("missing source defaulted to %q", hotels[1].Source)
	}
}

func TestFetchReviewsPassesHotelName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/hotel-reviews" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("hotelName"); got != "Grand Hotel" {
			t.Fatalf("hotelName = %q", got)
		}
		if got := r.URL.Query().Get("location"); got != "New York" {
			t.Fatalf("location = %q", got)
		}
		w.Write([]byte(`{"results":{"reviews":[
			{"text":"lovely breakfast","rating":9,"source":"google"},
			{"text":"noisy at night"}
		]}}`))
	}))
	defer srv.Close()

	source := newTestSource(srv.URL)
	reviews, err := source.FetchReviews(context.Background(), "Grand Hotel", "New York", nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d", len(reviews))
	}
	if reviews[0].Rating != "9" {
		t.Fatalf("rating = %q", reviews[0].Rating)
	}
}

func TestSourceRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"results":{"hotels":[{"name":"Late Hotel"}]}}`))
	}))
	defer srv.Close()

	source := newTestSource(srv.URL)
	hotels, err := source.SearchHotels(context.Background(), SearchQuery{Location: "New York"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(hotels) != 1 || hotels[0].Name != "Late Hotel" {
		t.Fatalf("hotels = %+v", hotels)
	}
}

func TestSourceClientErrorFailsFast(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	source := newTestSource(srv.URL)
	if _, err := source.SearchHotels(context.Background(), SearchQuery{Location: "Nowhere"}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSourceRejectsMissingResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hotels":[]}`))
	}))
	defer srv.Close()

	source := newTestSource(srv.URL)
	if _, err := source.SearchHotels(context.Background(), SearchQuery{Location: "New York"}); err == nil {
		t.Fatal("expected error for missing results object")
	}
}
