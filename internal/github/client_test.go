package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelshop/weightwatch/internal/detect"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(
		WithBaseURL(srv.URL),
		WithToken("test-token"),
		WithRateLimit(1000),
		WithRetry(2, time.Millisecond),
	)
}

func searchBody(items ...apiRepo) []byte {
	data, _ := json.Marshal(searchResponse{TotalCount: len(items), Items: items})
	return data
}

func TestSearchRepos(t *testing.T) {
	var gotQuery, gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		w.Write(searchBody(
			apiRepo{Name: "net", FullName: "lab/net", HTMLURL: "https://github.com/lab/net", Stars: 120, Description: "image denoising"},
			apiRepo{Name: "other", FullName: "lab/other", Stars: 15},
		))
	}))

	hits, err := client.SearchRepos(context.Background(), "image denoising", 10, "2024-01-01", "stars", 20)
	if err != nil {
		t.Fatalf("SearchRepos = %v", err)
	}

	want := "image denoising in:name,description,readme stars:>=10 created:>=2024-01-01"
	if gotQuery != want {
		t.Errorf("q = %q, want %q", gotQuery, want)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d", len(hits))
	}
	if hits[0].FullName != "lab/net" || hits[0].Stars != 120 {
		t.Errorf("first hit = %+v", hits[0])
	}
}

func TestSearchReposCapsResults(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		items := make([]apiRepo, 5)
		for i := range items {
			items[i] = apiRepo{FullName: fmt.Sprintf("lab/p%s-%d", page, i), Stars: i}
		}
		w.Write(searchBody(items...))
	}))

	hits, err := client.SearchRepos(context.Background(), "x", 0, "", "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("hits = %d, want cap of 3", len(hits))
	}
}

func TestSearchAllMergesByMaxStars(t *testing.T) {
	// The same repo shows different star counts across the two sort
	// passes; the merge keeps the maximum.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stars := 100
		if r.URL.Query().Get("sort") == "updated" {
			stars = 140
		}
		w.Write(searchBody(apiRepo{Name: "net", FullName: "lab/net", Stars: stars, Description: "image denoising"}))
	}))

	hits, degraded, err := client.SearchAll(context.Background(), SearchSpec{
		Queries:     []string{"q"},
		MaxPerQuery: 10,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(degraded) != 0 {
		t.Errorf("degraded = %v", degraded)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1 after merge", len(hits))
	}
	if hits[0].Stars != 140 {
		t.Errorf("stars = %d, want max of both passes", hits[0].Stars)
	}
}

func TestSearchAllAppliesRelevanceFilter(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchBody(
			apiRepo{Name: "denoiser", FullName: "lab/denoiser", Stars: 50, Description: "image denoising network"},
			apiRepo{Name: "awesome-denoising", FullName: "lab/awesome-denoising", Stars: 900, Description: "curated list"},
			apiRepo{Name: "chat", FullName: "lab/chat", Stars: 70, Description: "a chatbot"},
		))
	}))

	filter := &detect.RelevanceFilter{
		Strong:           []string{"image denoising"},
		Exclude:          []string{"chatbot"},
		ExcludeNameTerms: []string{"awesome"},
	}
	hits, _, err := client.SearchAll(context.Background(), SearchSpec{
		Queries:     []string{"q"},
		MaxPerQuery: 10,
	}, filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].FullName != "lab/denoiser" {
		t.Errorf("hits = %+v, want only lab/denoiser", hits)
	}
}

func TestSearchAllDegradedPass(t *testing.T) {
	// One query always fails; the other still contributes.
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") == "stars" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write(searchBody(apiRepo{Name: "net", FullName: "lab/net", Stars: 10}))
	}))

	hits, degraded, err := client.SearchAll(context.Background(), SearchSpec{
		Queries:     []string{"q"},
		MaxPerQuery: 10,
	}, nil)
	if err != nil {
		t.Fatalf("SearchAll = %v, want nil with degraded passes", err)
	}
	if len(degraded) != 1 {
		t.Fatalf("degraded = %v, want 1 entry", degraded)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d, want the surviving pass's result", len(hits))
	}
}

func TestGetRetriesTransient(t *testing.T) {
	attempts := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.Write(searchBody(apiRepo{FullName: "lab/net"}))
	}))

	hits, err := client.SearchRepos(context.Background(), "q", 0, "", "", 5)
	if err != nil {
		t.Fatalf("SearchRepos = %v after retry", err)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %d", len(hits))
	}
}

func TestGetExhaustsRetries(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	_, err := client.SearchRepos(context.Background(), "q", 0, "", "", 5)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestGetReadme(t *testing.T) {
	readme := "# Model\nWeights: https://huggingface.co/lab/net\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(readme))
	// The API wraps base64 content with literal newlines.
	wrapped := encoded[:10] + "\n" + encoded[10:]

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/lab/net/readme" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(readmeResponse{Content: wrapped, Encoding: "base64"})
	}))

	got, err := client.GetReadme(context.Background(), "lab", "net")
	if err != nil {
		t.Fatalf("GetReadme = %v", err)
	}
	if got != readme {
		t.Errorf("readme = %q, want %q", got, readme)
	}

	// A missing README is thin evidence, not an error.
	got, err = client.GetReadme(context.Background(), "lab", "empty")
	if err != nil || got != "" {
		t.Errorf("missing readme: %q, %v", got, err)
	}
}

func TestGetReadmeUndecodable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(readmeResponse{Content: "!!! not base64 !!!", Encoding: "base64"})
	}))

	got, err := client.GetReadme(context.Background(), "lab", "net")
	if err != nil || got != "" {
		t.Errorf("undecodable readme: %q, %v", got, err)
	}
}

func TestUpdateQuota(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "30")
		w.Header().Set("X-RateLimit-Remaining", "25")
		w.Header().Set("X-RateLimit-Reset", "1756200000")
		w.Write(searchBody())
	}))

	if _, err := client.SearchRepos(context.Background(), "q", 0, "", "", 5); err != nil {
		t.Fatal(err)
	}
	limit, remaining, reset := client.Quota()
	if limit != 30 || remaining != 25 {
		t.Errorf("quota = %d/%d, want 25/30", remaining, limit)
	}
	if !reset.Equal(time.Unix(1756200000, 0)) {
		t.Errorf("reset = %v", reset)
	}
}
