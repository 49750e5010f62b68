package recon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelshop/weightwatch/internal/config"
	"github.com/modelshop/weightwatch/internal/detect"
	"github.com/modelshop/weightwatch/internal/github"
	"github.com/modelshop/weightwatch/internal/track"
)

var rt0 = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	readmes map[string]string
	errs    map[string]error
	calls   map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		readmes: make(map[string]string),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeFetcher) GetReadme(ctx context.Context, owner, repo string) (string, error) {
	full := owner + "/" + repo
	f.calls[full]++
	if err := f.errs[full]; err != nil {
		return "", err
	}
	return f.readmes[full], nil
}

func testTables(t *testing.T) *detect.Tables {
	t.Helper()
	tables, err := config.Default().Tables()
	if err != nil {
		t.Fatalf("compiling default tables: %v", err)
	}
	return tables
}

func testRun(t *testing.T, prior map[string]*track.Record, f *fakeFetcher, now time.Time) *Run {
	t.Helper()
	r := NewRun(prior, testTables(t), f)
	r.Now = func() time.Time { return now }
	r.Quiet = true
	return r
}

func hit(fullName string, stars int, description string) github.Hit {
	return github.Hit{
		FullName:    fullName,
		Name:        fullName[len("lab/"):],
		URL:         "https://github.com/" + fullName,
		Stars:       stars,
		Description: description,
		CreatedAt:   "2026-01-15",
		UpdatedAt:   "2026-08-19",
	}
}

func TestReconcileNewRepos(t *testing.T) {
	f := newFakeFetcher()
	f.readmes["lab/released"] = "CVPR 2026 paper. Weights: https://huggingface.co/lab/released\narxiv.org/abs/2601.01234"
	f.readmes["lab/pending"] = "Official implementation. Code and weights will be released soon."
	f.readmes["lab/bare"] = "Training scripts for our method."

	r := testRun(t, nil, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{
		hit("lab/released", 300, "Image denoising transformer"),
		hit("lab/pending", 50, "Low-light enhancement"),
		hit("lab/bare", 10, ""),
	})
	if err != nil {
		t.Fatalf("Reconcile = %v", err)
	}

	if len(res.NewThisRun) != 3 {
		t.Fatalf("NewThisRun = %v", res.NewThisRun)
	}

	rel := res.Records["lab/released"]
	if rel.Status != track.StatusAvailable || rel.WeightSource != track.WeightHub {
		t.Errorf("released: status=%s source=%s", rel.Status, rel.WeightSource)
	}
	if rel.Venue != "CVPR" || rel.VenueYear != "2026" {
		t.Errorf("released: venue=%s/%s", rel.Venue, rel.VenueYear)
	}
	if rel.PreprintID != "2601.01234" {
		t.Errorf("released: preprint=%q", rel.PreprintID)
	}
	if rel.Stars != 300 || rel.URL != "https://github.com/lab/released" {
		t.Errorf("released: metrics not mirrored: %+v", rel)
	}

	pend := res.Records["lab/pending"]
	if pend.Status != track.StatusPromised {
		t.Errorf("pending: status=%s, want promised", pend.Status)
	}
	if pend.PromiseSnippet == "" {
		t.Error("pending: no promise snippet recorded")
	}

	if res.Records["lab/bare"].Status != track.StatusNoSignal {
		t.Errorf("bare: status=%s, want no_signal", res.Records["lab/bare"].Status)
	}

	s := res.Summary
	if s.Total != 3 || s.Available != 1 || s.Promised != 1 || s.NoSignal != 1 || s.NewThisRun != 3 {
		t.Errorf("summary = %+v", s)
	}
	if s.ByWeightSource["hub"] != 1 {
		t.Errorf("ByWeightSource = %v", s.ByWeightSource)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	f := newFakeFetcher()
	f.readmes["lab/promised"] = "Official code. Weights coming soon."
	hits := []github.Hit{hit("lab/promised", 40, "image denoising")}

	r := testRun(t, nil, f, rt0)
	res, err := r.Reconcile(context.Background(), hits)
	if err != nil {
		t.Fatal(err)
	}
	first := res.Records["lab/promised"]
	firstChanged := first.StatusChangedAt
	firstHistory := len(first.StatusHistory)

	// Same text on a later run: only LastChecked moves.
	later := rt0.Add(48 * time.Hour)
	r2 := testRun(t, res.Records, f, later)
	res2, err := r2.Reconcile(context.Background(), hits)
	if err != nil {
		t.Fatal(err)
	}
	second := res2.Records["lab/promised"]
	if second.Status != track.StatusPromised {
		t.Errorf("status drifted to %s", second.Status)
	}
	if !second.StatusChangedAt.Equal(firstChanged) {
		t.Errorf("StatusChangedAt re-stamped: %v -> %v", firstChanged, second.StatusChangedAt)
	}
	if len(second.StatusHistory) != firstHistory {
		t.Errorf("history grew from %d to %d without a transition", firstHistory, len(second.StatusHistory))
	}
	if !second.LastChecked.Equal(later) {
		t.Errorf("LastChecked = %v, want %v", second.LastChecked, later)
	}
}

func TestReconcilePromisedToAvailable(t *testing.T) {
	prior := track.NewRecord("lab/net", track.StatusPromised, rt0.Add(-30*24*time.Hour))

	f := newFakeFetcher()
	f.readmes["lab/net"] = "Pretrained models now at https://huggingface.co/lab/net"

	r := testRun(t, map[string]*track.Record{"lab/net": prior}, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{hit("lab/net", 80, "denoising")})
	if err != nil {
		t.Fatal(err)
	}

	rec := res.Records["lab/net"]
	if rec.Status != track.StatusAvailable || rec.WeightSource != track.WeightHub {
		t.Fatalf("status=%s source=%s", rec.Status, rec.WeightSource)
	}
	if !rec.StatusChangedAt.Equal(rt0) {
		t.Errorf("StatusChangedAt = %v, want %v", rec.StatusChangedAt, rt0)
	}
	if len(res.FreshReleases) != 1 || res.FreshReleases[0].FullName != "lab/net" {
		t.Errorf("FreshReleases = %v", res.FreshReleases)
	}
	if res.Summary.FreshReleases != 1 {
		t.Errorf("summary fresh = %d", res.Summary.FreshReleases)
	}
}

func TestReconcileAvailableIsDurable(t *testing.T) {
	prior := track.NewRecord("lab/net", track.StatusNoSignal, rt0.Add(-60*24*time.Hour))
	prior.SetStatus(track.StatusAvailable, rt0.Add(-30*24*time.Hour))
	prior.WeightSource = track.WeightCloud

	// The weight link has rotted out of the README; only a venue remains.
	f := newFakeFetcher()
	f.readmes["lab/net"] = "Accepted at ICCV 2025. Download link removed pending rehost."

	r := testRun(t, map[string]*track.Record{"lab/net": prior}, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{hit("lab/net", 150, "image denoising")})
	if err != nil {
		t.Fatal(err)
	}

	rec := res.Records["lab/net"]
	if rec.Status != track.StatusAvailable {
		t.Errorf("availability downgraded to %s", rec.Status)
	}
	if rec.WeightSource != track.WeightCloud {
		t.Errorf("weight source erased: %s", rec.WeightSource)
	}
	if rec.Venue != "ICCV" || rec.VenueYear != "2025" {
		t.Errorf("venue not refreshed: %s/%s", rec.Venue, rec.VenueYear)
	}
	if !rec.StatusChangedAt.Equal(rt0.Add(-30 * 24 * time.Hour)) {
		t.Errorf("StatusChangedAt re-stamped: %v", rec.StatusChangedAt)
	}
	if len(res.FreshReleases) != 0 {
		t.Errorf("month-old availability counted as fresh: %v", res.FreshReleases)
	}
}

func TestReconcilePromisedStaysOnThinReadme(t *testing.T) {
	prior := track.NewRecord("lab/net", track.StatusPromised, rt0.Add(-10*24*time.Hour))
	prior.PromiseSnippet = "weights coming soon"

	// The promise note was deleted but no weights appeared. Promised must
	// not fall back to no_signal.
	f := newFakeFetcher()
	f.readmes["lab/net"] = "Training code only for now."

	r := testRun(t, map[string]*track.Record{"lab/net": prior}, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{hit("lab/net", 30, "denoising")})
	if err != nil {
		t.Fatal(err)
	}

	rec := res.Records["lab/net"]
	if rec.Status != track.StatusPromised {
		t.Errorf("status = %s, want promised", rec.Status)
	}
	if rec.PromiseSnippet != "weights coming soon" {
		t.Errorf("snippet erased: %q", rec.PromiseSnippet)
	}
	if len(rec.StatusHistory) != 1 {
		t.Errorf("history grew to %d", len(rec.StatusHistory))
	}
}

func TestReconcileCarriesOverAbsentRecords(t *testing.T) {
	absent := track.NewRecord("lab/gone", track.StatusPromised, rt0.Add(-20*24*time.Hour))
	absentChecked := absent.LastChecked

	f := newFakeFetcher()
	f.readmes["lab/here"] = "readme"

	prior := map[string]*track.Record{"lab/gone": absent}
	r := testRun(t, prior, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{hit("lab/here", 5, "image denoising")})
	if err != nil {
		t.Fatal(err)
	}

	gone := res.Records["lab/gone"]
	if gone == nil {
		t.Fatal("absent record dropped")
	}
	if !gone.LastChecked.Equal(absentChecked) {
		t.Errorf("absent record touched: LastChecked %v", gone.LastChecked)
	}
	if res.Summary.Total != 2 {
		t.Errorf("summary total = %d, want 2", res.Summary.Total)
	}
	if f.calls["lab/gone"] != 0 {
		t.Errorf("fetched README for absent record %d times", f.calls["lab/gone"])
	}
}

func TestReconcileDegradedRepoIsSkipped(t *testing.T) {
	prior := track.NewRecord("lab/flaky", track.StatusPromised, rt0.Add(-5*24*time.Hour))
	priorChecked := prior.LastChecked

	f := newFakeFetcher()
	f.errs["lab/flaky"] = errors.New("upstream 502")
	f.readmes["lab/fine"] = "weights at https://huggingface.co/lab/fine\narxiv.org/abs/2605.11111"

	r := testRun(t, map[string]*track.Record{"lab/flaky": prior}, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{
		hit("lab/flaky", 60, "denoising"),
		hit("lab/fine", 40, "denoising"),
	})
	if err != nil {
		t.Fatalf("Reconcile = %v, want nil despite per-repo failure", err)
	}

	if len(res.Degraded) != 1 {
		t.Fatalf("Degraded = %v", res.Degraded)
	}
	if !res.Records["lab/flaky"].LastChecked.Equal(priorChecked) {
		t.Error("failed repo's record was modified")
	}
	if res.Records["lab/fine"].Status != track.StatusAvailable {
		t.Error("later repo not processed after earlier failure")
	}
}

func TestReconcileCancelledContextStopsEarly(t *testing.T) {
	f := newFakeFetcher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := testRun(t, nil, f, rt0)
	res, err := r.Reconcile(ctx, []github.Hit{hit("lab/a", 1, "denoising")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("records processed after cancel: %d", len(res.Records))
	}
	if f.calls["lab/a"] != 0 {
		t.Error("fetch issued after cancel")
	}
}

func TestWatchlistSortedByStars(t *testing.T) {
	f := newFakeFetcher()
	f.readmes["lab/small"] = "weights to be released"
	f.readmes["lab/big"] = "model will be released"

	r := testRun(t, nil, f, rt0)
	res, err := r.Reconcile(context.Background(), []github.Hit{
		hit("lab/small", 10, "image denoising"),
		hit("lab/big", 500, "image denoising"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Watchlist) != 2 {
		t.Fatalf("watchlist = %d entries", len(res.Watchlist))
	}
	if res.Watchlist[0].FullName != "lab/big" {
		t.Errorf("watchlist[0] = %s, want lab/big", res.Watchlist[0].FullName)
	}
}
