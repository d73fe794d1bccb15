package compliance

import (
	"context"
	"sync"
	"testing"

	"github.com/opencode-ai/tint/internal/cascade"
	"github.com/opencode-ai/tint/internal/models"
	"github.com/opencode-ai/tint/internal/store"
)

type memoryRecorder struct {
	mu     sync.Mutex
	events []*models.Event
}

func (r *memoryRecorder) Record(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

func (r *memoryRecorder) hasType(eventType models.EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func seedScale(t *testing.T, st *store.Store, seedHex string) models.ColorScale {
	t.Helper()
	engine := cascade.New(cascade.Config{})
	scale, err := engine.Synthesize(seedHex)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if err := st.WriteScale(scale); err != nil {
		t.Fatalf("WriteScale failed: %v", err)
	}
	return scale
}

func mustPath(t *testing.T, s string) models.Path {
	t.Helper()
	path, err := models.ParsePath(s)
	if err != nil {
		t.Fatalf("ParsePath(%q) failed: %v", s, err)
	}
	return path
}

func TestScanPassingPair(t *testing.T) {
	st := store.New()
	if err := st.Set(mustPath(t, "colors.text"), "#000000"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	w := NewWatcher(st, nil)
	if _, err := w.Register(mustPath(t, "colors.text"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	results := w.Scan(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Status != models.CompliancePass {
		t.Fatalf("status = %q", results[0].Status)
	}
	if results[0].AppliedFix != nil {
		t.Fatal("passing pair must not be touched")
	}
}

func TestScanFixesViolation(t *testing.T) {
	st := store.New()
	seedScale(t, st, "#4169e1")
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Step 100 of a blue scale is far too light against white.
	fg := mustPath(t, "colors.blue.100")
	recorder := &memoryRecorder{}
	w := NewWatcher(st, recorder)
	if _, err := w.Register(fg, mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	results := w.Scan(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.Status != models.CompliancePass {
		t.Fatalf("status = %q, ratio %.2f", result.Status, result.Ratio)
	}
	if result.AppliedFix == nil {
		t.Fatal("expected an applied fix")
	}
	if result.Ratio < 4.5 {
		t.Fatalf("fix ratio %.2f below minimum", result.Ratio)
	}

	// The fix landed through the store.
	res, err := st.Resolve(fg)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Value != result.AppliedFix.NewValue {
		t.Fatalf("store value %q, fix says %q", res.Value, result.AppliedFix.NewValue)
	}
	if !recorder.hasType(models.EventTypeComplianceViolation) {
		t.Fatal("violation not recorded in change log")
	}
	if !recorder.hasType(models.EventTypeComplianceFixed) {
		t.Fatal("fix not recorded in change log")
	}

	// A follow-up scan sees a clean pair.
	results = w.Scan(context.Background())
	if results[0].Status != models.CompliancePass || results[0].AppliedFix != nil {
		t.Fatalf("rescan result: %+v", results[0])
	}
}

func TestScanUnsatisfiable(t *testing.T) {
	st := store.New()
	seedScale(t, st, "#808080")
	if err := st.Set(mustPath(t, "colors.surface"), "#808080"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// No gray shade reaches 10:1 against mid-gray.
	fg := mustPath(t, "colors.gray.500")
	recorder := &memoryRecorder{}
	w := NewWatcher(st, recorder)
	if _, err := w.Register(fg, mustPath(t, "colors.surface"), 10.0); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	results := w.Scan(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.Status != models.ComplianceUnsatisfiable {
		t.Fatalf("status = %q, ratio %.2f", result.Status, result.Ratio)
	}
	// The best shade found stays in place.
	if result.AppliedFix == nil {
		t.Fatal("expected the best shade to be written")
	}
	res, err := st.Resolve(fg)
	if err != nil || res.Value != result.AppliedFix.NewValue {
		t.Fatalf("best shade not retained: %v %v", res, err)
	}
	if !recorder.hasType(models.EventTypeComplianceUnsatisfiable) {
		t.Fatal("unsatisfiable case not recorded")
	}
}

func TestNonScaleForegroundUnsatisfiable(t *testing.T) {
	st := store.New()
	if err := st.Set(mustPath(t, "colors.brand"), "#cccccc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	w := NewWatcher(st, nil)
	if _, err := w.Register(mustPath(t, "colors.brand"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	results := w.Scan(context.Background())
	if results[0].Status != models.ComplianceUnsatisfiable {
		t.Fatalf("status = %q", results[0].Status)
	}
	if results[0].AppliedFix != nil {
		t.Fatal("no scale to walk, nothing should be written")
	}
}

func TestUnresolvedPairSkippedWithoutAbortingBatch(t *testing.T) {
	st := store.New()
	if err := st.Set(mustPath(t, "colors.text"), "#000000"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	w := NewWatcher(st, nil)
	if _, err := w.Register(mustPath(t, "colors.missing"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := w.Register(mustPath(t, "colors.text"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	results := w.Scan(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected the healthy pair only, got %d results", len(results))
	}
	if results[0].Status != models.CompliancePass {
		t.Fatalf("status = %q", results[0].Status)
	}
}

func TestFixWritesAreEvaluatedOnNextTick(t *testing.T) {
	st := store.New()
	seedScale(t, st, "#4169e1")
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	w := NewWatcher(st, nil)
	if err := st.Subscribe("compliance", w.OnChange); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := w.Register(mustPath(t, "colors.blue.100"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	results := w.Tick(context.Background())
	if len(results) != 1 || results[0].AppliedFix == nil {
		t.Fatalf("expected one fixed pair, got %+v", results)
	}

	// The fix write re-dirtied the foreground, so the next tick scans
	// again and sees a clean pair instead of fixing twice.
	results = w.Tick(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected a re-evaluation pass, got %d results", len(results))
	}
	if results[0].Status != models.CompliancePass || results[0].AppliedFix != nil {
		t.Fatalf("re-evaluation result: %+v", results[0])
	}

	if results := w.Tick(context.Background()); results != nil {
		t.Fatalf("third tick should be idle, got %v", results)
	}
}

func TestTickCoalescesWrites(t *testing.T) {
	st := store.New()
	scale := seedScale(t, st, "#4169e1")
	if err := st.Set(mustPath(t, "colors.surface"), "#ffffff"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	w := NewWatcher(st, nil)
	if err := st.Subscribe("compliance", w.OnChange); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := w.Register(mustPath(t, "colors.blue.900"), mustPath(t, "colors.surface"), 4.5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Nothing dirty yet beyond the writes above; drain them.
	_ = w.Tick(context.Background())
	if results := w.Tick(context.Background()); results != nil {
		t.Fatalf("idle tick produced results: %v", results)
	}

	// A full scale rewrite is twelve writes but one scan.
	if err := st.WriteScale(scale); err != nil {
		t.Fatalf("WriteScale failed: %v", err)
	}
	results := w.Tick(context.Background())
	if len(results) != 1 {
		t.Fatalf("expected 1 result from coalesced tick, got %d", len(results))
	}
	if results := w.Tick(context.Background()); results != nil {
		t.Fatalf("second tick should be idle, got %v", results)
	}
}
