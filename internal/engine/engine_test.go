package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencode-ai/tint/internal/compliance"
	"github.com/opencode-ai/tint/internal/models"
	"github.com/opencode-ai/tint/internal/store"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(DefaultConfig(), nil)
}

type logRecorder struct {
	events []*models.Event
}

func (r *logRecorder) Record(_ context.Context, event *models.Event) error {
	r.events = append(r.events, event)
	return nil
}

func (r *logRecorder) types() []models.EventType {
	out := make([]models.EventType, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Type)
	}
	return out
}

func TestSetAndResolveRoundTrip(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.SetToken(ctx, "spacing.md", "16px"))
	res, err := e.Resolve("spacing.md")
	require.NoError(t, err)
	require.Equal(t, "16px", res.Value)
	require.Equal(t, models.KindDimension, res.Kind)
}

func TestResolveErrorsAreTyped(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	require.NoError(t, e.SetToken(ctx, "colors.a", "{colors.b}"))
	require.NoError(t, e.SetToken(ctx, "colors.b", "{colors.a}"))

	_, err := e.Resolve("colors.a")
	require.ErrorIs(t, err, store.ErrCycleDetected)

	_, err = e.Resolve("colors.nope")
	require.ErrorIs(t, err, store.ErrUnresolvedReference)
}

func TestSynthesizeScaleEndToEnd(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	scale, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.Equal(t, "blue", scale.Alias)
	require.Equal(t, "#4169e1", scale.Hex[6])

	// All twelve steps landed in the store.
	got, err := e.Scale("blue")
	require.NoError(t, err)
	require.Equal(t, scale.Hex, got.Hex)

	// Both naming schemes point at the same token.
	names, err := e.ExternalNames("colors.blue.100")
	require.NoError(t, err)
	require.Equal(t, []string{"colors/blue/100", "colors/scale-01/100"}, names)

	byAlias, ok := e.LookupName("colors/blue/100")
	require.True(t, ok)
	byIndex, ok := e.LookupName("colors/scale-01/100")
	require.True(t, ok)
	require.Equal(t, byAlias, byIndex)

	resA, err := e.Resolve(byAlias.String())
	require.NoError(t, err)
	resB, err := e.Resolve(byIndex.String())
	require.NoError(t, err)
	require.Equal(t, resA.Value, resB.Value)
}

func TestSynthesizeScaleAliasCollision(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	first, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	second, err := e.SynthesizeScale(ctx, "#1144cc", "")
	require.NoError(t, err)

	require.Equal(t, "blue", first.Alias)
	require.Equal(t, "blue-2", second.Alias)
	require.Equal(t, []string{"blue", "blue-2"}, e.Families())
}

func TestApplyCascadeUnknownFamily(t *testing.T) {
	e := newEngine(t)
	_, err := e.ApplyCascade(context.Background(), "nope", "500", "#ff0000", true, true)
	require.ErrorIs(t, err, ErrUnknownFamily)
}

func TestApplyCascadeSelective(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	base, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)

	edited, err := e.ApplyCascade(ctx, "blue", "500", "#aa3366", true, false)
	require.NoError(t, err)

	stored, err := e.Scale("blue")
	require.NoError(t, err)
	require.Equal(t, edited.Hex, stored.Hex)
	for i := 7; i < models.NumScaleSteps; i++ {
		require.Equal(t, base.Hex[i], stored.Hex[i], "step %s", models.StepAt(i))
	}
}

func TestDeleteScaleRemovesFamilyAndAlias(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.NoError(t, e.DeleteScale(ctx, "blue"))

	_, err = e.Scale("blue")
	require.ErrorIs(t, err, ErrUnknownFamily)
	require.Empty(t, e.Families())
	_, ok := e.LookupName("colors/scale-01/100")
	require.False(t, ok, "retired scale index must not resolve")

	require.ErrorIs(t, e.DeleteScale(ctx, "blue"), ErrUnknownFamily)
}

func TestComplianceAutoFixOnCascade(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.NoError(t, e.SetToken(ctx, "colors.surface", "#ffffff"))

	_, err = e.RegisterCompliancePair("colors.blue.100", "colors.surface", 4.5)
	require.NoError(t, err)

	results := e.RunComplianceScan(ctx)
	require.Len(t, results, 1)
	require.Equal(t, models.CompliancePass, results[0].Status)
	require.NotNil(t, results[0].AppliedFix)

	// A later cascade edit re-lightens step 100; the post-call tick must
	// restore compliance without an explicit scan.
	_, err = e.ApplyCascade(ctx, "blue", "500", "#5588ee", true, false)
	require.NoError(t, err)

	fg, err := e.Resolve("colors.blue.100")
	require.NoError(t, err)
	bg, err := e.Resolve("colors.surface")
	require.NoError(t, err)
	ratio, err := compliance.Ratio(fg.Value, bg.Value)
	require.NoError(t, err)
	require.GreaterOrEqual(t, ratio, 4.5)
}

func TestOnChangeFiltering(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	var seen []string
	unsubscribe, err := e.OnChange("colors.blue", func(event models.ChangeEvent) {
		seen = append(seen, event.Path.String())
	})
	require.NoError(t, err)

	require.NoError(t, e.SetToken(ctx, "colors.blue.500", "#4169e1"))
	require.NoError(t, e.SetToken(ctx, "spacing.md", "16px"))
	require.Len(t, seen, 1)
	require.Equal(t, "colors.blue.500", seen[0])

	unsubscribe()
	require.NoError(t, e.SetToken(ctx, "colors.blue.500", "#112233"))
	require.Len(t, seen, 1, "unsubscribed callback still firing")
}

func TestExportImportRoundTrip(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.NoError(t, e.SetToken(ctx, "colors.surface", "#ffffff"))
	require.NoError(t, e.SetToken(ctx, "colors.brand", "{colors.blue.500}"))
	require.NoError(t, e.SetOverride(ctx, "colors.surface", "#fafafa"))
	_, err = e.RegisterCompliancePair("colors.blue.700", "colors.surface", 4.5)
	require.NoError(t, err)

	doc := e.Export()
	require.Len(t, doc.Tokens, 14)
	require.Equal(t, []string{"blue"}, doc.Families)
	require.Equal(t, map[string]string{"colors.surface": "#fafafa"}, doc.Overrides)
	require.Len(t, doc.Pairs, 1)

	restored := New(DefaultConfig(), nil)
	require.NoError(t, restored.Import(ctx, doc))

	for _, path := range []string{"colors.brand", "colors.surface", "colors.blue.000"} {
		want, err := e.Resolve(path)
		require.NoError(t, err)
		got, err := restored.Resolve(path)
		require.NoError(t, err)
		require.Equal(t, want, got, "path %s", path)
	}

	names, err := restored.ExternalNames("colors.blue.100")
	require.NoError(t, err)
	require.Contains(t, names, "colors/scale-01/100")
	require.Len(t, restored.CompliancePairs(), 1)
}

func TestImportPreservesTokenAndPairIDs(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.NoError(t, e.SetToken(ctx, "colors.surface", "#ffffff"))
	require.NoError(t, e.SetToken(ctx, "colors.brand", "{colors.blue.500}"))
	pair, err := e.RegisterCompliancePair("colors.blue.700", "colors.surface", 4.5)
	require.NoError(t, err)

	restored := New(DefaultConfig(), nil)
	require.NoError(t, restored.Import(ctx, e.Export()))

	// Internal identities must survive the round trip, so change-log
	// entries from one session stay correlated with the next.
	want := make(map[string]string)
	for _, token := range e.Tokens() {
		want[token.Path.String()] = token.ID
	}
	got := restored.Tokens()
	require.Len(t, got, len(want))
	for _, token := range got {
		require.Equal(t, want[token.Path.String()], token.ID, "token %s", token.Path)
	}

	pairs := restored.CompliancePairs()
	require.Len(t, pairs, 1)
	require.Equal(t, pair.ID, pairs[0].ID)
}

func TestOverrideEventsRecorded(t *testing.T) {
	recorder := &logRecorder{}
	e := New(DefaultConfig(), recorder)
	ctx := context.Background()

	require.NoError(t, e.SetToken(ctx, "colors.surface", "#ffffff"))
	require.NoError(t, e.SetOverride(ctx, "colors.surface", "#fafafa"))
	require.NoError(t, e.ClearOverride(ctx, "colors.surface"))

	types := recorder.types()
	require.Contains(t, types, models.EventTypeOverrideSet)
	require.Contains(t, types, models.EventTypeOverrideCleared)
}

func TestScaleIncompleteNotMaskedAsUnknown(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.SynthesizeScale(ctx, "#4169e1", "")
	require.NoError(t, err)
	require.NoError(t, e.SetToken(ctx, "colors.blue.300", "{colors.missing}"))

	_, err = e.Scale("blue")
	require.ErrorIs(t, err, store.ErrScaleIncomplete)
	require.NotErrorIs(t, err, ErrUnknownFamily)

	_, err = e.ApplyCascade(ctx, "blue", "500", "#ff0000", true, true)
	require.ErrorIs(t, err, store.ErrScaleIncomplete)
}
