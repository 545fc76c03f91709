// Package storetest is the behavioural test suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/diet"
	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
)

// Run exercises open's store. open is called once per subtest and must
// return an empty store.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("snapshots", func(t *testing.T) { testSnapshots(t, open(t)) })
	t.Run("reports", func(t *testing.T) { testReports(t, open(t)) })
	t.Run("report filter", func(t *testing.T) { testReportFilter(t, open(t)) })
	t.Run("invalid input", func(t *testing.T) { testInvalid(t, open(t)) })
}

func testSnapshots(t *testing.T, st store.Store) {
	ctx := context.Background()
	t0 := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	first := store.Snapshot{
		Name:      "default",
		Version:   "aaa",
		Files:     map[string][]byte{"plants.yaml": []byte("inherently_halal: [sugar]\n")},
		CreatedAt: t0,
	}
	require.NoError(t, st.PutSnapshot(ctx, first))

	// Same version again is a no-op, even with different contents.
	dup := first
	dup.Files = map[string][]byte{"other.yaml": []byte("x")}
	require.NoError(t, st.PutSnapshot(ctx, dup))

	require.NoError(t, st.PutSnapshot(ctx, store.Snapshot{
		Name:      "default",
		Version:   "bbb",
		Files:     map[string][]byte{"a.yaml": nil, "b.yaml": []byte("b")},
		CreatedAt: t0.Add(time.Hour),
	}))
	require.NoError(t, st.PutSnapshot(ctx, store.Snapshot{Name: "strict", Version: "ccc", CreatedAt: t0}))

	got, err := st.GetSnapshot(ctx, "default", "aaa")
	require.NoError(t, err)
	assert.Equal(t, first.Files, got.Files)
	assert.True(t, got.CreatedAt.Equal(t0))

	_, err = st.GetSnapshot(ctx, "default", "zzz")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)

	list, err := st.ListSnapshots(ctx, "default")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bbb", list[0].Version)
	assert.Equal(t, 2, list[0].Files)
	assert.Equal(t, "aaa", list[1].Version)

	all, err := st.ListSnapshots(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func sampleReport(b *report.Builder, scanID string) report.Report {
	r := b.New(scanID, "default@aaa")
	ing := diet.NewIngredient("Gelatin")
	r.Ingredients = append(r.Ingredients, ing)
	r.Classifications = append(r.Classifications, diet.Classification{
		Diet:        diet.Halal,
		Ingredient:  ing,
		Status:      "NOT_HALAL_UNVERIFIED",
		Tier:        diet.TierVerify,
		Confidence:  diet.Low,
		ReasonCodes: []string{"gelatin_source_unknown"},
		Evidence:    []string{"Gelatin source not specified"},
	})
	r.Verdicts = append(r.Verdicts, diet.Verdict{
		Diet:               diet.Halal,
		Status:             "NOT_HALAL_UNVERIFIED",
		Tier:               diet.TierVerify,
		Confidence:         diet.Low,
		Reason:             "Contains ingredient(s) with unverified halal source or processing.",
		FailingIngredients: []string{"Gelatin"},
		ReasonCodes:        []string{"gelatin_source_unknown"},
	})
	return r
}

func testReports(t *testing.T, st store.Store) {
	ctx := context.Background()
	b := report.NewBuilder()

	r := sampleReport(b, "scan-1")
	require.NoError(t, st.PutReport(ctx, r))

	got, err := st.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ScanID, got.ScanID)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, r.Verdicts, got.Verdicts)
	assert.Equal(t, r.Classifications, got.Classifications)
	assert.Equal(t, diet.TierVerify, got.Verdicts[0].Tier)

	// Replacing keeps one row.
	r = report.Reject(r, "too short")
	require.NoError(t, st.PutReport(ctx, r))
	got, err = st.GetReport(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, got.Rejected())

	list, err := st.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = st.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, internalerr.ErrNotFound)
}

func testReportFilter(t *testing.T, st store.Store) {
	ctx := context.Background()
	b := report.NewBuilder()

	var ids []string
	for i := 0; i < 5; i++ {
		r := sampleReport(b, "")
		if i%2 == 1 {
			r = report.Reject(r, "no ingredients")
		}
		require.NoError(t, st.PutReport(ctx, r))
		ids = append(ids, r.ID)
	}

	list, err := st.ListReports(ctx, store.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, ids[4], list[0].ID)
	assert.Equal(t, ids[0], list[4].ID)

	list, err = st.ListReports(ctx, store.ReportFilter{Outcome: report.OutcomeRejected})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[3], list[0].ID)

	list, err = st.ListReports(ctx, store.ReportFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[4], list[0].ID)

	list, err = st.ListReports(ctx, store.ReportFilter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testInvalid(t *testing.T, st store.Store) {
	ctx := context.Background()
	assert.ErrorIs(t, st.PutReport(ctx, report.Report{}), internalerr.ErrInvalidInput)
	assert.ErrorIs(t, st.PutSnapshot(ctx, store.Snapshot{Name: "x"}), internalerr.ErrInvalidInput)
}
