package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/internalerr"
	"github.com/cognicore/puremark/pkg/puremark/report"
	"github.com/cognicore/puremark/pkg/puremark/store"
	"github.com/cognicore/puremark/pkg/puremark/store/storetest"
)

func TestStoreBehaviour(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestSnapshotIsCopied(t *testing.T) {
	ctx := context.Background()
	st := New()
	files := map[string][]byte{"a.yaml": []byte("one")}
	require.NoError(t, st.PutSnapshot(ctx, store.Snapshot{Name: "n", Version: "v", Files: files}))

	files["a.yaml"][0] = 'X'
	got, err := st.GetSnapshot(ctx, "n", "v")
	require.NoError(t, err)
	assert.Equal(t, "one", string(got.Files["a.yaml"]))
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	st := New()
	require.NoError(t, st.Close())

	r := report.NewBuilder().New("", "v")
	assert.ErrorIs(t, st.PutReport(ctx, r), internalerr.ErrStoreUnavailable)
	_, err := st.ListReports(ctx, store.ReportFilter{})
	assert.ErrorIs(t, err, internalerr.ErrStoreUnavailable)
}
