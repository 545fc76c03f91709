package report

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/puremark/pkg/puremark/diet"
)

func TestBuilderULIDUniqueness(t *testing.T) {
	b := NewBuilder()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	ids := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		r := b.New("scan", "default@1")
		assert.False(t, ids[r.ID], "duplicate ULID %s", r.ID)
		ids[r.ID] = true
		assert.Greater(t, r.ID, prev)
		prev = r.ID
	}

	id, err := ulid.Parse(prev)
	require.NoError(t, err)
	assert.Equal(t, fixed, ulid.Time(id.Time()).UTC())
}

func TestBuilderConcurrent(t *testing.T) {
	b := NewBuilder()
	var (
		mu  sync.Mutex
		ids = make(map[string]struct{})
		wg  sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r := b.New("", "v")
				mu.Lock()
				ids[r.ID] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 800)
}

func TestNewReportShape(t *testing.T) {
	r := NewBuilder().New("scan-1", "default@3")
	assert.Equal(t, OutcomeAnalyzed, r.Outcome)
	assert.Equal(t, "default@3", r.KBVersion)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"allergens":[]`)
	assert.Contains(t, string(raw), `"verdicts":[]`)
	assert.NotContains(t, string(raw), `"zones"`)
}

func TestRejectAndVerdict(t *testing.T) {
	r := NewBuilder().New("", "v")
	r.Verdicts = append(r.Verdicts, diet.Verdict{Diet: diet.Vegan, Status: "COMPLIANT", Tier: diet.TierPass})

	v, ok := r.Verdict(diet.Vegan)
	require.True(t, ok)
	assert.Equal(t, "COMPLIANT", v.Status)
	_, ok = r.Verdict(diet.Halal)
	assert.False(t, ok)

	rejected := Reject(r, "no ingredient list found")
	assert.True(t, rejected.Rejected())
	assert.False(t, r.Rejected())
	assert.Equal(t, "no ingredient list found", rejected.RejectReason)
}
