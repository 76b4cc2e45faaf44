package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatMetricDescriptorsKeepsDuplicateNames(t *testing.T) {
	base := []MetricDescriptor{{Name: "CYCLES"}}
	other := []MetricDescriptor{{Name: "CYCLES"}, {Name: "CACHE_MISSES"}}

	got := ConcatMetricDescriptors(base, other)
	require.Len(t, got, 3, "expected straight concatenation, no dedup by name")
	assert.Equal(t, "CYCLES", got[0].Name)
	assert.Equal(t, "CYCLES", got[1].Name)
	assert.Equal(t, "CACHE_MISSES", got[2].Name)
}

// TestMergeSucceedsWithDifferingMetricCounts mirrors spec.md §8 scenario 3:
// a [CYCLES] profile merged with a [CYCLES, CACHE_MISSES] profile ends up
// with three metric columns, not a name-reconciled two.
func TestMergeSucceedsWithDifferingMetricCounts(t *testing.T) {
	p := New("a.out", nil, []MetricDescriptor{{Name: "CYCLES"}})
	pgmP := p.Tree.NewPgm("a.out")
	p.Tree.Link(pgmP, nil)

	other := New("a.out", nil, []MetricDescriptor{{Name: "CYCLES"}, {Name: "CACHE_MISSES"}})
	pgmOther := other.Tree.NewPgm("a.out")
	other.Tree.Link(pgmOther, nil)

	p.Metrics = ConcatMetricDescriptors(p.Metrics, other.Metrics)
	require.NoError(t, p.Merge(other))
	assert.Equal(t, 3, p.NumMetrics())
	assert.Equal(t, 3, p.Tree.NumMetrics())
}

func TestMergeRejectsUnwidenedDescriptors(t *testing.T) {
	p := New("a.out", nil, []MetricDescriptor{{Name: "CYCLES"}})
	other := New("a.out", nil, []MetricDescriptor{{Name: "CYCLES"}, {Name: "CACHE_MISSES"}})

	assert.Error(t, p.Merge(other), "expected error when p.Metrics was not grown to match before merging")
}

func TestNewProfileHasEmptyTree(t *testing.T) {
	p := New("a.out", nil, []MetricDescriptor{{Name: "CYCLES"}})
	assert.True(t, p.Tree.Empty(), "expected new profile's tree to be empty")
	assert.Equal(t, 1, p.NumMetrics())
}
