package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.FeedbackTotal.WithLabelValues("correction").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.FeedbackTotal.WithLabelValues("correction")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FeedbackTotal.WithLabelValues("correction")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.PatternsPromoted.Inc()
	m.StoreOperations.WithLabelValues("append_feedback", "local", "success").Inc()

	path := filepath.Join(t.TempDir(), "aura-frog.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "aura_frog_learning_patterns_promoted_total 1")
	assert.Contains(t, string(data), `aura_frog_store_operations_total{mode="local",op="append_feedback",result="success"} 1`)
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := New().WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
