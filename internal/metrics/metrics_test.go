package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordSolve(t *testing.T) {
	c := NewCollector()
	c.RecordSolve("voicelead", OutcomeOK, 20*time.Millisecond)
	c.RecordSolve("voicelead", OutcomeInvalid, 5*time.Millisecond)
	c.RecordSolve("harmonize", OutcomeOK, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.SolvesTotal("voicelead", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SolvesTotal("voicelead", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SolvesTotal("harmonize", OutcomeOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(c.solveDuration))
}

func TestCollectorTotals(t *testing.T) {
	c := NewCollector()
	totals, err := c.Totals()
	require.NoError(t, err)
	assert.Empty(t, totals)

	c.RecordSolve("voicelead", OutcomeOK, time.Millisecond)
	c.RecordSolve("voicelead", OutcomeOK, time.Millisecond)
	c.RecordSolve("harmonize", OutcomeError, time.Millisecond)

	totals, err = c.Totals()
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"voicelead": {OutcomeOK: 2},
		"harmonize": {OutcomeError: 1},
	}, totals)
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.RecordSolve("harmonize", OutcomeError, time.Millisecond)
	assert.Equal(t, 0, testutil.CollectAndCount(b.solvesTotal))
}

func TestCollectorHandler(t *testing.T) {
	c := NewCollector()
	c.RecordSolve("arrange", OutcomeOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `harmony_solves_total{kind="arrange",outcome="ok"} 1`)
	assert.Contains(t, string(body), "harmony_solve_duration_seconds_bucket")
}

func TestCloudWatchDisabledOutsideProduction(t *testing.T) {
	c, err := NewClient(context.Background(), "development", "")
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	// No-ops when disabled.
	c.RecordSolve("voicelead", time.Millisecond, false)
	c.RecordAPIRequest("/api/v1/voicelead", 200, time.Millisecond)
}

func TestCloudWatchDatum(t *testing.T) {
	c := &Client{environment: "production", namespace: defaultNamespace}
	d := datum("SolveInvalid", 1, types.StandardUnitCount, c.dimensions("Kind", "voicelead"))

	assert.Equal(t, "SolveInvalid", aws.ToString(d.MetricName))
	assert.Equal(t, 1.0, aws.ToFloat64(d.Value))
	require.Len(t, d.Dimensions, 2)
	assert.Equal(t, "voicelead", aws.ToString(d.Dimensions[0].Value))
	assert.Equal(t, "production", aws.ToString(d.Dimensions[1].Value))

	// Enabled but without an AWS client: publish is a no-op.
	c.enabled = true
	c.RecordSolve("voicelead", time.Millisecond, true)
}

func TestSentryMetricsWithoutClient(t *testing.T) {
	m := NewSentryMetrics(true)
	assert.NotPanics(t, func() {
		m.RecordSolve(context.Background(), "harmonize", time.Millisecond, true)
		m.RecordAPIRequest(context.Background(), "/health", 200, time.Millisecond)
	})
}
