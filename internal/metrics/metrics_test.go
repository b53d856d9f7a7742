package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c *Collector, outcome string) float64 {
	t.Helper()
	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "member2ldap_members_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestCollector_RecordOutcome(t *testing.T) {
	c := NewCollector("", "member2ldap")

	c.RecordOutcome("created")
	c.RecordOutcome("created")
	c.RecordOutcome("failed")

	assert.Equal(t, 2.0, counterValue(t, c, "created"))
	assert.Equal(t, 1.0, counterValue(t, c, "failed"))
	assert.Equal(t, 0.0, counterValue(t, c, "overwritten"))
}

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector("", "member2ldap")
	finished := time.Unix(1700000000, 0)

	c.RecordRun(1500*time.Millisecond, finished)

	families, err := c.Gatherer().Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range families {
		if len(mf.GetMetric()) == 1 && mf.GetMetric()[0].GetGauge() != nil {
			values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 1.5, values["member2ldap_run_duration_seconds"])
	assert.Equal(t, 1700000000.0, values["member2ldap_last_run_timestamp_seconds"])
}

func TestCollector_PushWithoutURLIsNoop(t *testing.T) {
	assert.NoError(t, NewCollector("", "member2ldap").Push(context.Background(), "portal"))
}

func TestCollector_Push(t *testing.T) {
	var (
		method, path string
		body         []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewCollector(srv.URL, "member2ldap")
	c.RecordOutcome("created")

	require.NoError(t, c.Push(context.Background(), "portal"))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/member2ldap/site/portal", path)
	assert.Contains(t, string(body), "member2ldap_members_total")
}

func TestCollector_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewCollector(srv.URL, "member2ldap").Push(context.Background(), "portal")
	assert.ErrorContains(t, err, "не удалось отправить метрики")
}
