package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestInstrumentHandler_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/accounts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := InstrumentHandler(mux)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/accounts/abc", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	body := scrape(t)
	assert.Contains(t, body, `route="GET /api/v1/accounts/{id}",status="418"`)
	assert.Contains(t, body, `route="unmatched",status="404"`)
}

func TestRecordJob(t *testing.T) {
	RecordJob("normalize", 20*time.Millisecond, 3, true)
	RecordJob("normalize", 0, 0, false)

	body := scrape(t)
	assert.Contains(t, body, `bizledger_maintenance_items_changed_total{job="normalize"} 3`)
	assert.Contains(t, body, `bizledger_maintenance_runs_total{job="normalize",success="false"} 1`)
}

func TestRecordPosting(t *testing.T) {
	RecordPosting("rejected")
	assert.Contains(t, scrape(t), `bizledger_ledger_postings_total{outcome="rejected"}`)
}

func TestRecordPanic(t *testing.T) {
	RecordPanic("POST /api/v1/transactions")
	RecordPanic("")

	body := scrape(t)
	assert.Contains(t, body, `bizledger_http_panics_total{route="POST /api/v1/transactions"} 1`)
	assert.Contains(t, body, `bizledger_http_panics_total{route="unmatched"} 1`)
}
