package quoteservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policyflow/internal/domain/pricing"
	"policyflow/internal/shared/logger"
)

func newHandlerFixture(t *testing.T) (*http.ServeMux, *fakeStore) {
	t.Helper()
	svc, store, _ := newFixture(t)
	mux := http.NewServeMux()
	NewQuoteHTTPHandler(svc, logger.NewLogger("quote-service-test")).Register(mux)
	return mux, store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleCreateQuote(t *testing.T) {
	t.Parallel()
	mux, store := newHandlerFixture(t)
	customerID := seedCustomer(store, 35, false, pricing.OccupationLow)

	rec := doJSON(t, mux, http.MethodPost, "/quotes", fmt.Sprintf(
		`{"customer_id":%q,"coverage_amount":10000000,"term_years":20}`, customerID))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, customerID.String(), body["customer_id"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, 458.33, body["monthly_premium"])
	assert.Equal(t, float64(20), body["term_years"])
	assert.NotEmpty(t, body["quote_id"])
}

func TestHandleCreateQuote_BadRequests(t *testing.T) {
	t.Parallel()
	mux, store := newHandlerFixture(t)
	customerID := seedCustomer(store, 35, false, pricing.OccupationLow)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"customer_id":`, http.StatusBadRequest},
		{"unknown field", fmt.Sprintf(`{"customer_id":%q,"coverage_amount":1000,"term_years":10,"extra":true}`, customerID), http.StatusBadRequest},
		{"bad customer uuid", `{"customer_id":"42","coverage_amount":1000,"term_years":10}`, http.StatusBadRequest},
		{"zero coverage", fmt.Sprintf(`{"customer_id":%q,"coverage_amount":0,"term_years":10}`, customerID), http.StatusBadRequest},
		{"zero term", fmt.Sprintf(`{"customer_id":%q,"coverage_amount":1000,"term_years":0}`, customerID), http.StatusBadRequest},
		{"unknown customer", fmt.Sprintf(`{"customer_id":%q,"coverage_amount":1000,"term_years":10}`, uuid.New()), http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/quotes", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestHandleCreateQuote_RejectsNonJSONContentType(t *testing.T) {
	t.Parallel()
	mux, _ := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/quotes", strings.NewReader("coverage=1000"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHandleAcceptQuote(t *testing.T) {
	t.Parallel()
	mux, store := newHandlerFixture(t)
	quoteID := seedPendingQuote(store, seedCustomer(store, 35, false, pricing.OccupationLow))

	rec := doJSON(t, mux, http.MethodPost, "/quotes/"+quoteID.String()+"/accept", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "ACTIVE", body["status"])
	assert.Equal(t, quoteID.String(), body["quote_id"])
	assert.True(t, strings.HasPrefix(body["policy_number"].(string), "POL_20260901_"), body["policy_number"])

	// accepting again is a conflict, not a second policy
	rec = doJSON(t, mux, http.MethodPost, "/quotes/"+quoteID.String()+"/accept", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, store.state.policies, 1)
}

func TestHandleAcceptQuote_NotFoundAndBadID(t *testing.T) {
	t.Parallel()
	mux, _ := newHandlerFixture(t)

	rec := doJSON(t, mux, http.MethodPost, "/quotes/"+uuid.NewString()+"/accept", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/quotes/not-a-uuid/accept", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetQuoteAndPolicy(t *testing.T) {
	t.Parallel()
	mux, store := newHandlerFixture(t)
	quoteID := seedPendingQuote(store, seedCustomer(store, 35, false, pricing.OccupationLow))

	rec := doJSON(t, mux, http.MethodGet, "/quotes/"+quoteID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, quoteID.String(), decodeBody(t, rec)["quote_id"])

	accept := doJSON(t, mux, http.MethodPost, "/quotes/"+quoteID.String()+"/accept", "")
	require.Equal(t, http.StatusOK, accept.Code)
	policyID := decodeBody(t, accept)["policy_id"].(string)

	rec = doJSON(t, mux, http.MethodGet, "/policies/"+policyID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, policyID, decodeBody(t, rec)["policy_id"])

	rec = doJSON(t, mux, http.MethodGet, "/policies/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
