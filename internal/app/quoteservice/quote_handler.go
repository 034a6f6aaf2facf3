package quoteservice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"policyflow/internal/domain/customers"
	"policyflow/internal/domain/policies"
	"policyflow/internal/domain/pricing"
	"policyflow/internal/domain/quotes"
	"policyflow/internal/ports"
	"policyflow/internal/shared/logger"
)

// QuoteHTTPHandler adapts HTTP requests to the QuoteService.
type QuoteHTTPHandler struct {
	svc    ports.QuoteService
	logger *logger.Logger
}

// NewQuoteHTTPHandler wires an HTTP handler around the QuoteService.
func NewQuoteHTTPHandler(svc ports.QuoteService, logger *logger.Logger) *QuoteHTTPHandler {
	return &QuoteHTTPHandler{svc: svc, logger: logger}
}

// Register mounts the quote and policy routes on the provided mux.
func (handler *QuoteHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /quotes", handler.handleCreateQuote)
	mux.HandleFunc("POST /quotes/{id}/accept", handler.handleAcceptQuote)
	mux.HandleFunc("GET /quotes/{id}", handler.handleGetQuote)
	mux.HandleFunc("GET /policies/{id}", handler.handleGetPolicy)
}

// --- Request/Response DTOs (HTTP boundary) ---

type createQuoteRequest struct {
	CustomerID     string  `json:"customer_id"`
	CoverageAmount float64 `json:"coverage_amount"` // decimal currency units
	TermYears      int     `json:"term_years"`
}

type quoteResponse struct {
	QuoteID        string  `json:"quote_id"`
	CustomerID     string  `json:"customer_id"`
	CoverageAmount float64 `json:"coverage_amount"`
	TermYears      int     `json:"term_years"`
	MonthlyPremium float64 `json:"monthly_premium"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
}

type policyResponse struct {
	PolicyID     string `json:"policy_id"`
	PolicyNumber string `json:"policy_number"`
	CustomerID   string `json:"customer_id"`
	QuoteID      string `json:"quote_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
}

// --- Handlers ---

func (handler *QuoteHTTPHandler) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MiB
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		handler.httpError(ctx, w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errors.New("unsupported content type: "+ct))
		return
	}

	var req createQuoteRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "invalid JSON: "+err.Error(), err)
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "customer_id must be a UUID", err)
		return
	}

	handler.logger.Debug(ctx, "quote_requested", "new quote request received", map[string]any{
		"customer_id":     req.CustomerID,
		"coverage_amount": req.CoverageAmount,
		"term_years":      req.TermYears,
	})

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	quote, err := handler.svc.CreateQuote(ctxWithTimeout, ports.CreateQuoteCommand{
		CustomerID:     customerID,
		CoverageAmount: pricing.NewMoneyFromFloat2(req.CoverageAmount),
		TermYears:      req.TermYears,
	})
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusCreated, toQuoteResponse(quote))
}

func (handler *QuoteHTTPHandler) handleAcceptQuote(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	quoteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "quote id must be a UUID", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	policy, err := handler.svc.AcceptQuote(ctxWithTimeout, quoteID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toPolicyResponse(policy))
}

func (handler *QuoteHTTPHandler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	quoteID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "quote id must be a UUID", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	quote, err := handler.svc.GetQuote(ctxWithTimeout, quoteID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toQuoteResponse(quote))
}

func (handler *QuoteHTTPHandler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ctx := handler.withReqID(r.Context(), r)

	policyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.httpError(ctx, w, http.StatusBadRequest, "policy id must be a UUID", err)
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	policy, err := handler.svc.GetPolicy(ctxWithTimeout, policyID)
	if err != nil {
		handler.serviceError(ctxWithTimeout, w, err)
		return
	}

	handler.jsonResponse(ctxWithTimeout, w, http.StatusOK, toPolicyResponse(policy))
}

// --- Helpers ---

func toQuoteResponse(q *quotes.Quote) quoteResponse {
	return quoteResponse{
		QuoteID:        q.ID.String(),
		CustomerID:     q.CustomerID.String(),
		CoverageAmount: q.CoverageAmount.ToFloat2(),
		TermYears:      q.TermYears,
		MonthlyPremium: q.MonthlyPremium.ToFloat2(),
		Status:         string(q.Status),
		CreatedAt:      q.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPolicyResponse(p *policies.Policy) policyResponse {
	return policyResponse{
		PolicyID:     p.ID.String(),
		PolicyNumber: p.Number,
		CustomerID:   p.CustomerID.String(),
		QuoteID:      p.QuoteID.String(),
		StartDate:    p.StartDate.UTC().Format(time.RFC3339),
		EndDate:      p.EndDate.UTC().Format(time.RFC3339),
		Status:       string(p.Status),
	}
}

// serviceError maps the error taxonomy to HTTP statuses: validation 400,
// not-found 404, state conflict 409, everything else 500 (transient, caller
// may retry the whole operation).
func (handler *QuoteHTTPHandler) serviceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pricing.ErrInvalidInput):
		handler.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, quotes.ErrNotFound), errors.Is(err, policies.ErrNotFound), errors.Is(err, customers.ErrNotFound):
		handler.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, quotes.ErrNotPending):
		handler.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	default:
		handler.httpError(ctx, w, http.StatusInternalServerError, "transient failure, retry later", err)
	}
}

// httpError sends a JSON error response with a message.
func (handler *QuoteHTTPHandler) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusConflict:
		action = "state_conflict"
	case status == http.StatusNotFound:
		action = "not_found"
	}
	handler.logger.Error(ctx, action, msg, err)

	type errBody struct {
		Error string `json:"error"`
	}
	handler.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// jsonResponse encodes data to the HTTP response.
func (handler *QuoteHTTPHandler) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	buf, err := json.Marshal(data)
	if err != nil {
		handler.logger.Error(ctx, "response_encode_failed", "failed to encode response", err)
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// withReqID extracts or generates a request ID and adds it to the context.
func (handler *QuoteHTTPHandler) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = randID()
	}
	return handler.logger.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
