package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfq-match/api/handler"
	"rfq-match/service"
	"rfq-match/types"
)

type fakeMatcher struct {
	processErr error
	suggestErr error
	upserted   *types.Supplier
	feedback   *types.FeedbackRequest
	panicOn    string
}

func (f *fakeMatcher) Process(_ context.Context, doc *types.Document) (*types.ProcessResult, error) {
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &types.ProcessResult{
		Extraction: types.ExtractionResult{
			Requirement: &types.StructuredRequirement{DocumentID: doc.ID, Dialect: types.DialectGSAEBuy},
			Validation:  types.ValidationResult{IsValid: true, RecommendedAction: types.ActionProceed},
		},
		Matches: []types.SupplierMatchResult{{SupplierID: "sup-a", CompositeScore: 0.82}},
	}, nil
}

func (f *fakeMatcher) Suggest(_ context.Context, in types.SuggestRequest) ([]types.SupplierMatchResult, error) {
	if f.panicOn == "suggest" {
		panic("boom")
	}
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return []types.SupplierMatchResult{{SupplierID: "sup-a"}, {SupplierID: "sup-b"}}, nil
}

func (f *fakeMatcher) GetMatches(_ context.Context, documentID string) (*types.MatchesResponse, error) {
	if documentID == "doc-1" {
		return &types.MatchesResponse{DocumentID: documentID, Found: true, Matches: []types.StoredMatch{{Rank: 1, SupplierID: "sup-a"}}}, nil
	}
	return &types.MatchesResponse{DocumentID: documentID, Matches: []types.StoredMatch{}}, nil
}

func (f *fakeMatcher) SubmitFeedback(_ context.Context, in types.FeedbackRequest) (*types.Feedback, error) {
	f.feedback = &in
	return &types.Feedback{ID: "fb-1", DocumentID: in.DocumentID, SupplierID: in.SupplierID, Label: in.Label}, nil
}

func (f *fakeMatcher) UpsertSupplier(_ context.Context, s *types.Supplier) error {
	if s.Name == "" {
		return service.ErrInvalidSupplier
	}
	f.upserted = s
	return nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func setupRouter(m *fakeMatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := New(zap.NewNop())
	RegisterRoutes(r, handler.NewMatchHandler(m, zap.NewNop()))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestClassifyDocument(t *testing.T) {
	r := setupRouter(&fakeMatcher{})
	w, env := do(t, r, http.MethodPost, "/api/v1/documents", types.Document{ID: "doc-9", Subject: "RFQ 47QTCA"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	var result types.ProcessResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "doc-9", result.Extraction.Requirement.DocumentID)
	assert.Equal(t, "sup-a", result.Matches[0].SupplierID)
}

func TestClassifyDocument_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"extraction", &types.ExtractionError{Dialect: types.DialectGeneric, Err: assert.AnError}, http.StatusBadRequest},
		{"transient", &types.TransientServiceError{Service: "catalog", Err: types.ErrCatalogUnavailable}, http.StatusServiceUnavailable},
		{"unknown", assert.AnError, http.StatusInternalServerError},
		{"extraction deadline", &types.ExtractionError{Dialect: types.DialectNASASEWP, Err: fmt.Errorf("infer: %w", context.DeadlineExceeded)}, http.StatusServiceUnavailable},
		{"canceled", fmt.Errorf("process: %w", context.Canceled), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&fakeMatcher{processErr: tt.err})
			w, env := do(t, r, http.MethodPost, "/api/v1/documents", types.Document{ID: "doc-1"})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, -1, env.Code)
		})
	}
}

func TestSuggest(t *testing.T) {
	r := setupRouter(&fakeMatcher{})
	w, env := do(t, r, http.MethodPost, "/api/v1/suggestions", types.SuggestRequest{
		Items: []types.LineItem{{Name: "Dell Latitude 5550"}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Total)

	r = setupRouter(&fakeMatcher{suggestErr: service.ErrEmptySuggestion})
	w, _ = do(t, r, http.MethodPost, "/api/v1/suggestions", types.SuggestRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMatches(t *testing.T) {
	r := setupRouter(&fakeMatcher{})

	_, env := do(t, r, http.MethodGet, "/api/v1/matches/doc-1", nil)
	var found types.MatchesResponse
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.True(t, found.Found)
	assert.Len(t, found.Matches, 1)

	w, env := do(t, r, http.MethodGet, "/api/v1/matches/doc-404", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var missing types.MatchesResponse
	require.NoError(t, json.Unmarshal(env.Data, &missing))
	assert.False(t, missing.Found)
	assert.NotNil(t, missing.Matches)
}

func TestSubmitFeedback(t *testing.T) {
	m := &fakeMatcher{}
	r := setupRouter(m)

	w, _ := do(t, r, http.MethodPost, "/api/v1/feedback", map[string]any{"document_id": "doc-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/v1/feedback", map[string]any{
		"document_id": "doc-1", "supplier_id": "sup-a", "label": "selected", "rating": 9,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/v1/feedback", types.FeedbackRequest{
		DocumentID: "doc-1", SupplierID: "sup-a", Label: "selected", Rating: 4,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	require.NotNil(t, m.feedback)
	assert.Equal(t, 4, m.feedback.Rating)
}

func TestUpsertSupplier(t *testing.T) {
	m := &fakeMatcher{}
	r := setupRouter(m)

	w, _ := do(t, r, http.MethodPut, "/api/v1/suppliers/sup-z", types.Supplier{ID: "ignored", Name: "Zulu Federal"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, m.upserted)
	assert.Equal(t, "sup-z", m.upserted.ID)

	w, _ = do(t, r, http.MethodPut, "/api/v1/suppliers/sup-y", types.Supplier{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecoveryAndMetrics(t *testing.T) {
	r := setupRouter(&fakeMatcher{panicOn: "suggest"})
	w, env := do(t, r, http.MethodPost, "/api/v1/suggestions", types.SuggestRequest{Items: []types.LineItem{{Name: "x"}}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, -1, env.Code)

	w, _ = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
