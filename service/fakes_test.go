package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rfq-match/logic/match"
	"rfq-match/logic/recall"
	"rfq-match/types"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// fixedStrategy 按供应商 ID 返回预设分数
type fixedStrategy struct {
	scores map[string]float64
}

func (fixedStrategy) Name() string { return "fixed" }
func (fixedStrategy) Weight() float64 { return 1 }
func (fixedStrategy) IsApplicable(*types.StructuredRequirement) bool { return true }

func (f fixedStrategy) Score(_ *types.StructuredRequirement, s *types.Supplier) (types.MatchScore, error) {
	return types.MatchScore{Value: f.scores[s.ID], Confidence: 0.9}, nil
}

func newTestEngine(scores map[string]float64) *match.Engine {
	cfg := match.DefaultConfig()
	cfg.TopN = 2
	return match.NewEngine(cfg, zap.NewNop(),
		match.WithStrategies(fixedStrategy{scores: scores}),
		match.WithEngineClock(func() time.Time { return testNow }))
}

type fakeExtractor struct {
	result *types.ExtractionResult
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(_ context.Context, doc *types.Document) (*types.ExtractionResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	req := *out.Requirement
	req.DocumentID = doc.ID
	out.Requirement = &req
	return &out, nil
}

func validExtraction() *types.ExtractionResult {
	return &types.ExtractionResult{
		Requirement: &types.StructuredRequirement{
			Dialect:    types.DialectNASASEWP,
			Confidence: 0.85,
			Title:      "Dell Latitude laptops",
			Items:      []types.LineItem{{Name: "Dell Latitude 5550", Quantity: 25}},
		},
		Validation: types.ValidationResult{IsValid: true, RecommendedAction: types.ActionProceed},
		Selection:  types.Selection{Dialect: types.DialectNASASEWP, Confidence: 0.9},
	}
}

type fakeCatalog struct {
	suppliers []types.Supplier
	listErr  error
	upserted []types.Supplier
}

func (f *fakeCatalog) ListActiveSuppliers(context.Context) ([]types.Supplier, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []types.Supplier
	for _, s := range f.suppliers {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) UpsertSupplier(_ context.Context, s *types.Supplier) error {
	f.upserted = append(f.upserted, *s)
	return nil
}

type fakeMatchStore struct {
	runs      map[string]*types.MatchRun
	feedback  []types.Feedback
	appendErr error
	getCalls  int
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{runs: map[string]*types.MatchRun{}}
}

func (f *fakeMatchStore) AppendMatchHistory(_ context.Context, run *types.MatchRun) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.runs[run.DocumentID] = run
	return nil
}

func (f *fakeMatchStore) GetMatches(_ context.Context, documentID string) ([]types.StoredMatch, bool, error) {
	f.getCalls++
	run, ok := f.runs[documentID]
	if !ok {
		return []types.StoredMatch{}, false, nil
	}
	out := make([]types.StoredMatch, len(run.Results))
	for i, r := range run.Results {
		out[i] = types.StoredMatch{
			DocumentID:     documentID,
			Rank:           i + 1,
			SupplierID:     r.SupplierID,
			CompositeScore: r.CompositeScore,
			Dialect:        run.Dialect,
		}
	}
	return out, true, nil
}

func (f *fakeMatchStore) AppendFeedback(_ context.Context, fb *types.Feedback) error {
	f.feedback = append(f.feedback, *fb)
	return nil
}

type fakePublisher struct {
	classified []types.DocumentClassified
	ranked     []types.SuppliersRanked
	err        error
}

func (f *fakePublisher) PublishDocumentClassified(_ context.Context, ev types.DocumentClassified) error {
	f.classified = append(f.classified, ev)
	return f.err
}

func (f *fakePublisher) PublishSuppliersRanked(_ context.Context, ev types.SuppliersRanked) error {
	f.ranked = append(f.ranked, ev)
	return f.err
}

type fakeRecall struct {
	candidates []recall.Candidate
	err        error
}

func (f *fakeRecall) Enabled() bool { return true }

func (f *fakeRecall) Recall(context.Context, *types.StructuredRequirement) ([]recall.Candidate, error) {
	return f.candidates, f.err
}

type fakeCache struct {
	data        map[string][]types.StoredMatch
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]types.StoredMatch{}}
}

func (f *fakeCache) Get(_ context.Context, id string) ([]types.StoredMatch, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[id]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, id string, m []types.StoredMatch) error {
	f.data[id] = m
	return nil
}

func (f *fakeCache) Invalidate(_ context.Context, id string) error {
	f.invalidated = append(f.invalidated, id)
	delete(f.data, id)
	return nil
}

type fakeIndexer struct {
	got [][]types.Supplier
	err error
}

func (f *fakeIndexer) IndexSuppliers(_ context.Context, s []types.Supplier) (int, error) {
	f.got = append(f.got, s)
	return len(s), f.err
}

func testSuppliers() []types.Supplier {
	return []types.Supplier{
		{ID: "sup-a", Name: "Alpha Federal", Status: types.SupplierActive},
		{ID: "sup-b", Name: "Bravo Systems", Status: types.SupplierActive},
		{ID: "sup-c", Name: "Charlie IT", Status: types.SupplierActive},
		{ID: "sup-d", Name: "Delta Retired", Status: types.SupplierInactive},
	}
}

var testScores = map[string]float64{"sup-a": 0.9, "sup-b": 0.7, "sup-c": 0.3, "sup-d": 1.0}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var errBoom = errors.New("boom")
