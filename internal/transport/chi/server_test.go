package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/index"
	"github.com/kailas-cloud/crossdex/internal/registry"
	"github.com/kailas-cloud/crossdex/internal/renderer"
	healthuc "github.com/kailas-cloud/crossdex/internal/usecase/health"
	indexeruc "github.com/kailas-cloud/crossdex/internal/usecase/indexer"
	reportuc "github.com/kailas-cloud/crossdex/internal/usecase/report"
	requestuc "github.com/kailas-cloud/crossdex/internal/usecase/request"
)

type stubClassifier struct {
	domains []string
}

func (c *stubClassifier) Classify(_ context.Context, _ string) (registry.Classification, error) {
	return registry.Classification{Domains: c.domains}, nil
}

func (c *stubClassifier) SubQuery(_, text string, _ []string) string { return text }

type stubWorker struct {
	err error
}

func (w *stubWorker) Execute(_ context.Context, domainID, _ string) (*domain.DomainResult, error) {
	if w.err != nil {
		return nil, w.err
	}
	return &domain.DomainResult{
		Domain:    domainID,
		Status:    domain.ResultSuccess,
		Documents: []string{"erp/doc.txt"},
		Fields: []domain.Field{{
			Name:      "Status",
			Value:     "Released",
			Citations: []domain.Citation{{File: "erp/doc.txt", Domain: domainID}},
		}},
	}, nil
}

type stubBuilder struct {
	records map[string]domain.DocumentRecord
}

func (b *stubBuilder) Build(_ context.Context) (map[string]domain.DocumentRecord, []domain.Inconsistency, error) {
	return b.records, nil, nil
}

// memStates is a map-backed request store.
type memStates struct {
	mu   sync.Mutex
	reqs map[string]*domain.Request
}

func newMemStates() *memStates {
	return &memStates{reqs: map[string]*domain.Request{}}
}

func (m *memStates) Save(_ context.Context, req *domain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *req
	clone.Tasks = append([]domain.DomainTask(nil), req.Tasks...)
	m.reqs[req.ID] = &clone
	return nil
}

func (m *memStates) Get(_ context.Context, id string) (*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (m *memStates) List(_ context.Context) ([]*domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Request, 0, len(m.reqs))
	for _, req := range m.reqs {
		out = append(out, req)
	}
	return out, nil
}

func testServer(t *testing.T, worker requestuc.Worker) (*Server, *chirouter.Mux) {
	t.Helper()

	requests := requestuc.New(
		&stubClassifier{domains: []string{"erp"}},
		worker,
		reportuc.New(),
		time.Second,
	).WithStateStore(newMemStates())

	idx := index.New()
	builder := &stubBuilder{records: map[string]domain.DocumentRecord{
		"aspirin|certificate_of_analysis|ASP-25-001": {
			Key:      domain.CanonicalKey{Material: "aspirin", Kind: domain.KindCertificateOfAnalysis, Batch: "ASP-25-001"},
			Location: "lims/coa.txt",
			Domain:   "lims",
		},
	}}
	indexer := indexeruc.New(builder, idx, nil)

	srv := NewServer(
		requests,
		indexer,
		healthuc.New(nil, idx),
		renderer.NewMarkdown(),
		idx,
		zap.NewNop(),
	)

	r := chirouter.NewRouter()
	srv.Routes(r)
	return srv, r
}

func submit(t *testing.T, r http.Handler, query string) *domain.Request {
	t.Helper()

	body := strings.NewReader(`{"query": "` + query + `"}`)
	req := httptest.NewRequest("POST", "/v1/requests", body)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("submit: got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var out domain.Request
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return &out
}

func TestSubmitRequest_RunsToDone(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	req := submit(t, r, "status of aspirin batch ASP-25-001")

	if req.State != domain.StateDone {
		t.Errorf("state: got %s, want %s", req.State, domain.StateDone)
	}
	if len(req.Tasks) != 1 || req.Tasks[0].Domain != "erp" {
		t.Fatalf("tasks: got %+v", req.Tasks)
	}
	if req.Tasks[0].State != domain.TaskCompleted {
		t.Errorf("task state: got %s, want %s", req.Tasks[0].State, domain.TaskCompleted)
	}
}

func TestSubmitRequest_EmptyQuery_400(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	req := httptest.NewRequest("POST", "/v1/requests", strings.NewReader(`{"query": ""}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestSubmitRequest_MalformedBody_400(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	req := httptest.NewRequest("POST", "/v1/requests", strings.NewReader(`{"query`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSubmitRequest_IndexNotReady_503(t *testing.T) {
	_, r := testServer(t, &stubWorker{err: domain.ErrIndexNotReady})

	req := httptest.NewRequest("POST", "/v1/requests",
		strings.NewReader(`{"query": "status of aspirin"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want %d: %s", rr.Code, http.StatusServiceUnavailable, rr.Body.String())
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeIndexNotReady {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeIndexNotReady)
	}
}

func TestSubmitRequest_UnknownDomain_400(t *testing.T) {
	_, r := testServer(t, &stubWorker{err: domain.ErrUnknownDomain})

	req := httptest.NewRequest("POST", "/v1/requests",
		strings.NewReader(`{"query": "status of aspirin"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeBadRequest {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeBadRequest)
	}
}

func TestGetRequest_Missing_404(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	req := httptest.NewRequest("GET", "/v1/requests/no-such-id", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != CodeRequestNotFound {
		t.Errorf("error code: got %s, want %s", errResp.Code, CodeRequestNotFound)
	}
}

func TestGetRequest_Found(t *testing.T) {
	_, r := testServer(t, &stubWorker{})
	created := submit(t, r, "status of aspirin")

	req := httptest.NewRequest("GET", "/v1/requests/"+created.ID, http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var out domain.Request
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ID != created.ID {
		t.Errorf("id: got %s, want %s", out.ID, created.ID)
	}
}

func TestListRequests(t *testing.T) {
	_, r := testServer(t, &stubWorker{})
	submit(t, r, "status of aspirin")

	req := httptest.NewRequest("GET", "/v1/requests", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var out []*domain.Request
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("requests: got %d, want 1", len(out))
	}
}

func TestGetReport_JSON(t *testing.T) {
	_, r := testServer(t, &stubWorker{})
	created := submit(t, r, "status of aspirin")

	req := httptest.NewRequest("GET", "/v1/requests/"+created.ID+"/report", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var res domain.AggregatedResult
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RequestID != created.ID {
		t.Errorf("request id: got %s, want %s", res.RequestID, created.ID)
	}
	if len(res.Sections) != 1 || res.Sections[0].Domain != "erp" {
		t.Fatalf("sections: got %+v", res.Sections)
	}
}

func TestGetReport_Markdown(t *testing.T) {
	_, r := testServer(t, &stubWorker{})
	created := submit(t, r, "status of aspirin")

	req := httptest.NewRequest("GET",
		"/v1/requests/"+created.ID+"/report?format=markdown", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type: got %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "# Query Report") {
		t.Errorf("markdown body missing header: %s", rr.Body.String())
	}
}

func TestRebuildIndex(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	req := httptest.NewRequest("POST", "/v1/index/rebuild", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var stats indexeruc.Stats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Records != 1 {
		t.Errorf("records: got %d, want 1", stats.Records)
	}
}

func TestListBatchesAndMaterials(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/index/rebuild", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("rebuild: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/index/batches", http.NoBody))
	var batches map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&batches); err != nil {
		t.Fatalf("decode batches: %v", err)
	}
	if len(batches["batches"]) != 1 || batches["batches"][0] != "ASP-25-001" {
		t.Errorf("batches: got %v", batches)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/v1/index/materials", http.NoBody))
	var materials map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&materials); err != nil {
		t.Fatalf("decode materials: %v", err)
	}
	if len(materials["materials"]) != 1 || materials["materials"][0] != "aspirin" {
		t.Errorf("materials: got %v", materials)
	}
}

func TestHealth_DegradedBeforeRebuild(t *testing.T) {
	_, r := testServer(t, &stubWorker{})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", http.NoBody))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("before rebuild: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("POST", "/v1/index/rebuild", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Fatalf("rebuild: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", http.NoBody))
	if rr.Code != http.StatusOK {
		t.Errorf("after rebuild: got %d, want %d", rr.Code, http.StatusOK)
	}
}
