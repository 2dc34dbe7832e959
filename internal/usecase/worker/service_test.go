package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// --- Mocks ---

type mockIndex struct {
	candidates []domain.Candidate
	ready      bool
	lastQuery  string
	lastScope  string
	lastLimit  int
}

func (m *mockIndex) Lookup(query, scope string, limit int) []domain.Candidate {
	m.lastQuery = query
	m.lastScope = scope
	m.lastLimit = limit
	return m.candidates
}

func (m *mockIndex) Ready() bool { return m.ready }

type mockExtractor struct {
	fields map[string][]domain.Field
	errs   map[string]error
	calls  int
}

func (m *mockExtractor) Extract(_ context.Context, rec domain.DocumentRecord) ([]domain.Field, error) {
	m.calls++
	if err := m.errs[rec.Location]; err != nil {
		return nil, err
	}
	return m.fields[rec.Location], nil
}

func candidate(location string) domain.Candidate {
	return domain.Candidate{Record: domain.DocumentRecord{
		Key:      domain.NormalKey("aspirin", domain.KindCertificateOfAnalysis, "ASP-25-001"),
		Location: location,
		Domain:   "lims",
	}}
}

func TestExecute_Success(t *testing.T) {
	idx := &mockIndex{ready: true, candidates: []domain.Candidate{
		candidate("/lims/coa1.txt"),
		candidate("/lims/coa2.txt"),
	}}
	ext := &mockExtractor{fields: map[string][]domain.Field{
		"/lims/coa1.txt": {{Name: "Assay", Value: "99.2%"}},
		"/lims/coa2.txt": {{Name: "Assay", Value: "99.5%"}},
	}}
	svc := New(idx, ext, 50)

	res, err := svc.Execute(context.Background(), "lims", "coa for aspirin")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != domain.ResultSuccess {
		t.Errorf("status = %s, want success", res.Status)
	}
	if len(res.Documents) != 2 || len(res.Fields) != 2 {
		t.Errorf("documents = %d, fields = %d", len(res.Documents), len(res.Fields))
	}
	if idx.lastScope != "lims" || idx.lastLimit != 50 {
		t.Errorf("lookup scoped to %q limit %d", idx.lastScope, idx.lastLimit)
	}
}

func TestExecute_NoMatchingRecords(t *testing.T) {
	idx := &mockIndex{ready: true}
	ext := &mockExtractor{}
	svc := New(idx, ext, 50)

	res, err := svc.Execute(context.Background(), "lims", "coa for ibuprofen")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != domain.ResultNoData {
		t.Errorf("status = %s, want no_data", res.Status)
	}
	if ext.calls != 0 {
		t.Errorf("extractor should not run without candidates, got %d calls", ext.calls)
	}
}

func TestExecute_BadDocumentDoesNotCascade(t *testing.T) {
	idx := &mockIndex{ready: true, candidates: []domain.Candidate{
		candidate("/lims/corrupt.txt"),
		candidate("/lims/good.txt"),
	}}
	ext := &mockExtractor{
		fields: map[string][]domain.Field{
			"/lims/good.txt": {{Name: "Assay", Value: "99.2%"}},
		},
		errs: map[string]error{
			"/lims/corrupt.txt": domain.ErrCorruptDocument,
		},
	}
	svc := New(idx, ext, 50)

	res, err := svc.Execute(context.Background(), "lims", "coa for aspirin")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != domain.ResultSuccess {
		t.Errorf("status = %s, want success despite one bad document", res.Status)
	}
	if len(res.Notes) != 1 || res.Notes[0].Location != "/lims/corrupt.txt" {
		t.Errorf("notes = %+v", res.Notes)
	}
	if len(res.Documents) != 1 {
		t.Errorf("documents = %v", res.Documents)
	}
}

func TestExecute_AllCandidatesFail(t *testing.T) {
	idx := &mockIndex{ready: true, candidates: []domain.Candidate{
		candidate("/lims/corrupt.txt"),
	}}
	ext := &mockExtractor{errs: map[string]error{
		"/lims/corrupt.txt": domain.ErrCorruptDocument,
	}}
	svc := New(idx, ext, 50)

	res, err := svc.Execute(context.Background(), "lims", "coa for aspirin")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Status != domain.ResultError {
		t.Errorf("status = %s, want error when every candidate fails", res.Status)
	}
	if len(res.Notes) != 1 {
		t.Errorf("notes = %+v", res.Notes)
	}
}

type mockRegistry struct {
	known map[string]bool
}

func (m *mockRegistry) Known(domain string) bool { return m.known[domain] }

func TestExecute_UnknownDomainRejected(t *testing.T) {
	idx := &mockIndex{ready: true, candidates: []domain.Candidate{
		candidate("/lims/coa1.txt"),
	}}
	svc := New(idx, &mockExtractor{}, 50).
		WithRegistry(&mockRegistry{known: map[string]bool{"lims": true}})

	if _, err := svc.Execute(context.Background(), "lims", "coa for aspirin"); err != nil {
		t.Fatalf("Execute known domain: %v", err)
	}

	_, err := svc.Execute(context.Background(), "warehouse", "coa for aspirin")
	if !errors.Is(err, domain.ErrUnknownDomain) {
		t.Errorf("error = %v, want ErrUnknownDomain", err)
	}
	if idx.lastScope == "warehouse" {
		t.Error("unknown domain must never reach the index")
	}
}

func TestExecute_IndexNotReady(t *testing.T) {
	svc := New(&mockIndex{}, &mockExtractor{}, 50)

	_, err := svc.Execute(context.Background(), "lims", "anything")
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("error = %v, want ErrIndexNotReady", err)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	idx := &mockIndex{ready: true, candidates: []domain.Candidate{
		candidate("/lims/coa1.txt"),
	}}
	svc := New(idx, &mockExtractor{}, 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Execute(ctx, "lims", "coa for aspirin")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
