package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kailas-cloud/crossdex/internal/db"
	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/index"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	jsonSetFn func(ctx context.Context, key, path string, data []byte) error
	jsonGetFn func(ctx context.Context, key string, paths ...string) ([]byte, error)
}

func (m *mockStore) JSONSet(ctx context.Context, key, path string, data []byte) error {
	if m.jsonSetFn != nil {
		return m.jsonSetFn(ctx, key, path, data)
	}
	return nil
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	if m.jsonGetFn != nil {
		return m.jsonGetFn(ctx, key, paths...)
	}
	return nil, db.ErrKeyNotFound
}

func sampleSnapshot() *index.Snapshot {
	key := domain.NormalKey("aspirin", domain.KindCertificateOfAnalysis, "ASP-25-001")
	return &index.Snapshot{
		Version: index.SnapshotVersion,
		BuiltAt: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Records: []domain.DocumentRecord{
			{Key: key, Location: "/lims/coa.txt", Domain: "lims", Aliases: []string{"coa"}},
		},
	}
}

func TestRepo_SaveLoadRoundTrip(t *testing.T) {
	var stored []byte
	s := &mockStore{
		jsonSetFn: func(_ context.Context, key, path string, data []byte) error {
			if key != "crossdex:index:snapshot" || path != "$" {
				t.Errorf("JSONSet(%s, %s)", key, path)
			}
			stored = data
			return nil
		},
		jsonGetFn: func(_ context.Context, _ string, _ ...string) ([]byte, error) {
			if stored == nil {
				return nil, db.ErrKeyNotFound
			}
			// JSON.GET with "$" wraps the document in a one-element array.
			return append(append([]byte("["), stored...), ']'), nil
		},
	}
	repo := New(s, "crossdex:")

	if err := repo.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].Location != "/lims/coa.txt" {
		t.Errorf("round trip lost records: %+v", got.Records)
	}
}

func TestRepo_LoadMissingMapsToNotReady(t *testing.T) {
	repo := New(&mockStore{}, "crossdex:")

	_, err := repo.Load(context.Background())
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("error = %v, want ErrIndexNotReady", err)
	}
}

func TestFile_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	f := NewFile(path)

	if err := f.Save(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := f.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Records) != 1 || got.Records[0].Domain != "lims" {
		t.Errorf("round trip lost records: %+v", got.Records)
	}
}

func TestFile_LoadMissingMapsToNotReady(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "absent.json"))

	_, err := f.Load(context.Background())
	if !errors.Is(err, domain.ErrIndexNotReady) {
		t.Errorf("error = %v, want ErrIndexNotReady", err)
	}
}
