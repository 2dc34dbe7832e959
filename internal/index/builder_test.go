package index

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kailas-cloud/crossdex/internal/domain"
)

// writeTree materializes a file tree under a temp root and returns the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

// procurementTree reproduces the naming drift seen across real source sets:
// every batch files its purchase order under a different convention.
func procurementTree(t *testing.T) string {
	t.Helper()
	return writeTree(t, map[string]string{
		"Batch_1_Jan_Feb/SupplyChain/Purchase Order - Binder.txt":        "Purchase Order\nVendor: Acme Excipients",
		"Batch_2_Feb_Mar/SupplyChain/Binder - ASP-25-002.txt":            "Binder procurement\nVendor: Acme Excipients",
		"Batch_3_Mar_Apr/SupplyChain/PO-Binder-ASP-25-003.txt":           "Purchase Order\nVendor: Acme Excipients",
		"Batch_4_Apr_May/SupplyChain/Req. Slip - Binder - ASP-25-004.txt": "Requisition Slip\nVendor: Acme Excipients",
	})
}

func TestBuild_NamingDriftFoldsToOneKind(t *testing.T) {
	root := procurementTree(t)
	b := NewBuilder([]Partition{{Domain: "erp", Root: root}}, nil)

	records, incons, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(incons) != 0 {
		t.Fatalf("expected no inconsistencies, got %v", incons)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %v", len(records), keysOf(records))
	}

	batches := map[string]bool{}
	for _, rec := range records {
		if rec.Key.Kind != domain.KindPurchaseOrder {
			t.Errorf("record %s: kind = %s, want %s", rec.Location, rec.Key.Kind, domain.KindPurchaseOrder)
		}
		if rec.Key.Material != "binder" {
			t.Errorf("record %s: material = %q, want binder", rec.Location, rec.Key.Material)
		}
		batches[rec.Key.Batch] = true
	}
	for _, want := range []string{"BATCH-1", "ASP-25-002", "ASP-25-003", "ASP-25-004"} {
		if !batches[want] {
			t.Errorf("missing batch %s, have %v", want, batches)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	root := procurementTree(t)
	b := NewBuilder([]Partition{{Domain: "erp", Root: root}}, nil)

	first, firstIncons, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	second, secondIncons, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("rebuild of an unchanged source set produced a different mapping")
	}
	if !reflect.DeepEqual(firstIncons, secondIncons) {
		t.Error("rebuild of an unchanged source set produced different inconsistencies")
	}
}

func TestBuild_DuplicateKeyRecordsInconsistency(t *testing.T) {
	root := writeTree(t, map[string]string{
		"COA_Aspirin_ASP-25-001.txt":              "Certificate of Analysis",
		"archive/COA Aspirin ASP-25-001 copy.txt": "Certificate of Analysis",
	})
	b := NewBuilder([]Partition{{Domain: "lims", Root: root}}, nil)

	records, incons, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(incons) != 1 {
		t.Fatalf("expected 1 inconsistency, got %d", len(incons))
	}
	if got := len(incons[0].Locations); got != 2 {
		t.Fatalf("inconsistency should retain both locations, got %d", got)
	}

	var rec domain.DocumentRecord
	for _, r := range records {
		rec = r
	}
	if filepath.Base(rec.Location) != "COA_Aspirin_ASP-25-001.txt" {
		t.Errorf("kept location = %s, want the lexically first file", rec.Location)
	}
	if len(rec.Alternates) != 1 {
		t.Errorf("expected 1 alternate location, got %v", rec.Alternates)
	}
}

func TestBuild_SkipsHiddenFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"COA_Aspirin_ASP-25-001.txt": "Certificate of Analysis",
		".hidden.txt":                "ignore",
		".git/config":                "ignore",
	})
	b := NewBuilder([]Partition{{Domain: "lims", Root: root}}, nil)

	records, _, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(records), keysOf(records))
	}
}

func TestBuild_TitleWordsBecomeKeywords(t *testing.T) {
	root := writeTree(t, map[string]string{
		"Reports/QC Report ASP-25-001.txt": "Dissolution Profile Summary\nResult: Pass",
	})
	b := NewBuilder([]Partition{{Domain: "lims", Root: root}}, nil)

	records, _, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, rec := range records {
		if !contains(rec.Keywords, "dissolution") {
			t.Errorf("title word missing from keywords: %v", rec.Keywords)
		}
	}
}

func TestDeriveKind(t *testing.T) {
	tests := []struct {
		path string
		want domain.Kind
	}{
		{"batch 1 jan feb supplychain purchase order binder txt", domain.KindPurchaseOrder},
		{"batch 4 apr may supplychain req slip binder txt", domain.KindPurchaseOrder},
		{"batch 3 supplychain po binder asp 25 003 txt", domain.KindPurchaseOrder},
		{"batch 2 supplychain binder asp 25 002 txt", domain.KindPurchaseOrder},
		{"lims coa aspirin asp 25 001 txt", domain.KindCertificateOfAnalysis},
		{"manufacturing bmr final disposition txt", domain.KindBatchRecord},
		{"capa documents deviation report dev pkg 2025 046 txt", domain.KindDeviationReport},
		{"sop qc 001 dissolution testing txt", domain.KindSOP},
		{"warehouse temperature log txt", domain.KindGeneric},
	}
	for _, tt := range tests {
		if got := deriveKind(tt.path); got != tt.want {
			t.Errorf("deriveKind(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestDeriveBatch(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"batch 2 feb mar supplychain binder asp 25 002 txt", "ASP-25-002"},
		{"batch 1 jan feb supplychain purchase order binder txt", "BATCH-1"},
		{"batch jan feb batch 1 coa aspirin txt", "BATCH-1"},
		{"sop qc 001 dissolution testing txt", ""},
	}
	for _, tt := range tests {
		if got := deriveBatch(tt.path); got != tt.want {
			t.Errorf("deriveBatch(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func keysOf(records map[string]domain.DocumentRecord) []string {
	var out []string
	for k := range records {
		out = append(out, k)
	}
	return out
}
