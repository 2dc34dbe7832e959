package index

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kailas-cloud/crossdex/internal/domain"
	"github.com/kailas-cloud/crossdex/internal/registry"
)

// kindRule maps one naming convention onto a logical document kind. Rules
// are evaluated in order against the normalized file path; the first match
// wins. Several rules may emit the same kind, because different data batches
// name the same logical document differently.
type kindRule struct {
	pattern *regexp.Regexp
	kind    domain.Kind
}

// kindRules covers the naming conventions observed across batches:
// "Purchase Order", "Req. Slip", "PO-...", bare "<Material> - <batch>" files
// under a procurement folder, and so on. Patterns run against normalized
// paths (lowercase, punctuation collapsed to single spaces).
var kindRules = []kindRule{
	{regexp.MustCompile(`certificate of analysis|\bcoa\b`), domain.KindCertificateOfAnalysis},
	{regexp.MustCompile(`purchase order|req slip|requisition|\bpo\b`), domain.KindPurchaseOrder},
	{regexp.MustCompile(`goods receipt|\bgrn\b`), domain.KindGoodsReceipt},
	{regexp.MustCompile(`\bbmr\b|batch manufacturing record|batch record|final disposition|yield reconciliation`), domain.KindBatchRecord},
	{regexp.MustCompile(`deviation|\bcapa\b`), domain.KindDeviationReport},
	{regexp.MustCompile(`training`), domain.KindTrainingRecord},
	{regexp.MustCompile(`stability`), domain.KindStabilityReport},
	{regexp.MustCompile(`safety data sheet|\bsds\b`), domain.KindSafetyDataSheet},
	{regexp.MustCompile(`\bsop\b|standard operating`), domain.KindSOP},
	{regexp.MustCompile(`specification|spec master`), domain.KindSpecification},
	// A material-named file under a procurement folder is a procurement
	// document even without "PO" in its name ("Binder - ASP-25-002.docx").
	{regexp.MustCompile(`(supplychain|supply chain|procurement).*(\bapi\b|binder|diluent|disintegrant|lubricant)`), domain.KindPurchaseOrder},
}

// kindAliases are the colloquial synonyms attached to every record of a kind,
// so a lookup for "po" finds documents filed as "Requisition Slip".
var kindAliases = map[domain.Kind][]string{
	domain.KindCertificateOfAnalysis: {"coa", "certificate of analysis", "analysis certificate"},
	domain.KindPurchaseOrder:         {"po", "purchase order", "purchase orders", "requisition", "procurement document"},
	domain.KindBatchRecord:           {"bmr", "mbr", "batch record", "batch manufacturing record", "manufacturing record"},
	domain.KindDeviationReport:       {"deviation", "capa", "non-conformance"},
	domain.KindTrainingRecord:        {"training record", "training"},
	domain.KindSpecification:         {"specification", "spec", "material specification"},
	domain.KindStabilityReport:       {"stability", "stability study"},
	domain.KindSOP:                   {"sop", "standard operating procedure", "procedure"},
	domain.KindGoodsReceipt:          {"grn", "goods receipt", "goods receipt note"},
	domain.KindSafetyDataSheet:       {"sds", "safety data sheet", "msds"},
}

// materialLexicon is the known material vocabulary. Multi-word names first so
// "magnesium stearate" wins over a bare "magnesium" token.
var materialLexicon = []string{
	"magnesium stearate", "salicylic acid", "aspirin", "ibuprofen",
	"paracetamol", "lactose", "api", "binder", "diluent", "disintegrant",
	"lubricant", "hpmc", "mcc", "cornstarch", "talc",
}

// batchIDPattern matches explicit batch identifiers such as "ASP-25-002"
// (normalized, so separators are spaces).
var batchIDPattern = regexp.MustCompile(`\b([a-z]{2,4}) (\d{2}) (\d{3})\b`)

// batchFolderPattern matches positional batch folders such as "Batch_3_Mar_Apr"
// or "Batch_(Jan___Feb_Batch_1)".
var batchFolderPattern = regexp.MustCompile(`\bbatch[^0-9]*(\d+)\b`)

// deriveKind resolves the document kind from the normalized path, falling
// back to the generic kind so no scanned file is ever dropped.
func deriveKind(normPath string) domain.Kind {
	for _, r := range kindRules {
		if r.pattern.MatchString(normPath) {
			return r.kind
		}
	}
	return domain.KindGeneric
}

// deriveMaterial picks the first lexicon material present in the path.
func deriveMaterial(normPath string) string {
	for _, m := range materialLexicon {
		if strings.Contains(" "+normPath+" ", " "+m+" ") {
			return m
		}
	}
	return ""
}

// deriveBatch extracts a batch id. Explicit ids ("ASP-25-002") win over
// positional folder names ("Batch_2_Feb_Mar" -> "BATCH-2") so the same
// logical batch folds onto one identifier regardless of convention.
func deriveBatch(normPath string) string {
	if m := batchIDPattern.FindStringSubmatch(normPath); m != nil {
		return strings.ToUpper(m[1] + "-" + m[2] + "-" + m[3])
	}
	if m := batchFolderPattern.FindStringSubmatch(normPath); m != nil {
		return "BATCH-" + m[1]
	}
	return ""
}

// fileKeywords derives the keyword set from the relative path: material,
// kind words, batch tokens and the filename's own words. Title words from
// the document heading are appended by the builder.
func fileKeywords(relPath, material, batch string, kind domain.Kind) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(term string) {
		term = strings.TrimSpace(term)
		if len(term) < 2 {
			return
		}
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}

	if material != "" {
		add(material)
	}
	if batch != "" {
		add(registry.Normalize(batch))
	}
	for _, w := range strings.Fields(strings.ReplaceAll(string(kind), "_", " ")) {
		add(w)
	}
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	for _, w := range strings.Fields(registry.Normalize(base)) {
		add(w)
	}
	return out
}
