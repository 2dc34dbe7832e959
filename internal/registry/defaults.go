package registry

// DefaultCapabilities is the built-in routing table for the three record
// domains: laboratory (lims), manufacturing/procurement (erp) and document
// management (dms). Registration order is the tie-break for equal priority.
func DefaultCapabilities() []Capability {
	return []Capability{
		{
			Domain:   "lims",
			Priority: 1,
			Aliases: []string{
				"coa", "certificate of analysis", "lims", "oos", "oot",
				"hplc", "loss on drying", "lod",
			},
			Keywords: []string{
				"assay", "impurity", "stability", "lab", "laboratory",
				"qc", "test results", "test result", "analytical", "method validation",
				"qualification", "purity", "dissolution", "specification",
			},
		},
		{
			Domain:   "erp",
			Priority: 1,
			Aliases: []string{
				"po", "purchase order", "purchase orders", "bmr", "mbr",
				"grn", "erp", "requisition",
			},
			Keywords: []string{
				"manufacturing", "yield", "equipment", "calibration",
				"maintenance", "supply chain", "vendor", "supplier",
				"raw material", "procurement", "batch record", "production",
				"packaging", "compression",
			},
		},
		{
			Domain:   "dms",
			Priority: 1,
			Aliases: []string{
				"capa", "sds", "sop", "dms", "safety data sheet",
				"change control", "standard operating procedure",
			},
			Keywords: []string{
				"deviation", "audit", "regulatory", "training", "qms",
				"management review", "dossier", "submission", "document",
				"quality assurance",
			},
		},
	}
}
