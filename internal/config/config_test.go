package config

import "testing"

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 70000},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_DuplicatePartitionDomain(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Index: IndexConfig{
			Partitions: []PartitionConfig{
				{Domain: "lims", Root: "/data/LIMS"},
				{Domain: "lims", Root: "/data/LIMS2"},
			},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for duplicate partition domain")
	}
}

func TestValidate_PartitionMissingRoot(t *testing.T) {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Index: IndexConfig{
			Partitions: []PartitionConfig{{Domain: "erp"}},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for partition without root")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Coordinator.DomainTimeoutSec != 30 {
		t.Errorf("domain timeout default = %d, want 30", cfg.Coordinator.DomainTimeoutSec)
	}
	if cfg.Registry.DefaultDomain != "dms" {
		t.Errorf("default domain = %q, want dms", cfg.Registry.DefaultDomain)
	}
	if cfg.Index.KeyPrefix != "crossdex:" {
		t.Errorf("key prefix = %q, want crossdex:", cfg.Index.KeyPrefix)
	}
	if cfg.Index.MaxCandidates != 50 {
		t.Errorf("max candidates = %d, want 50", cfg.Index.MaxCandidates)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CROSSDEX_TEST_KEY", "secret")

	in := []byte("api_key: ${CROSSDEX_TEST_KEY}\nmodel: ${CROSSDEX_TEST_MODEL:-gpt-4o-mini}")
	out := string(expandEnvVars(in))

	want := "api_key: secret\nmodel: gpt-4o-mini"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
