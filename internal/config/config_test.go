package config

import (
	"testing"
)

func TestParseConfig(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "")

	data := []byte(`
environment:
  base_url: "http://localhost:8080"
  auth:
    type: "bearer"
    token: "file-token"
fuzz:
  cases_per_endpoint: 25
  max_workers: 2
reporting:
  format:
    - json
    - html
  detailed: true
`)

	cfg, err := parseConfig(data)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}

	if cfg.Environment.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.Environment.BaseURL)
	}
	if cfg.Environment.Auth.Token != "file-token" {
		t.Errorf("Auth.Token = %q", cfg.Environment.Auth.Token)
	}
	if cfg.Fuzz.CasesPerEndpoint != 25 {
		t.Errorf("CasesPerEndpoint = %d, want 25", cfg.Fuzz.CasesPerEndpoint)
	}
	if cfg.Fuzz.MaxWorkers != 2 {
		t.Errorf("MaxWorkers = %d, want 2", cfg.Fuzz.MaxWorkers)
	}
	if !cfg.Reporting.Detailed {
		t.Errorf("Detailed should be true")
	}
	if len(cfg.Reporting.Format) != 2 || cfg.Reporting.Format[1] != "html" {
		t.Errorf("Format = %v", cfg.Reporting.Format)
	}

	// Unspecified values pick up defaults.
	if cfg.Fuzz.Timeout != 30 {
		t.Errorf("Timeout = %d, want default 30", cfg.Fuzz.Timeout)
	}
	if cfg.Fuzz.Retry.Attempts != 3 || cfg.Fuzz.Retry.Delay != 1 {
		t.Errorf("Retry = %+v, want defaults 3/1", cfg.Fuzz.Retry)
	}
	if cfg.Reporting.OutputDir != "reports" {
		t.Errorf("OutputDir = %q, want default", cfg.Reporting.OutputDir)
	}
}

func TestParseConfigEnvOverride(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "env-token")

	cfg, err := parseConfig([]byte(`
environment:
  auth:
    token: "file-token"
`))
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.Environment.Auth.Token != "env-token" {
		t.Errorf("Auth.Token = %q, want env override", cfg.Environment.Auth.Token)
	}
}

func TestParseConfigInvalidYAML(t *testing.T) {
	if _, err := parseConfig([]byte("fuzz: [not a mapping")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name     string
		authType string
		token    string
		want     string
	}{
		{"no token", "bearer", "", ""},
		{"bearer", "bearer", "abc", "Bearer abc"},
		{"default scheme", "", "abc", "Bearer abc"},
		{"basic", "basic", "dXNlcjpwdw==", "Basic dXNlcjpwdw=="},
		{"custom scheme", "ApiKey", "abc", "ApiKey abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Environment.Auth.Type = tt.authType
			cfg.Environment.Auth.Token = tt.token

			headers := cfg.AuthHeaders()
			if tt.want == "" {
				if headers != nil {
					t.Fatalf("AuthHeaders() = %v, want nil", headers)
				}
				return
			}
			if headers["Authorization"] != tt.want {
				t.Errorf("Authorization = %q, want %q", headers["Authorization"], tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Fuzz.CasesPerEndpoint != 10 || cfg.Fuzz.MaxWorkers != 5 {
		t.Errorf("Fuzz defaults = %+v", cfg.Fuzz)
	}
	if len(cfg.Reporting.Format) != 1 || cfg.Reporting.Format[0] != "json" {
		t.Errorf("Format defaults = %v", cfg.Reporting.Format)
	}
}
