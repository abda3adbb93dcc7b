package scores

import "testing"

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry()
	if err != nil {
		t.Fatal(err)
	}

	if len(reg.Sources) < 2 {
		t.Fatalf("expected both source strategies in the registry, got %d", len(reg.Sources))
	}

	cfg, err := reg.DefaultSource()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ID != "prepscores" {
		t.Errorf("default source = %q", cfg.ID)
	}
	if cfg.Strategy != StrategyHTML {
		t.Errorf("default strategy = %q", cfg.Strategy)
	}
}

func TestLoadRegistryEnvOverride(t *testing.T) {
	t.Setenv("CRICFEED_SOURCE", "cricapi")

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := reg.DefaultSource()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ID != "cricapi" || cfg.Strategy != StrategyAPI {
		t.Errorf("override gave %q/%q", cfg.ID, cfg.Strategy)
	}
}

func TestLoadRegistryUnknownOverride(t *testing.T) {
	t.Setenv("CRICFEED_SOURCE", "does-not-exist")

	reg, err := LoadRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.DefaultSource(); err == nil {
		t.Fatal("expected an error for an unknown source id")
	}
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		cfg      SourceConfig
		wantErr  bool
	}{
		{"HTML strategy", SourceConfig{ID: "a", Strategy: StrategyHTML, BaseURL: "https://x.example"}, false},
		{"API strategy", SourceConfig{ID: "b", Strategy: StrategyAPI, BaseURL: "https://x.example"}, false},
		{"Colly fetcher variant", SourceConfig{ID: "c", Strategy: StrategyHTML, BaseURL: "https://x.example", Fetch: FetchConfig{UseColly: true}}, false},
		{"Unknown strategy", SourceConfig{ID: "d", Strategy: "rss"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Build(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if src.ID() != tt.cfg.ID {
				t.Errorf("ID() = %q", src.ID())
			}
		})
	}
}
