package healthcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"

	"github.com/l3aro/go-java-flow/internal/config"
)

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(context.Background(), nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckDefaultConfig(t *testing.T) {
	result, err := Check(context.Background(), config.DefaultConfig(), "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	if result.Parser.Status != StatusReady {
		t.Errorf("Parser.Status = %q (%s), want ready", result.Parser.Status, result.Parser.Error)
	}
	if result.Flow.Status != StatusReady {
		t.Errorf("Flow.Status = %q (%s), want ready", result.Flow.Status, result.Flow.Error)
	}
	if result.Flow.Detail != "design-time branches are followed" {
		t.Errorf("Flow.Detail = %q", result.Flow.Detail)
	}
	if result.LogFile.Status != StatusSkipped {
		t.Errorf("LogFile.Status = %q, want skipped", result.LogFile.Status)
	}
	if result.Failed() {
		t.Error("Failed() = true, want false")
	}
}

func TestCheckWithoutPredicates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DesignTimePredicates = nil

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Flow.Status != StatusReady || result.Flow.Detail != "design-time branches are skipped" {
		t.Errorf("Flow = %+v", result.Flow)
	}
}

func TestCheckCustomPredicate(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DesignTimePredicates = []string{"isMockup"}

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Flow.Status != StatusReady {
		t.Errorf("Flow = %+v", result.Flow)
	}
}

func TestCheckLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "logs", "jflow.log")

	result, err := Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.LogFile.Status != StatusReady {
		t.Errorf("LogFile = %+v, want ready", result.LogFile)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "logs"))
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg.LogFile = filepath.Join(blocker, "jflow.log")
	result, err = Check(context.Background(), cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.LogFile.Status != StatusError || !result.Failed() {
		t.Errorf("LogFile = %+v, want error", result.LogFile)
	}
}

func TestScopeFromPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)

	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{filepath.Join(home, ".jflow", "config.yaml"), "global"},
		{filepath.Join(".jflow", "config.yaml"), "project"},
		{filepath.Join(home, ".jflowx", "config.yaml"), "project"},
	}
	for _, tt := range tests {
		if got := scopeFromPath(tt.path); got != tt.want {
			t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
