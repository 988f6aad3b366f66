package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadMaster_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadMaster(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := DefaultMaster()
	if !reflect.DeepEqual(cfg, want) {
		t.Errorf("got %+v; want defaults %+v", cfg, want)
	}
}

func TestLoadMaster_OverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.yaml")
	content := `
listen_address4: "127.0.0.1:27950"
accepted_games: ["STEF2"]
challenge_ttl: 2s
liveness_ttl: 1m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadMaster(path)
	if err != nil {
		t.Fatalf("LoadMaster: %v", err)
	}

	if cfg.ListenAddress4 != "127.0.0.1:27950" {
		t.Errorf("ListenAddress4 = %q", cfg.ListenAddress4)
	}
	if len(cfg.AcceptedGames) != 1 || cfg.AcceptedGames[0] != "STEF2" {
		t.Errorf("AcceptedGames = %v", cfg.AcceptedGames)
	}
	if cfg.LivenessTTL != time.Minute {
		t.Errorf("LivenessTTL = %v", cfg.LivenessTTL)
	}
	// ListenAddress6 wasn't present in the file, so the default survives.
	if cfg.ListenAddress6 != DefaultMaster().ListenAddress6 {
		t.Errorf("ListenAddress6 = %q, expected default to survive", cfg.ListenAddress6)
	}
}
