package config

import (
	"os"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.PhaseOneTimeout != 6*time.Second {
		t.Errorf("unexpected phase one timeout: %v", cfg.PhaseOneTimeout)
	}
	if cfg.PhaseTwoTimeout != 6*time.Second {
		t.Errorf("unexpected phase two timeout: %v", cfg.PhaseTwoTimeout)
	}
	if cfg.LogDir != "log" {
		t.Errorf("unexpected log dir: %v", cfg.LogDir)
	}
	if cfg.RecoverPoll != 50*time.Millisecond {
		t.Errorf("unexpected recover poll: %v", cfg.RecoverPoll)
	}
}

func TestNewConfigEnvOverride(t *testing.T) {
	os.Setenv("COLLAGE_PHASE_ONE_TIMEOUT", "250ms")
	defer os.Unsetenv("COLLAGE_PHASE_ONE_TIMEOUT")

	cfg := NewConfig()

	if cfg.PhaseOneTimeout != 250*time.Millisecond {
		t.Errorf("env override ignored: %v", cfg.PhaseOneTimeout)
	}
}

func TestParsePeers(t *testing.T) {
	peers := ParsePeers("a=127.0.0.1:5001, b=127.0.0.1:5002,,broken")

	if len(peers) != 2 {
		t.Fatalf("expected 2 peers, got %v", peers)
	}
	if peers["a"] != "127.0.0.1:5001" || peers["b"] != "127.0.0.1:5002" {
		t.Errorf("addresses mangled: %v", peers)
	}
}

func TestParsePeersEmpty(t *testing.T) {
	if peers := ParsePeers(""); len(peers) != 0 {
		t.Errorf("expected no peers, got %v", peers)
	}
}
