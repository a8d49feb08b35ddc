package config

import "testing"

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.Worker.WorkerNum != 8 {
		t.Errorf("expected default worker_num 8, got %d", cfg.Worker.WorkerNum)
	}
	if cfg.Migration.WindowHours != 168 {
		t.Errorf("expected default migration window 168h, got %d", cfg.Migration.WindowHours)
	}
	if cfg.Migration.ValueThresholdPct != 0.70 {
		t.Errorf("expected default migration threshold 0.70, got %v", cfg.Migration.ValueThresholdPct)
	}
	if cfg.Consensus.MinWhalesConsensus != 2 {
		t.Errorf("expected default min whales 2, got %d", cfg.Consensus.MinWhalesConsensus)
	}
	if cfg.Scoring.QualifyScoreFloor != 20 {
		t.Errorf("expected default qualify floor 20, got %v", cfg.Scoring.QualifyScoreFloor)
	}
}

func TestApplyDefaultsDoesNotOverrideExplicit(t *testing.T) {
	cfg := Config{Worker: WorkerConfig{WorkerNum: 16}}
	applyDefaults(&cfg)

	if cfg.Worker.WorkerNum != 16 {
		t.Errorf("expected explicit worker_num to survive, got %d", cfg.Worker.WorkerNum)
	}
}
