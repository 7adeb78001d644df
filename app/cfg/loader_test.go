package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:              "./test.db",
		ProfilesDir:         "./profiles",
		Port:                "8080",
		WorkerCount:         5,
		SchedulerInterval:   60,
		APIAccessKey:        "test-key",
		GeminiModel:         "gemini-2.0-flash",
		RelevanceBatchSize:  10,
		RelevanceBatchDelay: 2,
		UserAgent:           "Test Agent",
		Timezone:            "UTC",
		Debug:               true,
		Version:             "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.ProfilesDir != "./profiles" {
		t.Errorf("Expected profiles dir './profiles', got '%s'", cfg.ProfilesDir)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.RelevanceBatchSize != 10 {
		t.Errorf("Expected relevance batch size 10, got %d", cfg.RelevanceBatchSize)
	}
	if cfg.RelevanceBatchDelay != 2 {
		t.Errorf("Expected relevance batch delay 2, got %d", cfg.RelevanceBatchDelay)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be a valid timezone, got error: %v", err)
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}
