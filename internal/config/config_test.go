package config

import (
	"testing"

	"github.com/tutorvoice/tutorvoice/pkg/core/types"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.Model != types.DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, types.DefaultModel)
	}
	if !cfg.AutoSpeak {
		t.Error("AutoSpeak should default on")
	}
	if cfg.SpeechRate != 1.0 {
		t.Errorf("SpeechRate = %v", cfg.SpeechRate)
	}
	if cfg.VoiceEnabled() {
		t.Error("voice enabled without a Cartesia key")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("TUTOR_BACKEND_URL", "https://tutor.example.com")
	t.Setenv("TUTOR_MODEL", types.ModelGeminiPro)
	t.Setenv("TUTOR_AUTO_SPEAK", "off")
	t.Setenv("TUTOR_SPEECH_RATE", "1.25")
	t.Setenv("CARTESIA_API_KEY", "ck-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackendURL != "https://tutor.example.com" {
		t.Errorf("BackendURL = %q", cfg.BackendURL)
	}
	if cfg.Model != types.ModelGeminiPro {
		t.Errorf("Model = %q", cfg.Model)
	}
	if cfg.AutoSpeak {
		t.Error("AutoSpeak = true, want false")
	}
	if cfg.SpeechRate != 1.25 {
		t.Errorf("SpeechRate = %v", cfg.SpeechRate)
	}
	if !cfg.VoiceEnabled() {
		t.Error("voice not enabled with a Cartesia key")
	}
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	t.Setenv("TUTOR_MODEL", "gpt-o9")
	if _, err := Load(); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestLoadRejectsBadSpeechRate(t *testing.T) {
	t.Setenv("TUTOR_SPEECH_RATE", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero speech rate")
	}
}

func TestBadBoolFallsBackToDefault(t *testing.T) {
	t.Setenv("TUTOR_AUTO_SPEAK", "maybe")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AutoSpeak {
		t.Error("unparseable bool should keep the default")
	}
}
