package constants

import (
	"testing"
	"time"
)

func TestDefaultValues(t *testing.T) {
	if DefaultPort != "8080" {
		t.Errorf("Expected DefaultPort to be '8080', got '%s'", DefaultPort)
	}

	if DefaultDBPath != "radioqueue.db" {
		t.Errorf("Expected DefaultDBPath to be 'radioqueue.db', got '%s'", DefaultDBPath)
	}

	if DefaultRadioMode != RadioModeEasy {
		t.Errorf("Expected DefaultRadioMode to be %q, got %q", RadioModeEasy, DefaultRadioMode)
	}

	if DefaultSeedPrompt == "" {
		t.Error("DefaultSeedPrompt should not be empty")
	}
}

func TestQueueDefaults(t *testing.T) {
	if DefaultTargetBuffer < MinDeliverableBuffer {
		t.Errorf("Target buffer %d must be at least the deliverable buffer %d", DefaultTargetBuffer, MinDeliverableBuffer)
	}

	if DefaultAutofillCooldown != 10*time.Second {
		t.Errorf("Expected DefaultAutofillCooldown to be 10s, got %v", DefaultAutofillCooldown)
	}

	if RecommendationTimeout > 10*time.Second {
		t.Errorf("RecommendationTimeout must not exceed 10s, got %v", RecommendationTimeout)
	}
}

func TestRadioModes(t *testing.T) {
	modes := []string{RadioModeEasy, RadioModeMedium, RadioModeHard}
	for _, m := range modes {
		if m == "" {
			t.Error("Radio mode constant should not be empty")
		}
	}
}

func TestEncoderPrefix(t *testing.T) {
	if EncoderSchemePrefix != "youtube-dl:" {
		t.Errorf("Expected encoder prefix 'youtube-dl:', got %q", EncoderSchemePrefix)
	}
}
