package bot

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for dispatcher behavior. The threshold and fallback intent are
// part of the compatibility contract with the original bot sample.
const (
	DefaultWelcomeText     = "Hello and welcome!"
	DefaultCancelKeyword   = "cancel"
	DefaultCancelAck       = "Cancelling."
	DefaultNothingToCancel = "Nothing to cancel."
	DefaultScoreThreshold  = 0.2
	DefaultFallbackIntent  = "None"
)

// Settings holds the host-tunable dispatcher behavior, loadable from YAML.
type Settings struct {
	WelcomeText     string  `yaml:"welcome_text"`
	CancelKeyword   string  `yaml:"cancel_keyword"`
	CancelAck       string  `yaml:"cancel_ack"`
	NothingToCancel string  `yaml:"nothing_to_cancel"`
	ScoreThreshold  float64 `yaml:"score_threshold"`
	FallbackIntent  string  `yaml:"fallback_intent"`
}

// DefaultSettings returns the stock dispatcher behavior.
func DefaultSettings() Settings {
	return Settings{
		WelcomeText:     DefaultWelcomeText,
		CancelKeyword:   DefaultCancelKeyword,
		CancelAck:       DefaultCancelAck,
		NothingToCancel: DefaultNothingToCancel,
		ScoreThreshold:  DefaultScoreThreshold,
		FallbackIntent:  DefaultFallbackIntent,
	}
}

// LoadSettings reads settings from a YAML file, filling omitted fields with
// defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read settings %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %q: %w", path, err)
	}

	if s.FallbackIntent == "" {
		s.FallbackIntent = DefaultFallbackIntent
	}
	if s.CancelKeyword == "" {
		s.CancelKeyword = DefaultCancelKeyword
	}
	return s, nil
}
