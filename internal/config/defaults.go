package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile is the project-local configuration file.
const DefaultConfigFile = ".umlgen.yml"

// QualityPreset describes the model to use for a given quality tier.
type QualityPreset struct {
	Model string
}

// qualityPresets maps each provider+quality combination to its model choice.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-2.0-flash"},
		QualityNormal: {Model: "gemini-2.5-flash"},
		QualityMax:    {Model: "gemini-2.5-pro"},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini"},
		QualityNormal: {Model: "gpt-4o-mini"},
		QualityMax:    {Model: "gpt-4o"},
	},
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001"},
		QualityNormal: {Model: "claude-haiku-4-5-20251001"},
		QualityMax:    {Model: "claude-sonnet-4-5-20250929"},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3.1"},
		QualityNormal: {Model: "llama3.1"},
		QualityMax:    {Model: "llama3.1:70b"},
	},
}

// DefaultDataDir returns ~/.umlgen, or .umlgen when the home directory is
// unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".umlgen"
	}
	return filepath.Join(home, ".umlgen")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:           ProviderGoogle,
		Model:              "gemini-2.5-flash",
		Quality:            QualityNormal,
		RenderURL:          "https://www.plantuml.com/plantuml",
		Format:             "png",
		DataDir:            DefaultDataDir(),
		Port:               8080,
		GenerationTimeout:  120,
		RateLimitRPM:       15,
		RememberCredential: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Google preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderGoogle][QualityNormal]
}
