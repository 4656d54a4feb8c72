package config

// QualityTier trades generation speed and cost against diagram quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle    ProviderType = "google"
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level umlgen configuration, corresponding to .umlgen.yml.
type Config struct {
	Provider           ProviderType `yaml:"provider" koanf:"provider"`
	Model              string       `yaml:"model" koanf:"model"`
	Quality            QualityTier  `yaml:"quality" koanf:"quality"`
	RenderURL          string       `yaml:"render_url" koanf:"render_url"`
	Format             string       `yaml:"format" koanf:"format"`
	DataDir            string       `yaml:"data_dir" koanf:"data_dir"`
	Port               int          `yaml:"port" koanf:"port"`
	GenerationTimeout  int          `yaml:"generation_timeout" koanf:"generation_timeout"`
	RateLimitRPM       int          `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	RememberCredential bool         `yaml:"remember_credential" koanf:"remember_credential"`
	Log                LogConfig    `yaml:"log" koanf:"log"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}
