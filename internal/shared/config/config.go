package config

const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// LoggingConfig contains logging-related configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
