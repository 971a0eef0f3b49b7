package config

import "github.com/linanwx/cardchat/provider"

const (
	defaultMaxOutputTokens = 50
	defaultMaxPairs        = 5
	defaultRequestTimeout  = 30

	defaultWidth      = 240
	defaultHeight     = 135
	defaultGlyphWidth = 8
	defaultLineHeight = 10

	defaultNotifySeconds = 3
	defaultNotifyChars   = 72
	defaultBodyPrefix    = 50

	defaultProbeAddr     = "generativelanguage.googleapis.com:443"
	defaultRetries       = 20
	defaultBackoffMillis = 500

	// DefaultPersona is prepended to every request as the first user turn.
	DefaultPersona = "You are a helpful and friendly assistant designed for children aged 10-12, " +
		"running on a very small handheld device. Use simple language and explain things clearly. " +
		"Answer in one short sentence."
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Gemini: GeminiConfig{
			APIBase:               provider.DefaultAPIBase,
			Model:                 provider.DefaultModel,
			MaxOutputTokens:       defaultMaxOutputTokens,
			MaxPairs:              defaultMaxPairs,
			Persona:               DefaultPersona,
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Display: DisplayConfig{
			Width:      defaultWidth,
			Height:     defaultHeight,
			GlyphWidth: defaultGlyphWidth,
			LineHeight: defaultLineHeight,
		},
		Notify: NotifyConfig{
			DurationSeconds: defaultNotifySeconds,
			MaxChars:        defaultNotifyChars,
			BodyPrefix:      defaultBodyPrefix,
		},
		Network: NetworkConfig{
			ProbeAddr:     defaultProbeAddr,
			Retries:       defaultRetries,
			BackoffMillis: defaultBackoffMillis,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		File:    "logs/cardchat.log",
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Gemini.APIBase == "" {
		c.Gemini.APIBase = def.Gemini.APIBase
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = def.Gemini.Model
	}
	if c.Gemini.MaxOutputTokens <= 0 {
		c.Gemini.MaxOutputTokens = def.Gemini.MaxOutputTokens
	}
	if c.Gemini.MaxPairs <= 0 {
		c.Gemini.MaxPairs = def.Gemini.MaxPairs
	}
	if c.Gemini.Persona == "" {
		c.Gemini.Persona = def.Gemini.Persona
	}
	if c.Gemini.RequestTimeoutSeconds <= 0 {
		c.Gemini.RequestTimeoutSeconds = def.Gemini.RequestTimeoutSeconds
	}

	if c.Display.Width <= 0 {
		c.Display.Width = def.Display.Width
	}
	if c.Display.Height <= 0 {
		c.Display.Height = def.Display.Height
	}
	if c.Display.GlyphWidth <= 0 {
		c.Display.GlyphWidth = def.Display.GlyphWidth
	}
	if c.Display.LineHeight <= 0 {
		c.Display.LineHeight = def.Display.LineHeight
	}

	if c.Notify.DurationSeconds <= 0 {
		c.Notify.DurationSeconds = def.Notify.DurationSeconds
	}
	if c.Notify.MaxChars <= 0 {
		c.Notify.MaxChars = def.Notify.MaxChars
	}
	if c.Notify.BodyPrefix <= 0 {
		c.Notify.BodyPrefix = def.Notify.BodyPrefix
	}

	if c.Network.ProbeAddr == "" {
		c.Network.ProbeAddr = def.Network.ProbeAddr
	}
	if c.Network.Retries <= 0 {
		c.Network.Retries = def.Network.Retries
	}
	if c.Network.BackoffMillis <= 0 {
		c.Network.BackoffMillis = def.Network.BackoffMillis
	}

	logDef := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = logDef
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = logDef.Level
	}
	if c.Logging.Enabled == nil {
		enabled := true
		c.Logging.Enabled = &enabled
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.File = logDef.File
	}
}
