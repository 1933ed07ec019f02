package config

const (
	defaultConfigDir         = "~/.config/curator"
	defaultDataDir           = "~/.local/share/curator"
	defaultCaseStyle         = "snake"
	defaultQuiescenceMS      = 2000
	defaultEventBuffer       = 64
	defaultMaxContentBytes   = 32 * 1024
	defaultClassifierTimeout = 120
	defaultClassifierBaseURL = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierModel   = "google/gemini-3-flash-preview"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ConfigDir: defaultConfigDir,
			DataDir:   defaultDataDir,
		},
		Organize: Organize{
			DefaultCaseStyle: defaultCaseStyle,
		},
		Watch: Watch{
			QuiescenceMS: defaultQuiescenceMS,
			EventBuffer:  defaultEventBuffer,
		},
		Classifier: Classifier{
			BaseURL:         defaultClassifierBaseURL,
			Model:           defaultClassifierModel,
			TimeoutSeconds:  defaultClassifierTimeout,
			MaxContentBytes: defaultMaxContentBytes,
		},
		Annotate: Annotate{
			Enabled: true,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}
