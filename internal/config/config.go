package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ConfigDir string `toml:"config_dir"`
	DataDir   string `toml:"data_dir"`
	BackupDir string `toml:"backup_dir"`
	LogDir    string `toml:"log_dir"`
}

// Organize contains configuration for the organize transaction.
type Organize struct {
	// CopyInsteadOfMove leaves the source file in place after organizing.
	CopyInsteadOfMove bool `toml:"copy_instead_of_move"`
	// DefaultCaseStyle applies when a template does not set one.
	DefaultCaseStyle  string `toml:"default_case_style"`
	OverwriteExisting bool   `toml:"overwrite_existing"`
}

// Watch contains configuration for directory watching.
type Watch struct {
	// QuiescenceMS is how long a file's size and mtime must stay stable
	// before it is considered finished writing.
	QuiescenceMS int `toml:"quiescence_ms"`
	EventBuffer  int `toml:"event_buffer"`
}

// Classifier contains connection settings for the classification provider.
type Classifier struct {
	APIKey          string `toml:"api_key"`
	BaseURL         string `toml:"base_url"`
	Model           string `toml:"model"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	MaxContentBytes int    `toml:"max_content_bytes"`
}

// Annotate contains configuration for filesystem tag/comment annotation.
type Annotate struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for curator.
//
// Configuration sections by subsystem:
//   - Paths: config, data, backup, and log directories
//   - Organize: move semantics and naming defaults
//   - Watch: quiescence window and event buffering
//   - Classifier: connection settings for the classification provider
//   - Annotate: xattr tag/comment annotation
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Organize   Organize   `toml:"organize"`
	Watch      Watch      `toml:"watch"`
	Classifier Classifier `toml:"classifier"`
	Annotate   Annotate   `toml:"annotate"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. A missing file is not an error:
// defaults apply and exists reports false.
func Load(path string) (cfg *Config, resolvedPath string, exists bool, err error) {
	value := Default()

	resolvedPath, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, openErr := os.Open(resolvedPath)
		if openErr != nil {
			return nil, "", false, fmt.Errorf("open config: %w", openErr)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if decodeErr := decoder.Decode(&value); decodeErr != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", decodeErr)
		}
	}

	if err = value.normalize(); err != nil {
		return nil, "", false, err
	}
	if err = value.Validate(); err != nil {
		return nil, "", false, err
	}

	return &value, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.ConfigDir, err = expandPath(c.Paths.ConfigDir); err != nil {
		return fmt.Errorf("paths.config_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		c.Paths.BackupDir = filepath.Join(c.Paths.DataDir, "backups")
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Organize.DefaultCaseStyle = strings.ToLower(strings.TrimSpace(c.Organize.DefaultCaseStyle))
	if c.Organize.DefaultCaseStyle == "" {
		c.Organize.DefaultCaseStyle = defaultCaseStyle
	}
	if c.Watch.QuiescenceMS == 0 {
		c.Watch.QuiescenceMS = defaultQuiescenceMS
	}
	if c.Watch.EventBuffer == 0 {
		c.Watch.EventBuffer = defaultEventBuffer
	}
	if c.Classifier.MaxContentBytes == 0 {
		c.Classifier.MaxContentBytes = defaultMaxContentBytes
	}
	if c.Classifier.TimeoutSeconds == 0 {
		c.Classifier.TimeoutSeconds = defaultClassifierTimeout
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// EnsureDirectories creates all directories curator needs at runtime.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.ConfigDir,
		filepath.Join(c.Paths.ConfigDir, "locks"),
		c.Paths.DataDir,
		c.Paths.BackupDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the lock artifact location for an operating mode.
func (c *Config) LockPath(mode string) string {
	return filepath.Join(c.Paths.ConfigDir, "locks", "curator-"+mode+".lock.json")
}

// TemplatesPath returns the JSON template store location.
func (c *Config) TemplatesPath() string {
	return filepath.Join(c.Paths.ConfigDir, "templates.json")
}

// DatabasePath returns the provenance database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "provenance.db")
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
