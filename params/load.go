package params

import (
	"errors"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a configuration that cannot produce a consistent dataset.
var ErrInvalidConfig = errors.New("invalid config")

// Load reads a YAML file over Default, expanding ${VAR} references first.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, fmt.Errorf("config file not found at: %s", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields the pipeline depends on.
func (c Config) Validate() error {
	if c.Data.TopColumn == "" || c.Data.BottomColumn == "" {
		return fmt.Errorf("%w: caption column names are required", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.Dataset.EndMarker) != 1 {
		return fmt.Errorf("%w: end_marker must be exactly one character, got %q", ErrInvalidConfig, c.Dataset.EndMarker)
	}
	// The marker shares the context key alphabet with the separators and id digits.
	m := c.Dataset.Marker()
	if m == ' ' || unicode.IsDigit(m) {
		return fmt.Errorf("%w: end_marker %q collides with the context key alphabet", ErrInvalidConfig, m)
	}
	if c.Dataset.IDWidth <= 0 {
		return fmt.Errorf("%w: id_width must be positive", ErrInvalidConfig)
	}
	if c.Dataset.SeqLen <= 0 {
		return fmt.Errorf("%w: seq_len must be positive", ErrInvalidConfig)
	}
	if c.Model.EmbedDim <= 0 || c.Model.Filters <= 0 || c.Model.Hidden <= 0 {
		return fmt.Errorf("%w: model widths must be positive", ErrInvalidConfig)
	}
	if c.Model.KernelSize <= 0 || c.Model.KernelSize > c.Dataset.SeqLen {
		return fmt.Errorf("%w: kernel_size must be in [1, seq_len]", ErrInvalidConfig)
	}
	if c.Train.Epochs <= 0 || c.Train.BatchSize <= 0 {
		return fmt.Errorf("%w: epochs and batch_size must be positive", ErrInvalidConfig)
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("%w: learning_rate must be positive", ErrInvalidConfig)
	}
	if c.Train.CheckpointPath == "" {
		return fmt.Errorf("%w: checkpoint_path is required", ErrInvalidConfig)
	}
	return nil
}
