package params

// Config is the full run configuration. Zero-valued fields in a config file keep
// the values from Default.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Dataset DatasetConfig `yaml:"dataset"`
	Model   ModelConfig   `yaml:"model"`
	Train   TrainConfig   `yaml:"train"`
	App     AppConfig     `yaml:"app"`
}

type DataConfig struct {
	CaptionsPath   string   `yaml:"captions_path"`   // CSV with one meme per row
	TopColumn      string   `yaml:"top_column"`      // header of the top caption column
	BottomColumn   string   `yaml:"bottom_column"`   // header of the bottom caption column
	MissingValues  []string `yaml:"missing_values"`  // cell literals read as "no caption" (the empty cell always is)
	TranscriptPath string   `yaml:"transcript_path"` // "" = no transcript
}

type DatasetConfig struct {
	EndMarker string  `yaml:"end_marker"` // single rune closing every caption and standing in for spaces
	IDWidth   int     `yaml:"id_width"`   // zero-pad width of the meme id in context keys
	SeqLen    int     `yaml:"seq_len"`    // fixed context length fed to the model
	Seed      *uint64 `yaml:"seed"`       // nil = process-random shuffle
}

type ModelConfig struct {
	EmbedDim   int `yaml:"embed_dim"`   // embedding width per character
	Filters    int `yaml:"filters"`     // conv filters
	KernelSize int `yaml:"kernel_size"` // conv window in characters
	Hidden     int `yaml:"hidden"`      // dense layer between pooling and the softmax
}

type TrainConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	AdamBeta1    float64 `yaml:"adam_beta1"`
	AdamBeta2    float64 `yaml:"adam_beta2"`
	AdamEps      float64 `yaml:"adam_eps"`
	WeightDecay  float64 `yaml:"weight_decay"` // AdamW-style, 0 disables
	GradClip     float64 `yaml:"grad_clip"`    // <=0 disables
	Patience     int     `yaml:"patience"`     // epochs without val improvement before stopping, 0 disables

	CheckpointPath string `yaml:"checkpoint_path"` // best val-loss snapshot
	LogPath        string `yaml:"log_path"`        // per-epoch CSV log, "" disables
	HistoryDB      string `yaml:"history_db"`      // sqlite run history, "" disables
}

type AppConfig struct {
	Debug      bool `yaml:"debug"`
	DebugEvery int  `yaml:"debug_every"` // print every N optimizer steps
}

// Default returns the settings used when no config file is given.
func Default() Config {
	return Config{
		Data: DataConfig{
			CaptionsPath: "Meme_training_data.csv",
			TopColumn:    "Top Caption",
			BottomColumn: "Bottom Caption",
			// the literals pandas reads as NaN by default
			MissingValues: []string{
				"#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
				"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
				"n/a", "nan", "null",
			},
		},
		Dataset: DatasetConfig{
			EndMarker: "|",
			IDWidth:   4,
			SeqLen:    128,
		},
		Model: ModelConfig{
			EmbedDim:   16,
			Filters:    64,
			KernelSize: 5,
			Hidden:     128,
		},
		Train: TrainConfig{
			Epochs:       10,
			BatchSize:    128,
			LearningRate: 1e-3,
			AdamBeta1:    0.9,
			AdamBeta2:    0.999,
			AdamEps:      1e-8,
			WeightDecay:  0,
			GradClip:     1.0,
			Patience:     0,

			CheckpointPath: "models/best_model.gob",
			LogPath:        "training_log.csv",
		},
		App: AppConfig{
			Debug:      false,
			DebugEvery: 1000,
		},
	}
}

// Marker returns the end-of-field marker as a rune. Call after Validate.
func (c DatasetConfig) Marker() rune {
	for _, r := range c.EndMarker {
		return r
	}
	return 0
}
