package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/harbom/Deep-Fried-Learning/IO"
	"github.com/harbom/Deep-Fried-Learning/params"
	"github.com/harbom/Deep-Fried-Learning/utils"
)

type cliFlags struct {
	configPath  string
	dataPath    string
	transcript  string
	epochs      int
	batch       int
	seed        uint64
	checkpoint  string
	historyDB   string
	prepareOnly bool
	debug       bool
}

func main() {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "YAML config file (defaults are used when empty)")
	flag.StringVar(&f.dataPath, "data", "", "Caption CSV, overrides data.captions_path")
	flag.StringVar(&f.transcript, "transcript", "", "Write every (context, next) pair to this file")
	flag.IntVar(&f.epochs, "epochs", 0, "Training epochs, overrides train.epochs")
	flag.IntVar(&f.batch, "batch", 0, "Mini-batch size, overrides train.batch_size")
	flag.Uint64Var(&f.seed, "seed", 0, "Seed for shuffling and weight init (random when unset)")
	flag.StringVar(&f.checkpoint, "checkpoint", "", "Best-model path, overrides train.checkpoint_path")
	flag.StringVar(&f.historyDB, "history", "", "SQLite run history, overrides train.history_db")
	flag.BoolVar(&f.prepareOnly, "prepare-only", false, "Stop after building the tensors")
	flag.BoolVar(&f.debug, "debug", false, "Verbose debug logging")
	flag.Parse()

	set := map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if err := run(f, set); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(f cliFlags, set map[string]bool) error {
	t1 := time.Now()

	cfg, err := loadConfig(f, set)
	if err != nil {
		return err
	}
	utils.SetDebug(cfg.App.Debug)

	marker := cfg.Dataset.Marker()
	records, err := IO.ReadCaptions(cfg.Data.CaptionsPath, IO.ReadOptions{
		TopColumn:     cfg.Data.TopColumn,
		BottomColumn:  cfg.Data.BottomColumn,
		MissingValues: cfg.Data.MissingValues,
		Marker:        marker,
	})
	if err != nil {
		return fmt.Errorf("read captions: %w", err)
	}
	fmt.Printf("Loaded %d memes from %s\n", len(records), cfg.Data.CaptionsPath)

	examples, vocab := IO.NewBuilder(marker, cfg.Dataset.IDWidth).Build(records)
	fmt.Printf("Built %d training examples, %d characters in vocabulary\n", len(examples), vocab.Size())

	if cfg.Data.TranscriptPath != "" {
		if err := IO.WriteTranscriptFile(cfg.Data.TranscriptPath, examples); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		utils.Infof("transcript written to %s", cfg.Data.TranscriptPath)
	}

	split, vocab, err := IO.Prepare(examples, vocab, cfg.Dataset.SeqLen, cfg.Dataset.Seed)
	if err != nil {
		return fmt.Errorf("prepare tensors: %w", err)
	}
	printDataset(split, vocab)
	if f.prepareOnly {
		return nil
	}

	hist, err := train(cfg, split, vocab)
	if err != nil {
		return err
	}
	printSummary(cfg, split, hist, time.Since(t1))
	return nil
}

// loadConfig reads the config file (if any) and applies the flags the user set.
func loadConfig(f cliFlags, set map[string]bool) (params.Config, error) {
	cfg := params.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = params.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	if set["data"] {
		cfg.Data.CaptionsPath = f.dataPath
	}
	if set["transcript"] {
		cfg.Data.TranscriptPath = f.transcript
	}
	if set["epochs"] {
		cfg.Train.Epochs = f.epochs
	}
	if set["batch"] {
		cfg.Train.BatchSize = f.batch
	}
	if set["seed"] {
		seed := f.seed
		cfg.Dataset.Seed = &seed
	}
	if set["checkpoint"] {
		cfg.Train.CheckpointPath = f.checkpoint
	}
	if set["history"] {
		cfg.Train.HistoryDB = f.historyDB
	}
	if set["debug"] {
		cfg.App.Debug = f.debug
	}
	return cfg, cfg.Validate()
}

// weightSource seeds weight init from the configured seed, or from the process RNG.
func weightSource(seed *uint64) rand.Source {
	s := rand.Uint64()
	if seed != nil {
		s = *seed
	}
	return rand.NewPCG(s, s^0x9e3779b97f4a7c15)
}
