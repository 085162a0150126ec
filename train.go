package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/harbom/Deep-Fried-Learning/IO"
	"github.com/harbom/Deep-Fried-Learning/history"
	"github.com/harbom/Deep-Fried-Learning/model"
	"github.com/harbom/Deep-Fried-Learning/params"
	"github.com/harbom/Deep-Fried-Learning/utils"
)

// train builds a fresh CharCNN and fits it, streaming every epoch to stdout, the
// CSV log and the run history when those are configured.
func train(cfg params.Config, split IO.Split, vocab IO.Vocabulary) (model.History, error) {
	m, err := model.New(cfg.Model, split.VocabSize, split.SeqLen, weightSource(cfg.Dataset.Seed))
	if err != nil {
		return model.History{}, err
	}

	opts := model.OptionsFromConfig(cfg)
	opts.Vocab = vocab.Tokens()

	var sinks []func(model.EpochStats) error

	if cfg.Train.LogPath != "" {
		logFile, err := os.Create(cfg.Train.LogPath)
		if err != nil {
			return model.History{}, fmt.Errorf("create training log: %w", err)
		}
		defer logFile.Close()
		logWriter := csv.NewWriter(logFile)
		defer logWriter.Flush()
		if err := logWriter.Write([]string{"epoch", "loss", "val_loss", "val_acc"}); err != nil {
			return model.History{}, err
		}
		sinks = append(sinks, func(st model.EpochStats) error {
			logWriter.Write([]string{
				strconv.Itoa(st.Epoch),
				strconv.FormatFloat(st.Loss, 'f', 6, 64),
				strconv.FormatFloat(st.ValLoss, 'f', 6, 64),
				strconv.FormatFloat(st.ValAcc, 'f', 6, 64),
			})
			logWriter.Flush()
			return logWriter.Error()
		})
	}

	var (
		store *history.Store
		runID string
	)
	if cfg.Train.HistoryDB != "" {
		if dir := filepath.Dir(cfg.Train.HistoryDB); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return model.History{}, err
			}
		}
		store, err = history.Open(cfg.Train.HistoryDB)
		if err != nil {
			return model.History{}, fmt.Errorf("open run history: %w", err)
		}
		defer store.Close()
		runID, err = store.StartRun(cfg, split.Total(), split.VocabSize, split.SeqLen)
		if err != nil {
			return model.History{}, err
		}
		utils.Infof("run %s recorded in %s", runID, cfg.Train.HistoryDB)
		sinks = append(sinks, func(st model.EpochStats) error {
			return store.RecordEpoch(runID, st)
		})
	}

	opts.OnEpoch = func(st model.EpochStats) error {
		mark := ""
		if st.Improved {
			mark = " *"
		}
		fmt.Printf("Epoch %d - Loss: %.4f, ValLoss: %.4f, ValAcc: %.4f, Time: %v%s\n",
			st.Epoch, st.Loss, st.ValLoss, st.ValAcc, st.Duration, mark)
		for _, sink := range sinks {
			if err := sink(st); err != nil {
				return err
			}
		}
		return nil
	}

	fmt.Printf("Train: %d examples  Validation: %d  Params: seq=%d vocab=%d\n",
		len(split.YTrain), len(split.YTest), split.SeqLen, split.VocabSize)
	hist, err := model.Fit(m, split, opts)
	if store != nil {
		if ferr := store.FinishRun(runID, hist); ferr != nil {
			utils.Warnf("finish run %s: %v", runID, ferr)
		}
	}
	return hist, err
}
