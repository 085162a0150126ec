package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harbom/Deep-Fried-Learning/history"
	"github.com/harbom/Deep-Fried-Learning/model"
	"github.com/harbom/Deep-Fried-Learning/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	csvPath := filepath.Join(dir, "memes.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Top Caption,Bottom Caption,Url\n"+
			"HI THERE,,x\n"+
			"ONE DOES NOT,SIMPLY WALK,y\n"+
			"NA,BRACE YOURSELVES,z\n"), 0o644))

	cfgPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
data:
  captions_path: %s
dataset:
  seq_len: 16
  seed: 3
model:
  embed_dim: 4
  filters: 6
  kernel_size: 3
  hidden: 8
train:
  epochs: 2
  batch_size: 8
  checkpoint_path: %s
  log_path: %s
  history_db: %s
`, csvPath,
		filepath.Join(dir, "models", "best.gob"),
		filepath.Join(dir, "log.csv"),
		filepath.Join(dir, "runs.db"))), 0o644))
	return dir, cfgPath
}

func TestLoadConfigFlagsOverride(t *testing.T) {
	_, cfgPath := writeFixture(t)
	f := cliFlags{configPath: cfgPath, epochs: 7, seed: 99, batch: 3}

	cfg, err := loadConfig(f, map[string]bool{"epochs": true, "seed": true})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Train.Epochs)
	require.NotNil(t, cfg.Dataset.Seed)
	assert.Equal(t, uint64(99), *cfg.Dataset.Seed)
	// unset flags leave the file's values alone
	assert.Equal(t, 8, cfg.Train.BatchSize)
	assert.Equal(t, 16, cfg.Dataset.SeqLen)
}

func TestLoadConfigRejectsBadOverride(t *testing.T) {
	_, err := loadConfig(cliFlags{epochs: -1}, map[string]bool{"epochs": true})
	assert.ErrorIs(t, err, params.ErrInvalidConfig)
}

func TestRunPrepareOnly(t *testing.T) {
	dir, cfgPath := writeFixture(t)
	transcript := filepath.Join(dir, "pairs.txt")
	f := cliFlags{configPath: cfgPath, prepareOnly: true, transcript: transcript}

	require.NoError(t, run(f, map[string]bool{"transcript": true}))

	raw, err := os.ReadFile(transcript)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), `["0000 0 ", "H"]`+"\n"))
	_, err = os.Stat(filepath.Join(dir, "models", "best.gob"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunTrainsAndRecords(t *testing.T) {
	dir, cfgPath := writeFixture(t)
	require.NoError(t, run(cliFlags{configPath: cfgPath}, map[string]bool{}))

	m, meta, err := model.Load(filepath.Join(dir, "models", "best.gob"))
	require.NoError(t, err)
	assert.Equal(t, 16, m.SeqLen)
	require.NotEmpty(t, meta.Vocab)
	assert.Equal(t, ' ', meta.Vocab[len(meta.Vocab)-1])
	assert.Contains(t, meta.Vocab, '|')

	logRaw, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(logRaw)), "\n")
	assert.Equal(t, "epoch,loss,val_loss,val_acc", lines[0])
	assert.Len(t, lines, 3)

	store, err := history.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].FinishedAt.IsZero())
	eps, err := store.Epochs(runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, eps, 2)
}

func TestAsciiPlot(t *testing.T) {
	out := asciiPlot([]float64{1, 0.5})
	rows := strings.Split(out, "\n")
	assert.Len(t, rows, 9)
	assert.Equal(t, "█ ", rows[0])
	assert.Equal(t, "██", rows[7])
	assert.Equal(t, "no data to plot", asciiPlot(nil))
}
