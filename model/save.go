package model

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harbom/Deep-Fried-Learning/params"
	"gonum.org/v1/gonum/mat"
)

// Meta is the bookkeeping stored next to the weights.
type Meta struct {
	Vocab   []rune
	Epoch   int
	ValLoss float64
}

type matData struct {
	R, C int
	Data []float64
}

type modelData struct {
	VocabSize, SeqLen int
	Cfg               params.ModelConfig
	Params            []matData
	Meta              Meta
}

// Save persists the weights and meta to path with gob. The file is written to a
// temp name in the same directory and renamed, so a reader never sees half a model.
func (m *CharCNN) Save(path string, meta Meta) error {
	data := modelData{VocabSize: m.VocabSize, SeqLen: m.SeqLen, Cfg: m.Cfg, Meta: meta}
	for _, p := range m.Params() {
		r, c := p.Dims()
		raw := mat.DenseCopyOf(p).RawMatrix()
		data.Params = append(data.Params, matData{R: r, C: c, Data: append([]float64(nil), raw.Data...)})
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load rebuilds a CharCNN saved by Save.
func Load(path string) (*CharCNN, Meta, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, err
	}
	var data modelData
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return nil, Meta{}, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}

	m, err := New(data.Cfg, data.VocabSize, data.SeqLen, zeroSource{})
	if err != nil {
		return nil, Meta{}, err
	}
	ps := m.Params()
	if len(data.Params) != len(ps) {
		return nil, Meta{}, fmt.Errorf("%w: checkpoint has %d tensors, want %d", ErrShape, len(data.Params), len(ps))
	}
	for i, p := range ps {
		r, c := p.Dims()
		d := data.Params[i]
		if d.R != r || d.C != c || len(d.Data) != r*c {
			return nil, Meta{}, fmt.Errorf("%w: tensor %d is %dx%d, want %dx%d", ErrShape, i, d.R, d.C, r, c)
		}
		p.Copy(mat.NewDense(r, c, d.Data))
	}
	return m, data.Meta, nil
}

// zeroSource feeds New when the weights are about to be overwritten anyway.
type zeroSource struct{}

func (zeroSource) Uint64() uint64 { return 0 }
