package IO

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteTranscript writes one `["<context>", "<next>"]` line per example.
func WriteTranscript(w io.Writer, examples []TrainingExample) error {
	bw := bufio.NewWriterSize(w, 1<<20)
	for _, ex := range examples {
		if _, err := fmt.Fprintf(bw, "[%q, %q]\n", ex.Context, string(ex.Next)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTranscriptFile creates (or truncates) path and writes the transcript to it.
func WriteTranscriptFile(path string, examples []TrainingExample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteTranscript(f, examples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
