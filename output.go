package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/harbom/Deep-Fried-Learning/IO"
	"github.com/harbom/Deep-Fried-Learning/model"
	"github.com/harbom/Deep-Fried-Learning/params"
	"gonum.org/v1/gonum/floats"
)

var (
	brand    = lipgloss.Color("205")
	subtle   = lipgloss.Color("241")
	title    = lipgloss.NewStyle().Bold(true).Foreground(brand)
	dim      = lipgloss.NewStyle().Foreground(subtle)
	ok       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	panel    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(brand).Padding(0, 1)
	lossLine = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func row(label, value string) string {
	return dim.Render(fmt.Sprintf("%-14s", label)) + value
}

func printDataset(split IO.Split, vocab IO.Vocabulary) {
	lines := []string{
		title.Render("Dataset"),
		row("examples", fmt.Sprint(split.Total())),
		row("train / val", fmt.Sprintf("%d / %d (%.0f%%)", len(split.YTrain), len(split.YTest),
			100*IO.ValidationFraction(split.Total()))),
		row("x shape", fmt.Sprintf("(%d, %d)", len(split.XTrain), split.SeqLen)),
		row("vocab", fmt.Sprintf("%d  %q", vocab.Size(), string(vocab.Tokens()))),
	}
	fmt.Println(panel.Render(strings.Join(lines, "\n")))
}

func printSummary(cfg params.Config, split IO.Split, hist model.History, elapsed time.Duration) {
	lines := []string{title.Render("Training")}
	lines = append(lines, row("epochs run", fmt.Sprintf("%d / %d", len(hist.Epochs), cfg.Train.Epochs)))
	if hist.BestEpoch > 0 {
		best := hist.Epochs[hist.BestEpoch-1]
		monitor := "val loss"
		if len(split.YTest) == 0 {
			monitor = "train loss"
		}
		lines = append(lines,
			row("best epoch", fmt.Sprint(best.Epoch)),
			row(monitor, ok.Render(fmt.Sprintf("%.4f", hist.BestLoss))),
			row("val acc", fmt.Sprintf("%.4f", best.ValAcc)),
			row("checkpoint", cfg.Train.CheckpointPath),
		)
	}
	if hist.Stopped {
		lines = append(lines, warn.Render("stopped early: no improvement"))
	}
	lines = append(lines, row("time", elapsed.Round(time.Millisecond).String()))

	losses := make([]float64, len(hist.Epochs))
	for i, st := range hist.Epochs {
		losses[i] = st.Loss
	}
	if len(losses) > 1 {
		lines = append(lines, "", dim.Render("train loss"), lossLine.Render(asciiPlot(losses)))
	}
	fmt.Println(panel.Render(strings.Join(lines, "\n")))
}

// asciiPlot draws a vertical bar chart of values scaled to the largest one.
func asciiPlot(values []float64) string {
	const height = 8
	n := len(values)
	if n == 0 {
		return "no data to plot"
	}
	top := floats.Max(values)
	if top <= 0 {
		top = 1
	}
	var b strings.Builder
	for r := height; r >= 1; r-- {
		threshold := float64(r) / float64(height)
		for _, v := range values {
			if v/top >= threshold {
				b.WriteString("█")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteByte('\n')
	}
	b.WriteString(strings.Repeat("─", n))
	return b.String()
}
