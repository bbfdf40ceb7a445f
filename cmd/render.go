package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"video-beeper/domain/submission"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

// LoadingMessage is shown while a submission is in flight
const LoadingMessage = "Processing..."

// renderSnapshot prints exactly one region for the snapshot: the loading
// line, the error line or the result. Nothing is printed for an idle session.
func renderSnapshot(out io.Writer, snap submission.Snapshot, colorize bool) {
	switch snap.View() {
	case submission.ViewLoading:
		fmt.Fprintln(out, LoadingMessage)
	case submission.ViewError:
		fmt.Fprintln(out, paint("Error: "+snap.ErrorMessage, ansiRed, colorize))
	case submission.ViewResult:
		renderResult(out, snap.Result, colorize)
	}
}

func renderResult(out io.Writer, result *submission.Result, colorize bool) {
	if words := result.FlaggedWords; len(words) > 0 {
		fmt.Fprintln(out, "Beeped Words:")
		fmt.Fprintln(out, renderWordsTable(words))
	} else {
		fmt.Fprintln(out, "No words were beeped.")
	}

	fmt.Fprintln(out, paint("Beeped Audio: "+result.Resource.Location(), ansiGreen, colorize))
	if result.Info != nil {
		fmt.Fprintf(out, "  %s\n", result.Info)
	}
}

func renderWordsTable(words []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Word"})
	for i, word := range words {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), word})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func paint(s, color string, colorize bool) string {
	if !colorize {
		return s
	}
	return color + s + ansiReset
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	return isTerminal(file)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
