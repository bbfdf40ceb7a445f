package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"video-beeper/domain/audio"
	"video-beeper/domain/submission"
	"video-beeper/infrastructure/resource"
)

func allocateResult(t *testing.T, words []string) *submission.Result {
	t.Helper()
	res, err := resource.NewMemoryAllocator().Allocate(audio.NewWAVBlob([]byte("RIFF")))
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	return &submission.Result{Resource: res, FlaggedWords: words}
}

func TestRenderSnapshot_Views(t *testing.T) {
	result := allocateResult(t, []string{"darn", "heck"})

	tests := []struct {
		name     string
		snap     submission.Snapshot
		want     []string
		wantNone []string
	}{
		{
			name:     "idle renders nothing",
			snap:     submission.Snapshot{State: submission.StateIdle},
			wantNone: []string{LoadingMessage, "Error:", "Beeped"},
		},
		{
			name:     "loading",
			snap:     submission.Snapshot{State: submission.StateLoading},
			want:     []string{LoadingMessage},
			wantNone: []string{"Error:", "Beeped"},
		},
		{
			name: "failed",
			snap: submission.Snapshot{
				State:        submission.StateFailed,
				ErrorMessage: "Failed to process video: request failed with status code 500",
			},
			want:     []string{"Error: Failed to process video: request failed with status code 500"},
			wantNone: []string{LoadingMessage, "Beeped"},
		},
		{
			name: "validation error while idle",
			snap: submission.Snapshot{
				State:        submission.StateIdle,
				ErrorMessage: submission.NoFileMessage,
			},
			want:     []string{"Error: " + submission.NoFileMessage},
			wantNone: []string{LoadingMessage, "Beeped"},
		},
		{
			name:     "succeeded",
			snap:     submission.Snapshot{State: submission.StateSucceeded, Result: result},
			want:     []string{"Beeped Words", "darn", "heck", "Beeped Audio: " + result.Resource.Location()},
			wantNone: []string{LoadingMessage, "Error:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			renderSnapshot(&out, tt.snap, false)

			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q:\n%s", w, out.String())
				}
			}
			for _, w := range tt.wantNone {
				if strings.Contains(out.String(), w) {
					t.Errorf("output should not contain %q:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestRenderResult_NoWords(t *testing.T) {
	var out bytes.Buffer
	renderResult(&out, allocateResult(t, []string{}), false)

	if strings.Contains(out.String(), "Beeped Words") {
		t.Errorf("empty word list should not render a table:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "No words were beeped.") {
		t.Errorf("output missing empty notice:\n%s", out.String())
	}
}

func TestRenderResult_ProbeInfo(t *testing.T) {
	result := allocateResult(t, nil)
	result.Info = &audio.Info{SampleRate: 16000, Channels: 1, BitDepth: 16, Duration: 2 * time.Second}

	var out bytes.Buffer
	renderResult(&out, result, false)

	if !strings.Contains(out.String(), result.Info.String()) {
		t.Errorf("output missing probe info %q:\n%s", result.Info.String(), out.String())
	}
}

func TestRenderWordsTable_KeepsOrder(t *testing.T) {
	table := renderWordsTable([]string{"zebra", "apple", "zebra"})

	first := strings.Index(table, "zebra")
	second := strings.Index(table, "apple")
	if first < 0 || second < 0 || first > second {
		t.Errorf("words should keep response order:\n%s", table)
	}
	if strings.Count(table, "zebra") != 2 {
		t.Errorf("duplicates should be kept:\n%s", table)
	}
}

func TestPaint(t *testing.T) {
	if got := paint("Error: x", ansiRed, false); got != "Error: x" {
		t.Errorf("paint without colour = %q", got)
	}
	if got := paint("Error: x", ansiRed, true); got != ansiRed+"Error: x"+ansiReset {
		t.Errorf("paint with colour = %q", got)
	}
}

func TestShouldColorize_NonFile(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Error("buffers are never terminals")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()
	if shouldColorize(f) {
		t.Error("regular files are never terminals")
	}
}

func TestRenderResult_WordsHeadingOnOneLine(t *testing.T) {
	var out bytes.Buffer
	renderResult(&out, allocateResult(t, []string{"a"}), false)

	lines := strings.Split(out.String(), "\n")
	if lines[0] != "Beeped Words:" {
		t.Errorf("first line = %q, want the heading on its own line", lines[0])
	}
	if strings.Count(out.String(), "Beeped W") != 1 {
		t.Errorf("heading should appear once, unbroken:\n%s", out.String())
	}
}
