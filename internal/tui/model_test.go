package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"watermarker/internal/processor"
)

func TestModelAccumulatesUpdates(t *testing.T) {
	updates := make(chan processor.ProgressUpdate)
	var m tea.Model = NewModel(updates)

	for _, u := range []processor.ProgressUpdate{
		{TotalDelta: 1},
		{TotalDelta: 1},
		{ProcessedDelta: 1, BytesWrittenDelta: 2048},
		{ProcessedDelta: 1, ErrorDelta: 1},
		{TotalDelta: 1},
		{ProcessedDelta: 1, CancelledDelta: 1},
	} {
		m, _ = m.Update(updateMsg(u))
	}

	view := m.View()
	if !strings.Contains(view, "Exported: 1/3") {
		t.Fatalf("view missing progress:\n%s", view)
	}
	if !strings.Contains(view, "failed:1") || !strings.Contains(view, "2.0 KiB") {
		t.Fatalf("view missing counters:\n%s", view)
	}

	m, cmd := m.Update(doneMsg{})
	if cmd == nil || m.View() != "" {
		t.Fatalf("expected quit with empty view")
	}
	if m.(Model).Cancelled() {
		t.Fatalf("completion is not a cancellation")
	}
}

func TestModelQuitKeyCancels(t *testing.T) {
	m, _ := NewModel(nil).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !m.(Model).Cancelled() {
		t.Fatalf("expected q to cancel")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1536:            "1.5 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := FormatBytes(in); got != want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSummaryAligns(t *testing.T) {
	out := RenderSummary([]SummaryRow{{Label: "Exported", Value: "3"}, {Label: "Failed", Value: "10"}})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Failed   | 10") {
		t.Fatalf("rows not aligned:\n%s", out)
	}
	if RenderFailures(nil) != "" {
		t.Fatalf("expected empty failure list")
	}
}
