package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		w, h int
		want bool
	}{
		{80, 24, false},
		{MinWidth, MinHeight, false},
		{MinWidth - 1, 24, true},
		{80, MinHeight - 1, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.w, tt.h); got != tt.want {
			t.Errorf("IsTooSmall(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestRenderFrameFitsHeight(t *testing.T) {
	header := RenderHeader("Topic", "gemini", 80)
	footer := RenderFooter([]KeyHint{{Key: "Enter", Description: "Run"}}, 80)
	content := strings.Repeat("line\n", 100)

	frame := RenderFrame(header, content, footer, 80, 24)
	if h := lipgloss.Height(frame); h != 24 {
		t.Errorf("frame height = %d, want 24", h)
	}
	if !strings.Contains(frame, "mcqflow") || !strings.Contains(frame, "Enter") {
		t.Error("frame is missing header or footer text")
	}
}
