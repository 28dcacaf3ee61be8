package chunker

import (
	"strings"
	"testing"

	"github.com/ArabianCowboy/SFDA-copilot/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, c.overlap)
		}
		if c.tableSize != DefaultTableChunkSize {
			t.Errorf("expected tableSize %d, got %d", DefaultTableChunkSize, c.tableSize)
		}
	})

	t.Run("custom sizes", func(t *testing.T) {
		c := New(WithChunkSize(500), WithOverlap(100), WithTableChunkSize(2000), WithTableOverlap(400))
		if c.chunkSize != 500 || c.overlap != 100 || c.tableSize != 2000 || c.tableOverlap != 400 {
			t.Errorf("options not applied: %+v", c)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultChunkOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"newline runs", "a\n\n\nb", "a\nb"},
		{"whitespace runs", "a   \t b", "a b"},
		{"non printable", "a\x00b\x7fc", "abc"},
		{"trimmed", "  hello  ", "hello"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHasTable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"pipe table", "| Drug | Dose |\n| A | 5mg |", true},
		{"ascii rule", "+----+----+", true},
		{"html table", "<table border=1>", true},
		{"aligned columns", "Name    Dose    Route", true},
		{"plain prose", "The registration of a new drug requires a dossier.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasTable(tt.input); got != tt.want {
				t.Errorf("hasTable(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplit_Empty(t *testing.T) {
	c := New()
	if pieces := c.Split(""); len(pieces) != 0 {
		t.Errorf("expected 0 pieces for empty input, got %d", len(pieces))
	}
	if pieces := c.Split("   \n\n  "); len(pieces) != 0 {
		t.Errorf("expected 0 pieces for whitespace input, got %d", len(pieces))
	}
}

func TestSplit_ShortSpanKeptWhole(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	pieces := c.Split("A short note on labelling requirements.")

	if len(pieces) != 1 {
		t.Fatalf("expected 1 piece for short span, got %d", len(pieces))
	}
	if pieces[0].Type != domain.ChunkTypeText {
		t.Errorf("expected text chunk type, got %s", pieces[0].Type)
	}
}

func TestSplit_ProseWindows(t *testing.T) {
	c := New(WithChunkSize(120), WithOverlap(30))

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("Each application must include stability data. ")
	}

	pieces := c.Split(sb.String())
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	for i, p := range pieces {
		if len(p.Text) > 120 {
			t.Errorf("piece %d exceeds window: %d chars", i, len(p.Text))
		}
		if p.Type != domain.ChunkTypeText {
			t.Errorf("piece %d: expected text type, got %s", i, p.Type)
		}
	}
}

func TestSplit_OverlapCarriesBoundaryContent(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(40))

	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("Pharmacovigilance obligations apply to all holders. ")
	}

	pieces := c.Split(sb.String())
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}

	// Consecutive pieces should share content.
	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1].Text
		tail := prev[max(0, len(prev)-20):]
		if !strings.Contains(pieces[i].Text, strings.TrimSpace(tail)) {
			t.Errorf("piece %d does not carry overlap from piece %d", i, i-1)
		}
	}
}

func TestSplit_TableGetsLargerWindow(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20), WithTableChunkSize(500), WithTableOverlap(50))

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("| Product | Strength | Route |\n")
	}

	pieces := c.Split(sb.String())
	if len(pieces) == 0 {
		t.Fatal("expected pieces")
	}

	for i, p := range pieces {
		if p.Type != domain.ChunkTypeTable {
			t.Errorf("piece %d: expected table type, got %s", i, p.Type)
		}
		if len(p.Text) > 500 {
			t.Errorf("piece %d exceeds table window: %d chars", i, len(p.Text))
		}
	}

	// The table window is larger, so a table page yields fewer pieces
	// than the same content chunked as prose would.
	if len(pieces) > 3 {
		t.Errorf("expected at most 3 table pieces, got %d", len(pieces))
	}
}

func TestHardSplit_NoSeparators(t *testing.T) {
	text := strings.Repeat("x", 250)
	chunks := hardSplit(text, 100, 20)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch) > 100 {
			t.Errorf("chunk %d exceeds size: %d", i, len(ch))
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
