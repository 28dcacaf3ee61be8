package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr bool
	}{
		{"exact", "regulatory", CategoryRegulatory, false},
		{"mixed case", "Pharmacovigilance", CategoryPharmacovigilance, false},
		{"underscores", "Veterinary_Medicines", CategoryVeterinary, false},
		{"spaces", "veterinary medicines", CategoryVeterinary, false},
		{"full biological", "Biological_Products_and_Quality_Control", CategoryBiological, false},
		{"alias biological", "biological", CategoryBiological, false},
		{"alias veterinary", "veterinary", CategoryVeterinary, false},
		{"leading whitespace", "  regulatory  ", CategoryRegulatory, false},
		{"unknown", "cosmetics", "", true},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_Valid(t *testing.T) {
	for _, cat := range Categories() {
		assert.True(t, cat.Valid(), "category %q should be valid", cat)
	}
	assert.False(t, Category("cosmetics").Valid())
	assert.False(t, Category("").Valid())
}

func TestCandidateSet_OK(t *testing.T) {
	ok := CandidateSet{Method: MethodSemantic, Candidates: []Candidate{{ChunkID: "a", Score: 0.5}}}
	assert.True(t, ok.OK())

	failed := CandidateSet{Method: MethodLexical, Unavailable: ErrIndexUnavailable}
	assert.False(t, failed.OK())
}
