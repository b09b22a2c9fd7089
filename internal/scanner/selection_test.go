package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/local/passscan/internal/filetype"
)

func TestChooseMethod(t *testing.T) {
	tests := []struct {
		name       string
		kind       filetype.Kind
		geminiOnly bool
		want       Method
	}{
		{"pdf default", filetype.KindPDF, false, MethodOCRBased},
		{"pdf direct", filetype.KindPDF, true, MethodDirectAI},
		{"image default", filetype.KindImage, false, MethodOCRBased},
		{"image ignores direct flag", filetype.KindImage, true, MethodOCRBased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseMethod(tt.kind, tt.geminiOnly))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "start", StateStart.String())
	assert.Equal(t, "method_chosen", StateMethodChosen.String())
	assert.Equal(t, "structured", StateStructured.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(99).String())
}
