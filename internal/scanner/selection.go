package scanner

import "github.com/local/passscan/internal/filetype"

// State tracks a single file's progress through the extraction pipeline.
// The explicit machine keeps the text-then-OCR fallback order visible and
// independently testable instead of burying it in nested conditionals.
type State int

const (
	StateStart State = iota
	StateClassified
	StateMethodChosen
	StateTextObtained
	StateStructured
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateClassified:
		return "classified"
	case StateMethodChosen:
		return "method_chosen"
	case StateTextObtained:
		return "text_obtained"
	case StateStructured:
		return "structured"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ChooseMethod selects the extraction path for a classified file.
// Images always go through OCR: direct mode is PDF-only. PDFs go direct to the
// AI service only when the caller asked for it; the default path tries the
// text layer first and reserves OCR for PDFs whose layer is unusable, since
// OCR is the most expensive stage.
func ChooseMethod(kind filetype.Kind, geminiOnly bool) Method {
	if kind == filetype.KindPDF && geminiOnly {
		return MethodDirectAI
	}
	return MethodOCRBased
}
