// Package extractor turns raw file bytes into canonical UTF-8 text. It is a
// dispatching façade over one sub-extractor per MIME family, covering the
// closed family set plain/pdf/docx/image/unknown.
package extractor

import (
	"fmt"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// MaxInputBytes is the size gate applied before any extraction begins.
const MaxInputBytes = 10 * 1 << 20 // 10 MiB

// Family is the closed set of MIME families the extractor dispatches on.
type Family string

const (
	FamilyPlain   Family = "plain"
	FamilyPDF     Family = "pdf"
	FamilyDocx    Family = "docx"
	FamilyImage   Family = "image"
	FamilyUnknown Family = "unknown"
)

// OCREngine isolates the tesseract binding behind a seam so tests can fake
// OCR output without a tesseract install, and so a cloud OCR backend can be
// swapped in without touching the façade.
type OCREngine interface {
	RecognizeText(imageBytes []byte) (string, error)
}

// Extractor dispatches raw bytes to the extraction routine for a declared
// MIME family.
type Extractor struct {
	ocr OCREngine
}

// New builds an Extractor. ocr may be nil if image extraction is never used
// by the caller; a nil ocr asked to extract an image family reports
// KindUnsupported rather than panicking.
func New(ocr OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// Extract produces canonical UTF-8 text from raw bytes declared to be of
// family. Extract does not retain the input slice after return.
func (e *Extractor) Extract(data []byte, family Family) (string, error) {
	if len(data) > MaxInputBytes {
		return "", ragerr.New("Extract", ragerr.KindTooLarge, fmt.Errorf("input is %d bytes, limit is %d", len(data), MaxInputBytes))
	}

	var (
		text string
		err  error
	)
	switch family {
	case FamilyPlain:
		text, err = extractPlain(data)
	case FamilyPDF:
		text, err = extractPDF(data)
	case FamilyDocx:
		text, err = extractDocx(data)
	case FamilyImage:
		if e.ocr == nil {
			return "", ragerr.New("Extract", ragerr.KindUnsupported, fmt.Errorf("no OCR engine configured"))
		}
		text, err = extractImage(data, e.ocr)
	default:
		return "", ragerr.New("Extract", ragerr.KindUnsupported, fmt.Errorf("unsupported family %q", family))
	}
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", ragerr.New("Extract", ragerr.KindEmpty, fmt.Errorf("extraction yielded no text"))
	}
	return text, nil
}
