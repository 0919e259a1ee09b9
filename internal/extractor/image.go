package extractor

import (
	"fmt"
	"strings"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// extractImage hands raw image bytes to the configured OCR engine. An
// OCR result of only whitespace is empty, not a pipeline failure; the
// image may simply contain no recognizable text.
func extractImage(data []byte, ocr OCREngine) (string, error) {
	text, err := ocr.RecognizeText(data)
	if err != nil {
		return "", ragerr.New("extractImage", ragerr.KindCorrupt, fmt.Errorf("ocr: %w", err))
	}
	return strings.TrimSpace(text), nil
}
