package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/spacevault/ragcore/internal/ragerr"
)

type fakeOCR struct {
	text string
	err  error
}

func (f *fakeOCR) RecognizeText(imageBytes []byte) (string, error) {
	return f.text, f.err
}

func TestExtractPlain(t *testing.T) {
	ex := New(nil)

	text, err := ex.Extract([]byte("  hello world\n"), FamilyPlain)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("expected trimmed text, got %q", text)
	}
}

func TestExtractPlainInvalidUTF8IsCorrupt(t *testing.T) {
	ex := New(nil)
	if _, err := ex.Extract([]byte{0xff, 0xfe, 0xfd}, FamilyPlain); !ragerr.Is(err, ragerr.KindCorrupt) {
		t.Fatalf("expected corrupt for invalid UTF-8, got %v", err)
	}
}

func TestExtractUnknownFamilyIsUnsupported(t *testing.T) {
	ex := New(nil)
	if _, err := ex.Extract([]byte("whatever"), FamilyUnknown); !ragerr.Is(err, ragerr.KindUnsupported) {
		t.Fatalf("expected unsupported, got %v", err)
	}
}

func TestExtractSizeGateAppliesBeforeDispatch(t *testing.T) {
	ex := New(nil)
	big := make([]byte, MaxInputBytes+1)
	if _, err := ex.Extract(big, FamilyPlain); !ragerr.Is(err, ragerr.KindTooLarge) {
		t.Fatalf("expected too-large, got %v", err)
	}
}

func TestExtractImageThroughOCR(t *testing.T) {
	ex := New(&fakeOCR{text: "  scanned receipt total 42.00  "})
	text, err := ex.Extract([]byte("png bytes"), FamilyImage)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "scanned receipt total 42.00" {
		t.Fatalf("expected trimmed OCR text, got %q", text)
	}
}

func TestExtractImageEmptyOCRIsEmpty(t *testing.T) {
	ex := New(&fakeOCR{text: "   \n  "})
	if _, err := ex.Extract([]byte("png bytes"), FamilyImage); !ragerr.Is(err, ragerr.KindEmpty) {
		t.Fatalf("expected empty for whitespace-only OCR output, got %v", err)
	}
}

func TestExtractImageOCRErrorIsCorrupt(t *testing.T) {
	ex := New(&fakeOCR{err: errors.New("unreadable image")})
	if _, err := ex.Extract([]byte("not an image"), FamilyImage); !ragerr.Is(err, ragerr.KindCorrupt) {
		t.Fatalf("expected corrupt for an OCR error, got %v", err)
	}
}

func TestExtractImageWithoutEngineIsUnsupported(t *testing.T) {
	ex := New(nil)
	if _, err := ex.Extract([]byte("png bytes"), FamilyImage); !ragerr.Is(err, ragerr.KindUnsupported) {
		t.Fatalf("expected unsupported with no OCR engine, got %v", err)
	}
}

func TestExtractDoesNotRetainInput(t *testing.T) {
	ex := New(nil)
	data := []byte("stable text")
	text, err := ex.Extract(data, FamilyPlain)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	for i := range data {
		data[i] = 'x'
	}
	if !strings.Contains(text, "stable") {
		t.Fatalf("extracted text aliased the caller's buffer: %q", text)
	}
}
