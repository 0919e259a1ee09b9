package ingest

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/spacevault/ragcore/internal/extractor"
)

// classify sniffs data's actual content type rather than trusting the
// caller's declaredMIME string outright: dispatch is driven by what the
// bytes actually are. The extension used for on-disk storage comes from
// the sniffed type too, falling back to one derived from declaredMIME when
// sniffing can't offer one.
func classify(data []byte, declaredMIME string) (extractor.Family, string) {
	mt := mimetype.Detect(data)

	switch {
	case mt.Is("text/plain"):
		return extractor.FamilyPlain, ".txt"
	case mt.Is("application/pdf"):
		return extractor.FamilyPDF, ".pdf"
	case mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return extractor.FamilyDocx, ".docx"
	case strings.HasPrefix(mt.String(), "image/"):
		ext := mt.Extension()
		if ext == "" {
			ext = ".img"
		}
		return extractor.FamilyImage, ext
	default:
		return familyFromDeclared(declaredMIME), extensionFromDeclared(declaredMIME)
	}
}

// familyFromDeclared is the fallback for content the sniffer can't
// recognize by magic bytes, trusting the caller-declared MIME type instead
// of giving up immediately as unsupported.
func familyFromDeclared(declaredMIME string) extractor.Family {
	switch {
	case declaredMIME == "text/plain":
		return extractor.FamilyPlain
	case declaredMIME == "application/pdf":
		return extractor.FamilyPDF
	case strings.Contains(declaredMIME, "wordprocessingml"):
		return extractor.FamilyDocx
	case strings.HasPrefix(declaredMIME, "image/"):
		return extractor.FamilyImage
	default:
		return extractor.FamilyUnknown
	}
}

func extensionFromDeclared(declaredMIME string) string {
	switch {
	case declaredMIME == "application/pdf":
		return ".pdf"
	case strings.Contains(declaredMIME, "wordprocessingml"):
		return ".docx"
	case strings.HasPrefix(declaredMIME, "image/"):
		return "." + strings.TrimPrefix(declaredMIME, "image/")
	default:
		return ".bin"
	}
}
