package extractor

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"github.com/spacevault/ragcore/internal/ragerr"
)

var (
	docxParagraphSplit = regexp.MustCompile(`</w:p>`)
	docxTextRun        = regexp.MustCompile(`<w:t[^>]*>(.*?)</w:t>`)
)

// extractDocx concatenates paragraph text in document order, one paragraph
// per line. nguyenthenguyen/docx exposes the raw document.xml via
// GetContent; paragraph and run boundaries are recovered with regexps since
// the library has no structured paragraph iterator.
func extractDocx(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ragerr.New("extractDocx", ragerr.KindCorrupt, err)
	}
	defer r.Close()

	content := r.Editable().GetContent()

	var b strings.Builder
	wrote := false
	for _, rawParagraph := range docxParagraphSplit.Split(content, -1) {
		runs := docxTextRun.FindAllStringSubmatch(rawParagraph, -1)
		if len(runs) == 0 {
			continue
		}
		var para strings.Builder
		for _, run := range runs {
			para.WriteString(run[1])
		}
		text := strings.TrimSpace(para.String())
		if text == "" {
			continue
		}
		if wrote {
			b.WriteString("\n")
		}
		b.WriteString(text)
		wrote = true
	}

	result := strings.TrimSpace(b.String())
	if result == "" {
		return "", ragerr.New("extractDocx", ragerr.KindEmpty, fmt.Errorf("no paragraph text found"))
	}
	return result, nil
}
