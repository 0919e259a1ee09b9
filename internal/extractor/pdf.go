package extractor

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// extractPDF extracts text page by page and joins pages with single
// newlines: stage the bytes to a temp file (pdfcpu's API is
// file-oriented), read the page count, dump per-page content to a scratch
// directory, and stitch the results back together in page order.
func extractPDF(data []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "ragcore-pdf-*.pdf")
	if err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindInternal, err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return "", ragerr.New("extractPDF", ragerr.KindInternal, err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindInternal, err)
	}

	pdfCtx, err := api.ReadContextFile(tmpPath)
	if err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindCorrupt, err)
	}
	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return "", ragerr.New("extractPDF", ragerr.KindEmpty, fmt.Errorf("document has no pages"))
	}

	outDir, err := os.MkdirTemp("", "ragcore-pdf-pages-*")
	if err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindInternal, err)
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tmpPath, outDir, nil, nil); err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindCorrupt, err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", ragerr.New("extractPDF", ragerr.KindInternal, err)
	}

	pageText := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		n, ok := pageNumberFromName(entry.Name())
		if !ok {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(outDir, entry.Name()))
		if err != nil {
			continue
		}
		pageText[n] = string(raw)
	}

	pages := make([]int, 0, len(pageText))
	for n := range pageText {
		pages = append(pages, n)
	}
	sort.Ints(pages)

	var b strings.Builder
	wrote := false
	for _, n := range pages {
		text := strings.TrimSpace(pageText[n])
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
		return "", ragerr.New("extractPDF", ragerr.KindEmpty, fmt.Errorf("every page yielded empty text"))
	}
	return result, nil
}

// pageNumberFromName parses pdfcpu's extracted content filenames, which are
// of the form "contentN.txt" or "pageN.txt" depending on version.
func pageNumberFromName(name string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	for _, prefix := range []string{"content", "page", "Content_page_"} {
		if strings.HasPrefix(base, prefix) {
			if n, err := strconv.Atoi(strings.TrimPrefix(base, prefix)); err == nil {
				return n, true
			}
		}
	}
	digits := bytes.TrimLeft([]byte(base), "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_-")
	if n, err := strconv.Atoi(string(digits)); err == nil {
		return n, true
	}
	return 0, false
}
