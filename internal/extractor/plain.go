package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spacevault/ragcore/internal/ragerr"
)

// extractPlain decodes data as UTF-8 verbatim. A decode failure is corrupt,
// not unsupported: the family was declared plain by the caller.
func extractPlain(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", ragerr.New("extractPlain", ragerr.KindCorrupt, fmt.Errorf("invalid UTF-8"))
	}
	return strings.TrimSpace(string(data)), nil
}
