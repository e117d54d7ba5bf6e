package sheets

import (
	"fmt"
	"strings"
)

// cellReplacer turns hyperlink markup exported by Sheets into plain "url label"
// text and folds every line-break variant into "\n". Order matters: "\r\n" must
// be replaced before the lone "\r".
var cellReplacer = strings.NewReplacer(
	`<a href="`, "",
	`">`, " ",
	"</a>", "",
	"&nbsp;", " ",
	"\r\n", "\n",
	"\r", "\n",
)

// NormalizeCell strips anchor markup and &nbsp; entities from a cell and
// normalizes line breaks. Surrounding whitespace is kept.
func NormalizeCell(value string) string {
	return cellReplacer.Replace(value)
}

// IsTrue reports whether a checkbox cell is ticked. Only a case-insensitive
// "TRUE" counts; the value is not trimmed.
func IsTrue(value string) bool {
	return strings.EqualFold(value, "TRUE")
}

// FetchError is returned when the Sheets API answers with a non-success status.
type FetchError struct {
	Range      string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("sheet fetch %s failed with status %d: %s", e.Range, e.StatusCode, e.Body)
}
