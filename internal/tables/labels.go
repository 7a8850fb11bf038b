package tables

import (
	"strings"

	"restaurant-pos/internal/models"
)

// labelPrefixes are stripped from the front of a normalized label so
// "Table No. 5", "bàn 5" and "#5" all resolve against a roster entry "5".
// Longest prefixes are listed first.
var labelPrefixes = []string{
	"table number",
	"table no",
	"table",
	"tbl",
	"ban so",
	"ban",
}

// NormalizeLabel folds a table label into its canonical lookup key:
// case, diacritics and whitespace insensitive, with common "table"
// prefixes and punctuation removed
func NormalizeLabel(raw string) string {
	s := models.NormalizeKey(raw)
	s = strings.NewReplacer("#", " ", ".", " ").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(s, prefix+" ") {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix+" "))
			break
		}
	}

	return s
}

// SameLabel reports whether two labels resolve to the same table key
func SameLabel(a, b string) bool {
	return NormalizeLabel(a) != "" && NormalizeLabel(a) == NormalizeLabel(b)
}
