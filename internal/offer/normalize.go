package offer

import "strings"

// accentReplacer folds the accented characters the site actually emits;
// enough for Spanish hotel and room names, no need for full Unicode folding.
var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"ü", "u", "ñ", "n",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
)

// Normalize lowercases, strips accents and punctuation and collapses
// whitespace so that cosmetic differences between the two search variants
// never affect matching.
func Normalize(s string) string {
	s = accentReplacer.Replace(strings.ToLower(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
