package parse

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// maxNameTokens bounds how many trailing words of a captured phrase are
// tried as a month name ("rabi al awwal" is three).
const maxNameTokens = 4

// hijriMonths maps folded, hyphen-joined spellings to month numbers.
var hijriMonths = map[string]int{
	"muharram":    1,
	"al-muharram": 1,

	"safar":    2,
	"saffar":   2,
	"al-safar": 2,

	"rabi-al-awwal": 3,
	"rabi-al-awal":  3,
	"rabi-al-ula":   3,
	"rabi-ul-awwal": 3,
	"rabi-ul-awal":  3,
	"rabi-i":        3,

	"rabi-al-thani": 4,
	"rabi-al-akhir": 4,
	"rabi-al-ukhra": 4,
	"rabi-al-sani":  4,
	"rabi-ul-thani": 4,
	"rabi-ul-akhir": 4,
	"rabi-us-sani":  4,
	"rabi-ii":       4,

	"jumada-al-ula":   5,
	"jumada-al-awwal": 5,
	"jumada-al-oola":  5,
	"jumada-ul-ula":   5,
	"jumada-ul-awwal": 5,
	"jumada-i":        5,

	"jumada-al-ukhra":   6,
	"jumada-al-akhira":  6,
	"jumada-al-akhirah": 6,
	"jumada-al-thani":   6,
	"jumada-al-thaniya": 6,
	"jumada-ul-ukhra":   6,
	"jumada-ul-akhira":  6,
	"jumada-ii":         6,

	"rajab": 7,

	"shaban":  8,
	"shaaban": 8,

	"ramadan":  9,
	"ramadhan": 9,
	"ramazan":  9,

	"shawwal": 10,
	"shawal":  10,

	"dhul-qidah":   11,
	"dhul-qadah":   11,
	"dhul-qada":    11,
	"dhu-al-qidah": 11,
	"dhu-al-qadah": 11,
	"dhu-l-qidah":  11,
	"dhu-l-qadah":  11,
	"zul-qidah":    11,
	"zul-qadah":    11,

	"dhul-hijjah":   12,
	"dhul-hijja":    12,
	"dhu-al-hijjah": 12,
	"dhu-al-hijja":  12,
	"dhu-l-hijjah":  12,
	"dhu-l-hijja":   12,
	"zul-hijjah":    12,
	"zul-hijja":     12,
}

// apostrophes are dropped rather than treated as separators so that
// "Sha'ban" folds to "shaban" and "Dhu'l-Hijjah" to "dhul-hijjah".
var apostrophes = strings.NewReplacer(
	"'", "",
	"`", "",
	"\u00b4", "",
	"\u2018", "",
	"\u2019", "",
	"\u02bc", "",
	"\u02be", "",
	"\u02bf", "",
	".", "",
)

// MonthNumber resolves a Hijri month name, in any of the known
// transliterations, to its number 1-12.
func MonthNumber(name string) (int, bool) {
	n, ok := hijriMonths[monthKey(name)]
	return n, ok
}

// monthFromPhrase resolves the longest trailing run of words in phrase
// that names a Hijri month. Regex captures cannot tell where a month name
// starts, so they grab a few words of leading context.
func monthFromPhrase(phrase string) (int, bool) {
	tokens := monthTokens(phrase)
	for i := max(0, len(tokens)-maxNameTokens); i < len(tokens); i++ {
		if n, ok := hijriMonths[strings.Join(tokens[i:], "-")]; ok {
			return n, true
		}
	}
	return 0, false
}

func monthKey(name string) string {
	return strings.Join(monthTokens(name), "-")
}

func monthTokens(name string) []string {
	key := apostrophes.Replace(strings.ToLower(foldDiacritics(name)))
	return strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// foldDiacritics strips combining marks and folds full-width forms.
// The transformer chain is stateful, so one is built per call.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), width.Fold, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
