package datasource

import "strings"

var irregularSingulars = map[string]string{
	"people":   "person",
	"children": "child",
	"men":      "man",
	"women":    "woman",
	"mice":     "mouse",
	"geese":    "goose",
	"feet":     "foot",
	"teeth":    "tooth",
	"oxen":     "ox",
	"indices":  "index",
	"vertices": "vertex",
	"criteria": "criterion",
	"analyses": "analysis",
	// uncountable
	"series":      "series",
	"species":     "species",
	"news":        "news",
	"sheep":       "sheep",
	"fish":        "fish",
	"deer":        "deer",
	"equipment":   "equipment",
	"information": "information",
}

var sibilantPlurals = []string{"sses", "xes", "zes", "ches", "shes"}

// Singularize returns the singular form of a schema name such as "articles".
// The irregular table is consulted first, then the -ies, sibilant -es and -s
// suffix rules. Words that match no rule are returned unchanged.
func Singularize(word string) string {
	if word == "" {
		return word
	}
	lower := strings.ToLower(word)
	if singular, ok := irregularSingulars[lower]; ok {
		if lower == word {
			return singular
		}
		return word[:1] + singular[1:]
	}

	switch {
	case strings.HasSuffix(lower, "ies") && len(word) > 3:
		return word[:len(word)-3] + "y"
	case hasAnySuffix(lower, sibilantPlurals):
		return word[:len(word)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return word
	case strings.HasSuffix(lower, "s") && len(word) > 1:
		return word[:len(word)-1]
	}
	return word
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
