package auditor

import (
	"regexp"
	"strings"
)

// The name patterns below are English and approximate. They flag columns worth a look,
// nothing more.

var arraySuffix = regexp.MustCompile(`\[\d*\]$`)

// isArrayType reports PostgreSQL array syntax: "TEXT[]", "INT[3]", "INTEGER ARRAY" or an
// internal array type name such as "_TEXT".
func isArrayType(typ string) bool {
	t := strings.ToUpper(strings.TrimSpace(typ))
	return arraySuffix.MatchString(t) ||
		strings.Contains(t, " ARRAY") ||
		strings.HasPrefix(t, "_")
}

func isJSONType(typ string) bool {
	t := strings.ToUpper(strings.TrimSpace(typ))
	return t == "JSON" || t == "JSONB"
}

// nameParts splits a column name on underscores.
func nameParts(name string) []string {
	return strings.Split(strings.ToLower(name), "_")
}

// hasStem reports whether stem occurs in name aligned on underscores.
func hasStem(name, stem string) bool {
	name, stem = strings.ToLower(name), strings.ToLower(stem)
	if stem == "" {
		return false
	}
	return name == stem ||
		strings.HasPrefix(name, stem+"_") ||
		strings.HasSuffix(name, "_"+stem) ||
		strings.Contains(name, "_"+stem+"_")
}

// trimSuffixes strips the first matching suffix. ok is false when none matched.
func trimSuffixes(name string, suffixes []string) (stem string, ok bool) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) && len(lower) > len(s) {
			return lower[:len(lower)-len(s)], true
		}
	}
	return lower, false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
