package board

import "strings"

// ItemMatches reports whether a dropped item satisfies a tile item.
// Names are compared case-insensitively and either may contain the other,
// so "Dragon pickaxe" matches a tile listing "dragon pickaxe (or)" and vice versa.
func ItemMatches(tileItem, dropped string) bool {
	a := normalize(tileItem)
	b := normalize(dropped)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func matchesAny(items []string, dropped string) bool {
	for _, it := range items {
		if ItemMatches(it, dropped) {
			return true
		}
	}
	return false
}

// matchRequired returns the required item the drop counts towards.
// An exact match wins over a substring match.
func matchRequired(required []string, dropped string) (string, bool) {
	target := normalize(dropped)
	for _, req := range required {
		if normalize(req) == target {
			return req, true
		}
	}
	for _, req := range required {
		if ItemMatches(req, dropped) {
			return req, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
