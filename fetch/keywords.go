package fetch

// fallbacksByCategory maps a catalog category to generic search keywords
// used when an item carries no fallback group of its own and its primary
// keywords came up short.
var fallbacksByCategory = map[string][]string{
	"household_spirits":  {"russian cottage", "traditional interior", "mystical home"},
	"mythical_creatures": {"fantasy creature", "mythology", "magical being"},
	"superstitions":      {"mysterious ritual", "folk tradition", "ancient custom"},
	"rituals_traditions": {"russian tradition", "cultural celebration", "folk festival"},
	"curses_omens":       {"mystical symbols", "dark magic", "supernatural signs"},
	"folk_heroes":        {"heroic warrior", "legendary figure", "epic battle"},
}

// FallbackKeywords returns a category-derived keyword group
func FallbackKeywords(category string) []string {
	if kw, ok := fallbacksByCategory[category]; ok {
		return kw
	}
	return []string{"russian folklore", "slavic mythology"}
}
