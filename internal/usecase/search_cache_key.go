package usecase

import (
	"sort"
	"strings"

	"travel-search/internal/domain/search"
)

const paramDelimiter = "|"

// BuildSearchKey returns the canonical key for a search: parameters are
// sorted by name so insertion order never changes the key.
func BuildSearchKey(t search.Type, params search.Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+":"+params[name])
	}
	return "search:" + string(t) + ":" + strings.Join(pairs, paramDelimiter)
}

// LegacySearchKey is the positional form used by the combined search.
// It is only canonical for exactly these four optional fields.
func LegacySearchKey(t search.Type, from, to, city, date string) string {
	return "search:" + string(t) + ":" + from + ":" + to + ":" + city + ":" + date
}

func SearchItemKey(t search.Type, id string) string {
	return "search:" + string(t) + ":" + id
}

func CatalogItemKey(t search.Type, id string) string {
	return string(t) + ":" + id
}

const catalogListID = "all"

func CatalogListKey(t search.Type) string {
	return string(t) + ":" + catalogListID
}

func CatalogPattern(t search.Type) string {
	return string(t) + ":*"
}

// SearchPattern matches every search result entry.
const SearchPattern = "search:*"
