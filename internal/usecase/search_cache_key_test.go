package usecase

import (
	"testing"

	"travel-search/internal/domain/search"

	"github.com/stretchr/testify/assert"
)

func TestBuildSearchKey_OrderIndependent(t *testing.T) {
	p1 := search.Params{}
	p1["to"] = "mumbai"
	p1["from"] = "delhi"
	p1["date"] = "2025-12-01"
	p1["adults"] = "2"

	p2 := search.Params{}
	p2["adults"] = "2"
	p2["date"] = "2025-12-01"
	p2["from"] = "delhi"
	p2["to"] = "mumbai"

	assert.Equal(t, BuildSearchKey(search.TypeFlights, p1), BuildSearchKey(search.TypeFlights, p2))
	assert.Equal(t, "search:flights:adults:2|date:2025-12-01|from:delhi|to:mumbai", BuildSearchKey(search.TypeFlights, p1))
}

func TestBuildSearchKey_AbsentFieldsOmitted(t *testing.T) {
	assert.Equal(t, "search:hotels:city:goa", BuildSearchKey(search.TypeHotels, search.Params{"city": "goa"}))
	assert.Equal(t, "search:buses:", BuildSearchKey(search.TypeBuses, nil))
}

func TestBuildSearchKey_TypeScoped(t *testing.T) {
	p := search.Params{"from": "a", "to": "b"}
	assert.NotEqual(t, BuildSearchKey(search.TypeFlights, p), BuildSearchKey(search.TypeBuses, p))
}

func TestLegacySearchKey(t *testing.T) {
	assert.Equal(t, "search:flights:delhi:mumbai::2025-12-01", LegacySearchKey(search.TypeFlights, "delhi", "mumbai", "", "2025-12-01"))
	assert.Equal(t, "search:all::::", LegacySearchKey(search.TypeAll, "", "", "", ""))
}

func TestCatalogKeys(t *testing.T) {
	assert.Equal(t, "hotels:H1", CatalogItemKey(search.TypeHotels, "H1"))
	assert.Equal(t, "hotels:all", CatalogListKey(search.TypeHotels))
	assert.Equal(t, "hotels:*", CatalogPattern(search.TypeHotels))
	assert.Equal(t, "search:hotels:H1", SearchItemKey(search.TypeHotels, "H1"))
}
