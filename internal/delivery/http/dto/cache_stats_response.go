package dto

import "travel-search/internal/usecase"

type CacheEntryResponse struct {
	Key        string `json:"key"`
	TTLSeconds int64  `json:"ttlSeconds"`
	SizeBytes  int64  `json:"sizeBytes"`
}

type CacheStatsResponse struct {
	TotalKeys int                  `json:"totalKeys"`
	ByPrefix  map[string]int       `json:"byPrefix"`
	Keys      []CacheEntryResponse `json:"keys"`
}

// NewCacheStatsResponse reports TTLs in whole seconds; -1 means no expiry.
func NewCacheStatsResponse(s usecase.CacheStats) CacheStatsResponse {
	keys := make([]CacheEntryResponse, 0, len(s.Entries))
	for _, e := range s.Entries {
		ttl := int64(-1)
		if e.TTL >= 0 {
			ttl = int64(e.TTL.Seconds())
		}
		keys = append(keys, CacheEntryResponse{Key: e.Key, TTLSeconds: ttl, SizeBytes: e.Size})
	}
	byPrefix := s.ByPrefix
	if byPrefix == nil {
		byPrefix = map[string]int{}
	}
	return CacheStatsResponse{TotalKeys: s.TotalKeys, ByPrefix: byPrefix, Keys: keys}
}
