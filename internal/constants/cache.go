package constants

import "time"

// CacheBuilder joins prefix and key with a colon.
const (
	UserCachePrefix        = "user"
	UserAuthCachePrefix    = "user_auth"
	UserCacheExpiry        = 7 * 24 * time.Hour
	FranchiseeCachePrefix  = "franchisee"
	FranchiseeCacheExpiry  = 24 * time.Hour
	TechnicianRosterPrefix = "technicians"
	TechnicianRosterExpiry = 12 * time.Hour
	SessionCachePrefix     = "session"
	SessionCacheExpiry     = 5 * time.Minute
	GeocodeCachePrefix     = "geocode"
	GeocodeCacheExpiry     = 30 * 24 * time.Hour
)
