package redisx

import "time"

const (
	// idem:order:create:{Idempotency-Key} -> order code
	KeyIdemOrderCreate = "idem:order:create:%s"

	// user_profile:{user id} -> JSON of the user with orders and stats
	KeyUserProfile = "user_profile:%d"

	// user_profile_ver:{user id} -> generation, bumped on every invalidation
	KeyUserProfileVer = "user_profile_ver:%d"

	// profile generation shared by all users, bumped on book changes
	KeyCatalogVer = "user_profile_ver:catalog"

	// dedup:{service}:{event id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLProfile     = 5 * time.Minute
	TTLDedup       = 48 * time.Hour

	// floor for generation keys; they always outlive the entries they guard
	TTLProfileVersion = 24 * time.Hour
)
