package cache

import (
	gocache "github.com/patrickmn/go-cache"
	"time"
)

var Store *gocache.Cache

// Init builds the process-wide store. Collaborator clients key into it to
// avoid re-calling external APIs for the same origin within one TTL window.
func Init(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	Store = gocache.New(ttl, 15*time.Minute)
}
