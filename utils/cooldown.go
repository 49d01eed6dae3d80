package utils

import (
	"context"
	"sync"
	"time"
)

var (
	cooldowns   = map[string]time.Time{}
	cooldownsMu sync.Mutex
)

// CooldownTrySet marks a key as cooling down for the given duration. Returns
// true when the key was free, false while a previous cooldown is active.
// Redis SETNX is preferred; memory is the fallback.
func CooldownTrySet(key string, cooldown time.Duration) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if ok, err := rc.SetNX(ctx, "cooldown:"+key, "1", cooldown).Result(); err == nil {
			return ok
		}
	}

	cooldownsMu.Lock()
	defer cooldownsMu.Unlock()
	if until, ok := cooldowns[key]; ok && time.Now().Before(until) {
		return false
	}
	cooldowns[key] = time.Now().Add(cooldown)
	return true
}
