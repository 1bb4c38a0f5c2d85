// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginProtection rate-limits login attempts per client IP so the frontend
// does not become a free credential-stuffing proxy against the backend.
type LoginProtection struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter

	rate  rate.Limit
	burst int
	ttl   time.Duration
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is login attempts per second per IP.
	IPRateLimit float64
	// IPBurst is the maximum burst size per IP.
	IPBurst int
}

// DefaultLoginProtectionConfig returns sensible defaults: one attempt per
// two seconds with a burst of five.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit: 0.5,
		IPBurst:     5,
	}
}

// NewLoginProtection creates a login protection instance and starts its
// cleanup goroutine.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}

	lp := &LoginProtection{
		limiters: make(map[string]*ipLimiter),
		rate:     rate.Limit(cfg.IPRateLimit),
		burst:    cfg.IPBurst,
		ttl:      time.Hour,
	}

	go lp.cleanup()

	return lp
}

// Allow reports whether a login attempt from the given IP may proceed.
func (lp *LoginProtection) Allow(ip string) bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	entry, ok := lp.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(lp.rate, lp.burst)}
		lp.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

func (lp *LoginProtection) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-lp.ttl)
		lp.mu.Lock()
		for ip, entry := range lp.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(lp.limiters, ip)
			}
		}
		lp.mu.Unlock()
	}
}
