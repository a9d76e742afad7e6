package config

import "time"

// LockConfig controls the Redis per-house lock taken before admission
// and status changes.  TTL bounds how long a crashed holder blocks the
// house; Wait bounds how long a request queues for it.
type LockConfig struct {
	Enabled    bool
	TTL        time.Duration
	Wait       time.Duration
	RetryEvery time.Duration
	Prefix     string
}

func LoadLockConfig() LockConfig {
	cfg := LockConfig{
		Enabled:    envBool("LOCK_ENABLED", true),
		TTL:        envDur("LOCK_TTL", 10*time.Second),
		Wait:       envDur("LOCK_WAIT", 3*time.Second),
		RetryEvery: envDur("LOCK_RETRY_EVERY", 50*time.Millisecond),
		Prefix:     envStr("LOCK_PREFIX", "lock"),
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = 50 * time.Millisecond
	}
	return cfg
}
