package storage

import "time"

// Expiry is the deadline of every URL signed within one request. Backends
// that sign with an absolute timestamp use At; those that sign with a
// relative lifetime use TTL. Both describe the same instant.
type Expiry struct {
	Issued time.Time
	At     time.Time
	TTL    time.Duration
}

// NewExpiry computes the expiry for URLs issued at now that stay valid for
// the given number of days.
func NewExpiry(now time.Time, days int) Expiry {
	issued := now.UTC()
	ttl := time.Duration(days) * 24 * time.Hour
	return Expiry{
		Issued: issued,
		At:     issued.Add(ttl),
		TTL:    ttl,
	}
}

// Seconds returns the relative lifetime in whole seconds.
func (e Expiry) Seconds() int64 {
	return int64(e.TTL / time.Second)
}
