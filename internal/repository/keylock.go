package repository

import (
	"github.com/moby/locker"

	"github.com/ebfarnell/podcastflow-pro-sub012/internal/domain"
)

// KeyLocker serializes writers per (tenant, entity, day) key while leaving
// different keys fully independent
type KeyLocker struct {
	names *locker.Locker
}

// NewKeyLocker creates an empty key locker
func NewKeyLocker() *KeyLocker {
	return &KeyLocker{names: locker.New()}
}

// LockKey blocks until the caller owns key and returns the release func
func (l *KeyLocker) LockKey(key domain.MetricKey) func() {
	name := key.String()
	l.names.Lock(name)
	return func() {
		_ = l.names.Unlock(name)
	}
}
