// Package roomlock serializes mutations of a single room.
package roomlock

import "context"

// Locker hands out exclusive locks keyed by room id.
// The returned unlock function is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
