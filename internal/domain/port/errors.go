package port

import "errors"

// ErrLockHeld is returned by Locker when the lock is owned elsewhere.
var ErrLockHeld = errors.New("lock held by another process")
