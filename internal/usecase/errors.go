package usecase

import "errors"

// ErrRoomUnavailable is the capacity-conflict outcome: another booking took
// the last spot between the caller's read and the atomic decrement. It is
// the one error callers branch on programmatically (retry another room or
// surface "sold out"); everything else propagates as an opaque operational
// error.
var ErrRoomUnavailable = errors.New("room capacity unavailable")
