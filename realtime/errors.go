package realtime

import "errors"

var (
	// ErrHeartbeatReply marks the literal pong frame. It is not a failure.
	ErrHeartbeatReply = errors.New("heartbeat reply")

	// ErrMalformedFrame is returned for frames that are neither pong nor a JSON object.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrIncompleteNotification is returned for JSON frames lacking type or title.
	ErrIncompleteNotification = errors.New("notification is missing type or title")

	// ErrNotConnected is returned when writing to a transport that is gone.
	ErrNotConnected = errors.New("realtime transport not connected")
)
