package publish

import "errors"

var (
	// ErrDisabled is returned by the constructors when the sink is turned off in config.
	ErrDisabled = errors.New("publish: disabled in configuration")

	ErrConnectionFailed = errors.New("publish: connection failed")
	ErrNotConnected     = errors.New("publish: not connected")
	ErrPublishFailed    = errors.New("publish: publish failed")
)
