package osc

import "codeberg.org/mutker/lhmosc/internal/errors"

const (
	ErrSocket        = errors.ErrorCode("osc_socket_failed")
	ErrInvalidTarget = errors.ErrorCode("osc_invalid_target")
	ErrEncode        = errors.ErrorCode("osc_encode_failed")
)
