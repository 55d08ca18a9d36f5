package source

import "codeberg.org/mutker/lhmosc/internal/errors"

// ErrUnavailable covers every way a fetch can fail: refused connection,
// timeout, non-2xx status and malformed body are not told apart.
const ErrUnavailable = errors.ErrorCode("source_unavailable")
