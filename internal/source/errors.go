package source

import "errors"

// ErrReaderClosed is returned by a CachedReader after Close.
var ErrReaderClosed = errors.New("source reader is closed")
