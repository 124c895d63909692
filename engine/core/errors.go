package core

import (
	"errors"
)

var (
	ErrDuplicateResource  = errors.New("resource already exists")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrResourceLoad       = errors.New("resource failed to load")
	ErrUnsupportedType    = errors.New("unsupported resource content")
	ErrNotInitialized     = errors.New("application not initialized")
	ErrContextUnavailable = errors.New("drawing context unavailable")
	ErrUnknownConfigKey   = errors.New("unknown configuration key")
	ErrUnknown            = errors.New("unknown")
)
