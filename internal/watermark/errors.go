package watermark

import "errors"

var (
	// ErrInvalidImage marks an unreadable, corrupt or zero-sized source.
	ErrInvalidImage = errors.New("invalid image")
	// ErrComposition marks an unexpected failure while blending or rotating.
	ErrComposition = errors.New("composition failed")
)
