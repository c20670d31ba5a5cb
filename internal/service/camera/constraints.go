package camera

import "errors"

const unsupportedMessage = "This browser does not support video capture, or this device does not have a camera"

// ErrCaptureUnsupported is returned when no capture device can be opened.
var ErrCaptureUnsupported = errors.New(unsupportedMessage)

// FacingUser selects the camera pointing at the user.
const FacingUser = "user"

// Constraints describe the requested stream. Nil dimensions let the device choose.
type Constraints struct {
	Audio      bool
	FacingMode string
	Width      *int
	Height     *int
}

// NewConstraints caps both dimensions at maxSize unless running on a mobile device.
func NewConstraints(mobile bool, maxSize int) Constraints {
	c := Constraints{
		Audio:      false,
		FacingMode: FacingUser,
	}
	if !mobile {
		w, h := maxSize, maxSize
		c.Width = &w
		c.Height = &h
	}
	return c
}
