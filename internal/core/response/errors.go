package response

import "errors"

// ErrDeviceRead ends the capture thread of the device that failed.
var ErrDeviceRead = errors.New("device read failed")

// ErrShutdownTimeout reports capture threads abandoned during StopCapture.
var ErrShutdownTimeout = errors.New("capture thread did not exit in time")
