package core

// TiltSource reports device orientation rates. gamma is the left/right
// rate and beta the forward/back rate, both normalized to [-1, 1].
type TiltSource interface {
	// RequestPermission asks the host once for access to the sensor.
	RequestPermission() bool
	Read() (gamma, beta float64, ok bool)
}

type TiltPermission int

const (
	TiltUnrequested TiltPermission = iota
	TiltGranted
	TiltDenied
	TiltUnavailable
)

func (t TiltPermission) String() string {
	switch t {
	case TiltGranted:
		return "granted"
	case TiltDenied:
		return "denied"
	case TiltUnavailable:
		return "unavailable"
	default:
		return "unrequested"
	}
}
