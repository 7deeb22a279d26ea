package core

import (
	"math"
	"strings"
)

type DeviceClass int

const (
	DeviceDesktop DeviceClass = iota
	DeviceMobile
)

func (c DeviceClass) String() string {
	if c == DeviceMobile {
		return "mobile"
	}
	return "desktop"
}

// DeviceClassifier decides the coarse device class of a host.
type DeviceClassifier func(width, height int, userAgent string) DeviceClass

// ByViewportWidth classifies anything at most maxMobileWidth wide as mobile.
func ByViewportWidth(maxMobileWidth int) DeviceClassifier {
	return func(width, height int, userAgent string) DeviceClass {
		if width <= maxMobileWidth {
			return DeviceMobile
		}
		return DeviceDesktop
	}
}

var mobileAgentTokens = []string{"Mobi", "Android", "iPhone", "iPad", "iPod"}

// ByUserAgent classifies on user-agent tokens, ignoring the viewport.
func ByUserAgent() DeviceClassifier {
	return func(width, height int, userAgent string) DeviceClass {
		for _, tok := range mobileAgentTokens {
			if strings.Contains(userAgent, tok) {
				return DeviceMobile
			}
		}
		return DeviceDesktop
	}
}

// ForceClass always returns class.
func ForceClass(class DeviceClass) DeviceClassifier {
	return func(int, int, string) DeviceClass { return class }
}

const DefaultMobileWidth = 768

type Viewport struct {
	Width      int
	Height     int
	PixelRatio float64
	Class      DeviceClass
}

// NewViewport builds a viewport and caps the pixel ratio per device class
// (1.5 on mobile, 2 on desktop).
func NewViewport(width, height int, pixelRatio float64, userAgent string, classify DeviceClassifier) Viewport {
	if classify == nil {
		classify = ByViewportWidth(DefaultMobileWidth)
	}
	class := classify(width, height, userAgent)
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) {
		pixelRatio = 1
	}
	maxRatio := 2.0
	if class == DeviceMobile {
		maxRatio = 1.5
	}
	return Viewport{
		Width:      width,
		Height:     height,
		PixelRatio: math.Min(pixelRatio, maxRatio),
		Class:      class,
	}
}

func (v Viewport) IsMobile() bool { return v.Class == DeviceMobile }

func (v Viewport) Aspect() float32 {
	if v.Height <= 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

const (
	MinParticles = 40000
	MaxParticles = 120000
)

// ParticleCount scales the galaxy with the container area, one particle per
// eight square pixels, bounded to [MinParticles, MaxParticles]. Mobile gets 60%.
func (v Viewport) ParticleCount() int {
	count := (v.Width * v.Height) / 8
	count = clampInt(count, MinParticles, MaxParticles)
	if v.IsMobile() {
		count = int(float64(count) * 0.6)
	}
	return clampInt(count, MinParticles, MaxParticles)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
