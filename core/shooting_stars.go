package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

type ShootingStarConfig struct {
	Cap            int
	SpawnThreshold float64 // a uniform draw must exceed this to spawn
	SpawnRadius    float64
	Jitter         float64 // half-width of the direction jitter box
	Speed          float64
	TrailLength    int
	TrailSpacing   float64
	RetireRadius   float64
	MaxLife        time.Duration
}

func DefaultShootingStarConfig(class DeviceClass) ShootingStarConfig {
	cfg := ShootingStarConfig{
		Cap:            6,
		SpawnThreshold: 0.985,
		SpawnRadius:    18,
		Jitter:         3,
		Speed:          12,
		TrailLength:    16,
		TrailSpacing:   0.12,
		RetireRadius:   2,
		MaxLife:        2500 * time.Millisecond,
	}
	if class == DeviceMobile {
		cfg.Cap = 4
		cfg.SpawnThreshold = 0.99
		cfg.Speed = 10
	}
	return cfg
}

type ShootingStar struct {
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Age       time.Duration

	trail []mgl32.Vec3 // ring; head is the newest slot
	head  int
}

// Trail appends the trail to dst, newest first.
func (s *ShootingStar) Trail(dst []mgl32.Vec3) []mgl32.Vec3 {
	n := len(s.trail)
	for k := 0; k < n; k++ {
		dst = append(dst, s.trail[(s.head-k+n)%n])
	}
	return dst
}

func (s *ShootingStar) TrailLen() int { return len(s.trail) }

func (s *ShootingStar) push(p mgl32.Vec3) {
	s.head = (s.head + 1) % len(s.trail)
	s.trail[s.head] = p
}

// ShootingStars is a bounded pool of streaks fired at the galaxy center.
type ShootingStars struct {
	cfg   ShootingStarConfig
	stars []*ShootingStar
	spare []*ShootingStar
}

func NewShootingStars(cfg ShootingStarConfig) *ShootingStars {
	if cfg.TrailLength < 1 {
		cfg.TrailLength = 1
	}
	return &ShootingStars{cfg: cfg, stars: make([]*ShootingStar, 0, max(cfg.Cap, 0))}
}

func (s *ShootingStars) Config() ShootingStarConfig { return s.cfg }

// Retune changes caps and speeds. When the cap drops below the live count
// the oldest stars are retired at once.
func (s *ShootingStars) Retune(cfg ShootingStarConfig) {
	cfg.TrailLength = s.cfg.TrailLength
	s.cfg = cfg
	for len(s.stars) > max(cfg.Cap, 0) {
		s.killAt(s.oldest())
	}
}

func (s *ShootingStars) oldest() int {
	idx := 0
	for i, star := range s.stars {
		if star.Age > s.stars[idx].Age {
			idx = i
		}
	}
	return idx
}

func (s *ShootingStars) Len() int { return len(s.stars) }

func (s *ShootingStars) Active() []*ShootingStar { return s.stars }

// TrySpawn draws once for the gate and, when it passes below the cap, five
// more for placement.
func (s *ShootingStars) TrySpawn(rng Rand) bool {
	if rng.Float64() <= s.cfg.SpawnThreshold || len(s.stars) >= s.cfg.Cap {
		return false
	}
	theta := rng.Float64() * 2 * math.Pi
	phi := math.Acos(2*rng.Float64() - 1)
	r := s.cfg.SpawnRadius
	origin := mgl32.Vec3{
		float32(r * math.Sin(phi) * math.Cos(theta)),
		float32(r * math.Cos(phi)),
		float32(r * math.Sin(phi) * math.Sin(theta)),
	}
	j := s.cfg.Jitter * 2
	aim := mgl32.Vec3{
		float32((rng.Float64() - 0.5) * j),
		float32((rng.Float64() - 0.5) * j),
		float32((rng.Float64() - 0.5) * j),
	}
	dir := origin.Mul(-1).Add(aim)
	if dir.Len() == 0 {
		dir = origin.Mul(-1)
	}
	dir = dir.Normalize()

	star := s.alloc()
	star.Position = origin
	star.Direction = dir
	star.Age = 0
	n := len(star.trail)
	// Pre-fill behind the head so the first frame already shows a streak.
	for k := 0; k < n; k++ {
		star.trail[(n-k)%n] = origin.Sub(dir.Mul(float32(float64(k) * s.cfg.TrailSpacing)))
	}
	star.head = 0
	s.stars = append(s.stars, star)
	return true
}

func (s *ShootingStars) alloc() *ShootingStar {
	if n := len(s.spare); n > 0 {
		star := s.spare[n-1]
		s.spare = s.spare[:n-1]
		if len(star.trail) == s.cfg.TrailLength {
			return star
		}
	}
	return &ShootingStar{trail: make([]mgl32.Vec3, s.cfg.TrailLength)}
}

// Tick advances every star once and retires, in the same pass, those that
// reached the core or outlived MaxLife. Returns the number retired.
func (s *ShootingStars) Tick(dt time.Duration) int {
	step := float32(s.cfg.Speed * dt.Seconds())
	retired := 0
	for i := len(s.stars) - 1; i >= 0; i-- {
		star := s.stars[i]
		star.Position = star.Position.Add(star.Direction.Mul(step))
		star.Age += dt
		star.push(star.Position)
		if float64(star.Position.Len()) < s.cfg.RetireRadius || star.Age >= s.cfg.MaxLife {
			s.killAt(i)
			retired++
		}
	}
	return retired
}

func (s *ShootingStars) killAt(i int) {
	last := len(s.stars) - 1
	s.spare = append(s.spare, s.stars[i])
	s.stars[i] = s.stars[last]
	s.stars[last] = nil
	s.stars = s.stars[:last]
}

func (s *ShootingStars) Reset() {
	for len(s.stars) > 0 {
		s.killAt(len(s.stars) - 1)
	}
}
