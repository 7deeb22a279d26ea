package core

import "time"

const (
	DefaultPulseDuration = 600 * time.Millisecond
	DefaultPulseStrength = 0.6
)

// Pulses tracks transient brightness/size boosts. Each pulse decays linearly
// over Duration and the live ones add up.
type Pulses struct {
	Duration time.Duration
	Strength float64

	ages []time.Duration
}

func NewPulses(duration time.Duration, strength float64) *Pulses {
	if duration <= 0 {
		duration = DefaultPulseDuration
	}
	return &Pulses{Duration: duration, Strength: strength}
}

func (p *Pulses) Emit() {
	p.ages = append(p.ages, 0)
}

func (p *Pulses) Tick(dt time.Duration) {
	live := p.ages[:0]
	for _, age := range p.ages {
		age += dt
		if age < p.Duration {
			live = append(live, age)
		}
	}
	p.ages = live
}

func (p *Pulses) Influence() float64 {
	var sum float64
	for _, age := range p.ages {
		sum += p.Strength * (1 - float64(age)/float64(p.Duration))
	}
	return sum
}

func (p *Pulses) Len() int { return len(p.ages) }

func (p *Pulses) Reset() { p.ages = p.ages[:0] }
