package core

// Stats tracks frame counts and a smoothed frames-per-second figure
type Stats struct {
	Frames    uint64
	FPS       float64
	LastDelta float64

	// Window is the averaging period in seconds
	Window float64

	acc   float64
	count int
}

func NewStats() *Stats {
	return &Stats{Window: 0.5}
}

// Update records one frame that advanced time by dt
func (s *Stats) Update(dt float64) {
	s.Frames++
	s.LastDelta = dt
	s.acc += dt
	s.count++
	if s.acc >= s.Window && s.acc > 0 {
		s.FPS = float64(s.count) / s.acc
		s.acc = 0
		s.count = 0
	}
}
