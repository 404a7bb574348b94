// Package stub provides a scripted randomness source for deterministic tests.
package stub

// Source replays pre-scripted draws in consumption order. When a script is
// exhausted it returns neutral values: 0 for normal draws (return equals the
// regime mean) and 1 for uniform draws (job never lost).
type Source struct {
	Norms    []float64
	Uniforms []float64

	normIdx    int
	uniformIdx int
}

// NormFloat64 returns the next scripted normal draw.
func (s *Source) NormFloat64() float64 {
	if s.normIdx >= len(s.Norms) {
		return 0
	}
	v := s.Norms[s.normIdx]
	s.normIdx++
	return v
}

// Float64 returns the next scripted uniform draw.
func (s *Source) Float64() float64 {
	if s.uniformIdx >= len(s.Uniforms) {
		return 1
	}
	v := s.Uniforms[s.uniformIdx]
	s.uniformIdx++
	return v
}
