package effects

import "time"

// Generator is a decoded, immutable mono sample buffer. A Generator may be
// shared; playback position lives in a Stream.
type Generator struct {
	path       string
	sampleRate int
	samples    []float32
}

// NewGenerator wraps already decoded samples in the range [-1, 1].
func NewGenerator(path string, sampleRate int, samples []float32) *Generator {
	return &Generator{path: path, sampleRate: sampleRate, samples: samples}
}

func (g *Generator) Path() string {
	return g.path
}

func (g *Generator) SampleRate() int {
	return g.sampleRate
}

// Len returns the number of samples.
func (g *Generator) Len() int {
	return len(g.samples)
}

func (g *Generator) Duration() time.Duration {
	if g.sampleRate == 0 {
		return 0
	}
	return time.Duration(len(g.samples)) * time.Second / time.Duration(g.sampleRate)
}

// Stream returns a new playback cursor positioned at the first sample.
func (g *Generator) Stream(loop bool) *Stream {
	return &Stream{g: g, loop: loop}
}

// Stream reads successive blocks of samples from a Generator.
type Stream struct {
	g    *Generator
	pos  int
	loop bool
}

// ReadBlock fills dst with the next samples and returns how many were
// written. A non-looping stream returns 0 once exhausted.
func (s *Stream) ReadBlock(dst []float32) int {
	n := 0
	for n < len(dst) {
		if s.pos >= len(s.g.samples) {
			if !s.loop || len(s.g.samples) == 0 {
				break
			}
			s.pos = 0
		}
		c := copy(dst[n:], s.g.samples[s.pos:])
		n += c
		s.pos += c
	}
	return n
}

// Done reports whether a non-looping stream has been fully read.
func (s *Stream) Done() bool {
	return !s.loop && s.pos >= len(s.g.samples)
}

func (s *Stream) Reset() {
	s.pos = 0
}

func (s *Stream) Generator() *Generator {
	return s.g
}
