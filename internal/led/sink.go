package led

import "sync"

// Sink is the output end of the render pipeline: anything that can take an
// ordered sequence of pixel colors and make it visible. The physical strip
// driver, the terminal visualizer and the test capture all satisfy it.
type Sink interface {
	// Show displays the frame. It must not retain the slice.
	Show(frame Frame) error
}

// CaptureSink records every frame it is shown. Test helper.
type CaptureSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (s *CaptureSink) Show(frame Frame) error {
	cp := make(Frame, len(frame))
	copy(cp, frame)
	s.mu.Lock()
	s.frames = append(s.frames, cp)
	s.mu.Unlock()
	return nil
}

// Frames returns a copy of everything shown so far.
func (s *CaptureSink) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// Last returns the most recent frame, or nil if nothing was shown yet.
func (s *CaptureSink) Last() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// DiscardSink drops every frame. Used for headless runs where only the log
// output matters.
type DiscardSink struct{}

func (DiscardSink) Show(Frame) error { return nil }
