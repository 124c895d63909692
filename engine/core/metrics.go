package core

import "math"

const AVG_COUNT uint8 = 30

// FPSWindow is the accumulation window, in milliseconds, after which the
// frame counter is published as the FPS value.
const FPSWindow float64 = 1000

// Metrics tracks the frame rate and a rolling frame time average. It is
// owned by a single frame loop and is not safe for concurrent use.
type Metrics struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		MStimes: [AVG_COUNT]float64{0},
	}
}

// Update records one frame that took frameMS milliseconds.
func (m *Metrics) Update(frameMS float64) {
	// Calculate frame ms average
	m.MStimes[m.FrameAVGCounter] = frameMS
	if m.FrameAVGCounter == AVG_COUNT-1 {
		m.MSavg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.MSavg += m.MStimes[i]
		}
		m.MSavg /= float64(AVG_COUNT)
	}
	m.FrameAVGCounter++
	m.FrameAVGCounter %= AVG_COUNT

	// Count the frame first so a window closing on this frame includes it.
	m.AccumulatedFrameMS += frameMS
	m.Frames++
	if m.AccumulatedFrameMS >= FPSWindow && m.Frames > 0 {
		m.FPS = float64(m.Frames)
		m.Frames = 0
	}
	// Keep the overshoot for the next window.
	m.AccumulatedFrameMS = math.Mod(m.AccumulatedFrameMS, FPSWindow)
}

func (m *Metrics) Reset() {
	*m = Metrics{}
}

func (m *Metrics) FramesPerSecond() float64 {
	return m.FPS
}

func (m *Metrics) FrameTime() float64 {
	return m.MSavg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.FPS, m.MSavg
}
