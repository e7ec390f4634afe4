package audio

import (
	"math"
	"time"

	"voice-assistant/internal/domain"
)

const (
	// dynamicEnergyRatio scales the measured ambient energy into a speech threshold.
	dynamicEnergyRatio = 1.5
	defaultPreRoll     = 500 * time.Millisecond
)

// RMS is the root-mean-square energy of a frame of PCM-16 samples.
func RMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// AmbientThreshold derives the speech energy threshold from frames of
// background noise. It never returns less than minimum.
func AmbientThreshold(frames [][]int16, minimum float64) float64 {
	if len(frames) == 0 {
		return minimum
	}
	var total float64
	for _, f := range frames {
		total += RMS(f)
	}
	threshold := total / float64(len(frames)) * dynamicEnergyRatio
	return math.Max(threshold, minimum)
}

type DetectorConfig struct {
	SampleRate int
	Threshold  float64
	// Timeout is how long to wait for speech to start. Zero waits forever.
	Timeout time.Duration
	// PhraseLimit caps the recorded phrase. Zero means no cap.
	PhraseLimit time.Duration
	// PauseThreshold is the run of silence that ends a phrase.
	PauseThreshold time.Duration
	// PreRoll is how much audio before the first loud frame is kept.
	PreRoll time.Duration
}

// PhraseDetector segments a stream of frames into one spoken phrase. Time is
// measured in samples so results do not depend on read latency.
type PhraseDetector struct {
	cfg DetectorConfig

	started  bool
	waited   int
	recorded int
	silence  int
	preRoll  [][]int16
	preLen   int
	samples  []int16
}

func NewPhraseDetector(cfg DetectorConfig) *PhraseDetector {
	if cfg.PreRoll == 0 {
		cfg.PreRoll = defaultPreRoll
	}
	return &PhraseDetector{cfg: cfg}
}

// Feed consumes one frame. It returns true once the phrase is complete and
// domain.ErrCaptureTimeout if speech never started within the timeout.
func (d *PhraseDetector) Feed(frame []int16) (bool, error) {
	loud := RMS(frame) > d.cfg.Threshold

	if !d.started {
		if !loud {
			d.waited += len(frame)
			if d.cfg.Timeout > 0 && d.waited >= d.samplesFor(d.cfg.Timeout) {
				return false, domain.ErrCaptureTimeout
			}
			d.keepPreRoll(frame)
			return false, nil
		}

		d.started = true
		for _, f := range d.preRoll {
			d.samples = append(d.samples, f...)
		}
		d.preRoll = nil
	}

	d.samples = append(d.samples, frame...)
	d.recorded += len(frame)

	if loud {
		d.silence = 0
	} else {
		d.silence += len(frame)
	}

	if d.cfg.PauseThreshold > 0 && d.silence >= d.samplesFor(d.cfg.PauseThreshold) {
		return true, nil
	}
	if d.cfg.PhraseLimit > 0 && d.recorded >= d.samplesFor(d.cfg.PhraseLimit) {
		return true, nil
	}
	return false, nil
}

// Started reports whether speech has been detected.
func (d *PhraseDetector) Started() bool {
	return d.started
}

// Samples returns the recorded phrase including pre-roll.
func (d *PhraseDetector) Samples() []int16 {
	return d.samples
}

func (d *PhraseDetector) keepPreRoll(frame []int16) {
	f := make([]int16, len(frame))
	copy(f, frame)
	d.preRoll = append(d.preRoll, f)
	d.preLen += len(f)

	limit := d.samplesFor(d.cfg.PreRoll)
	for len(d.preRoll) > 1 && d.preLen-len(d.preRoll[0]) >= limit {
		d.preLen -= len(d.preRoll[0])
		d.preRoll = d.preRoll[1:]
	}
}

func (d *PhraseDetector) samplesFor(dur time.Duration) int {
	return int(dur.Seconds() * float64(d.cfg.SampleRate))
}
