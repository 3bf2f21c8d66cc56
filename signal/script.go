package signal

import (
	"math"
	"math/rand"
)

// Script drives the aggregator with synthetic speech-like features for
// headless soak runs and demos where no microphone stage is attached.
type Script struct {
	rng      *rand.Rand
	concepts []string
	period   float32 // seconds between concept emissions
	lastEmit float32
	next     int
}

// NewScript creates a scripted feature source with the given concept
// rotation. period is the spacing between concept emissions in seconds.
func NewScript(seed int64, concepts []string, period float32) *Script {
	if len(concepts) == 0 {
		concepts = []string{"sphere", "horse", "tree"}
	}
	if period <= 0 {
		period = 6
	}
	return &Script{
		rng:      rand.New(rand.NewSource(seed)),
		concepts: concepts,
		period:   period,
		lastEmit: -period, // emit immediately on the first tick
	}
}

// Tick pushes one tick of synthetic features into the aggregator and
// returns a concept to resolve, or "" when no emission is due.
func (s *Script) Tick(a *Aggregator, time float32) string {
	// Slow sinusoid envelopes stand in for speech prosody.
	t := float64(time)
	energy := 0.5 + 0.4*math.Sin(t*0.9)
	a.SetAudioFeatures(AudioFeatures{
		Energy:          float32(energy),
		Tension:         float32(0.4 + 0.3*math.Sin(t*0.31)),
		Urgency:         float32(0.3 + 0.3*math.Sin(t*0.47+1.3)),
		Breathiness:     float32(0.2 + 0.2*math.Sin(t*0.23+0.4)),
		TextureVariance: float32(0.35 + 0.35*math.Sin(t*0.17+2.1)),
		Pitch:           float32(180 + 60*math.Sin(t*0.6)),
	})

	emotions := []string{"neutral", "joy", "anger", "sadness", "fear"}
	if s.rng.Float32() < 0.002 {
		a.SetSentiment(Sentiment{
			Valence:   s.rng.Float32()*2 - 1,
			Emotion:   emotions[s.rng.Intn(len(emotions))],
			Intensity: s.rng.Float32(),
		})
	}

	if time-s.lastEmit >= s.period {
		s.lastEmit = time
		concept := s.concepts[s.next%len(s.concepts)]
		s.next++
		return concept
	}
	return ""
}
