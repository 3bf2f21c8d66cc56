// Package signal merges the external analysis feeds (audio features,
// sentiment, pointer input) into one immutable per-frame snapshot.
//
// Producers run on their own goroutines and push values through the
// setters; the frame driver calls Frame once per tick to obtain the
// snapshot consumed by the force composer and the color layer. Only the
// aggregator mutates shared state; everything downstream reads by value.
package signal

import (
	"sync"

	"github.com/voxfield/voxfield/components"
)

// ColorMode selects between the two mutually exclusive coloring models.
type ColorMode int32

const (
	// ToneMode colors by acoustic tone (pitch/energy).
	ToneMode ColorMode = iota
	// SentimentMode colors by sentiment valence and intensity.
	SentimentMode
)

// AudioFeatures is the per-utterance scalar feature set produced by the
// external audio analysis stage. All fields except Pitch are in [0,1].
type AudioFeatures struct {
	Energy          float32
	Tension         float32
	Urgency         float32
	Breathiness     float32
	TextureVariance float32
	Pitch           float32 // Hz
}

// Sentiment is the output of the external sentiment classifier.
type Sentiment struct {
	Valence   float32 // [-1,1]
	Emotion   string  // dominant label: joy, anger, sadness, fear, neutral
	Intensity float32 // [0,1]
}

// Pointer is the pointer/touch position projected into world space.
type Pointer struct {
	WorldPos components.Vec3
	Active   bool
}

// UniformFrame is the immutable per-tick parameter snapshot.
type UniformFrame struct {
	Energy          float32
	Tension         float32
	Urgency         float32
	Breathiness     float32
	TextureVariance float32
	Pitch           float32 // Hz
	Sentiment       float32 // [-1,1]
	Emotion         string
	EmotionalIntensity float32 // [0,1]
	ColorMode       ColorMode
	Pointer         Pointer
	Time            float32 // seconds since start
	Delta           float32 // seconds since previous frame
}

// Aggregator assembles UniformFrames from the latest producer values.
type Aggregator struct {
	mu        sync.Mutex
	audio     AudioFeatures
	sentiment Sentiment
	pointer   Pointer
	colorMode ColorMode
}

// NewAggregator creates an aggregator with neutral initial state.
func NewAggregator() *Aggregator {
	return &Aggregator{
		sentiment: Sentiment{Emotion: "neutral"},
	}
}

// SetAudioFeatures records the latest audio analysis output.
func (a *Aggregator) SetAudioFeatures(f AudioFeatures) {
	a.mu.Lock()
	a.audio = clampAudio(f)
	a.mu.Unlock()
}

// SetSentiment records the latest sentiment classification.
func (a *Aggregator) SetSentiment(s Sentiment) {
	a.mu.Lock()
	s.Valence = components.Clamp32(s.Valence, -1, 1)
	s.Intensity = components.Clamp01(s.Intensity)
	if s.Emotion == "" {
		s.Emotion = "neutral"
	}
	a.sentiment = s
	a.mu.Unlock()
}

// SetPointer records the pointer world position, or clears it.
func (a *Aggregator) SetPointer(p Pointer) {
	a.mu.Lock()
	a.pointer = p
	a.mu.Unlock()
}

// SetColorMode switches the coloring model.
func (a *Aggregator) SetColorMode(m ColorMode) {
	a.mu.Lock()
	a.colorMode = m
	a.mu.Unlock()
}

// ColorMode returns the current coloring model.
func (a *Aggregator) ColorMode() ColorMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.colorMode
}

// Frame builds the snapshot for one tick. time and delta come from the
// frame driver's clock; everything else is the latest producer state.
func (a *Aggregator) Frame(time, delta float32) UniformFrame {
	a.mu.Lock()
	defer a.mu.Unlock()

	return UniformFrame{
		Energy:             a.audio.Energy,
		Tension:            a.audio.Tension,
		Urgency:            a.audio.Urgency,
		Breathiness:        a.audio.Breathiness,
		TextureVariance:    a.audio.TextureVariance,
		Pitch:              a.audio.Pitch,
		Sentiment:          a.sentiment.Valence,
		Emotion:            a.sentiment.Emotion,
		EmotionalIntensity: a.sentiment.Intensity,
		ColorMode:          a.colorMode,
		Pointer:            a.pointer,
		Time:               time,
		Delta:              delta,
	}
}

// clampAudio forces the unit-range features into [0,1] and rejects
// non-finite values so one bad analysis frame cannot poison the field.
func clampAudio(f AudioFeatures) AudioFeatures {
	sanitize := func(v float32) float32 {
		if !components.IsFinite32(v) {
			return 0
		}
		return components.Clamp01(v)
	}
	f.Energy = sanitize(f.Energy)
	f.Tension = sanitize(f.Tension)
	f.Urgency = sanitize(f.Urgency)
	f.Breathiness = sanitize(f.Breathiness)
	f.TextureVariance = sanitize(f.TextureVariance)
	if !components.IsFinite32(f.Pitch) || f.Pitch < 0 {
		f.Pitch = 0
	}
	return f
}
