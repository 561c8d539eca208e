//  Copyright 2019 Marius Ackerman
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package synth generates test signals for the tempo estimator.
package synth

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// PulseSec is the length of one click
const PulseSec = 0.005

type clickConfig struct {
	amplitude   float64
	accentEvery int
	accentGain  float64
	bed         float64
}

// ClickOption modifies a click track.
type ClickOption func(*clickConfig)

// Amplitude sets the level of every click. Default 1.
func Amplitude(a float64) ClickOption {
	return func(c *clickConfig) { c.amplitude = a }
}

// Accent multiplies the level of every n'th click, starting with the first,
// by gain.
func Accent(n int, gain float64) ClickOption {
	return func(c *clickConfig) { c.accentEvery, c.accentGain = n, gain }
}

// Bed adds a constant level to every sample, clicks included. The sum is
// clipped to 1.
func Bed(level float64) ClickOption {
	return func(c *clickConfig) { c.bed = level }
}

// ClickTrack returns seconds of a pulse train at bpm, sampled at sampleRate.
// Clicks are PulseSec long and start every floor(60*sampleRate/bpm) samples
// from sample 0.
func ClickTrack(bpm, seconds float64, sampleRate int, opts ...ClickOption) []float32 {
	cfg := clickConfig{amplitude: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if bpm <= 0 || seconds <= 0 || sampleRate <= 0 {
		return []float32{}
	}

	n := int(math.Floor(seconds * float64(sampleRate)))
	x := make([]float32, n)
	interval := int(math.Floor(60 * float64(sampleRate) / bpm))
	if interval < 1 {
		interval = 1
	}
	width := int(math.Floor(float64(sampleRate) * PulseSec))
	if width < 1 {
		width = 1
	}

	for i := range x {
		x[i] = float32(cfg.bed)
	}
	for k, i := 0, 0; i < n; k, i = k+1, i+interval {
		level := cfg.amplitude
		if cfg.accentEvery > 0 && k%cfg.accentEvery == 0 {
			level *= cfg.accentGain
		}
		end := i + width
		if end > n {
			end = n
		}
		for j := i; j < end; j++ {
			x[j] = float32(math.Min(1, level+cfg.bed))
		}
	}
	return x
}

// WriteWAV writes mono samples in [-1,1] as a 16 bit PCM wav file.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	const bitDepth = 16
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	scale := float64(audio.IntMaxSignedValue(bitDepth))
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * scale))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("synth: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("synth: close wav: %w", err)
	}
	return nil
}
