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

/*
Package tempo estimates the global tempo of a mono audio buffer and builds a
beat grid for it.

The pipeline is: frame RMS energy, half-wave rectified energy difference
(onset function), autocorrelation of the onset function over the lag range of
the BPM window, octave normalisation against a musical tempo prior, and a
beat grid snapped to nearby onsets.

Analyze is a pure function of its inputs. Clips without a detectable rhythm
return a Result whose Outcome is NoBeat.
*/
package tempo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultFrameSize is the analysis frame length in samples
	DefaultFrameSize = 1024
	// DefaultHopSize is the distance between frame starts in samples
	DefaultHopSize = 512
	// DefaultMinBPM and DefaultMaxBPM bound the periodicity search
	DefaultMinBPM = 60
	DefaultMaxBPM = 200
	// DefaultMaxDurationSec caps the part of the buffer that is analysed
	DefaultMaxDurationSec = 60
	// DefaultOnsetThreshold is the normalised onset value at which an onset
	// time is recorded for beat snapping
	DefaultOnsetThreshold = 0.3
	// DefaultSnapWindowSec is the maximum distance between a grid beat and
	// the onset it is snapped to
	DefaultSnapWindowSec = 0.05

	// minEnergy is the floor for the frame energy mean and deviation
	minEnergy = 1e-4
	// dynamicEps keeps the energy dynamic ratio finite
	dynamicEps = 1e-6
)

// Outcome tells a detection apart from the no-rhythm result.
type Outcome int

const (
	// NoBeat means no tempo could be resolved. All numeric fields are zero.
	NoBeat Outcome = iota
	// Detected means BPM, Confidence and BeatTimesSec hold an estimate.
	Detected
)

func (o Outcome) String() string {
	if o == Detected {
		return "detected"
	}
	return "no-beat"
}

// NoBeatReason records which degenerate input rule ended an analysis.
type NoBeatReason string

// Reasons for a NoBeat result. Detected results have an empty reason.
const (
	ReasonEmptyBuffer   NoBeatReason = "empty buffer"
	ReasonBadSampleRate NoBeatReason = "sample rate not positive"
	ReasonTooShort      NoBeatReason = "shorter than two frames"
	ReasonFlatEnergy    NoBeatReason = "flat or silent energy"
	ReasonNoOnsets      NoBeatReason = "no onsets"
	ReasonEmptyLagRange NoBeatReason = "empty lag range"
)

// Result is the outcome of one analysis. It is never modified after
// Analyze returns it.
type Result struct {
	Outcome      Outcome
	NoBeatReason NoBeatReason

	BPM          float64   // normalised tempo
	RawBPM       float64   // tempo of the best autocorrelation lag
	Confidence   float64   // in [0,1]
	BeatTimesSec []float64 // strictly increasing, within [0, duration]
	TempoFamily  []float64 // raw, raw/2, raw*2; empty for NoBeat
	Reasoning    string    // candidate scores of the octave normaliser
}

// OK reports whether the result holds a tempo estimate.
func (r Result) OK() bool {
	return r.Outcome == Detected
}

func noBeat(reason NoBeatReason) Result {
	return Result{
		Outcome:      NoBeat,
		NoBeatReason: reason,
		BeatTimesSec: []float64{},
		TempoFamily:  []float64{},
	}
}

// Analyze estimates the tempo of samples recorded at sampleRate Hz and
// builds a beat grid spanning the whole buffer. Only the first
// MaxDurationSec seconds take part in the estimate.
func Analyze(samples []float32, sampleRate int, opts ...Option) Result {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(samples) == 0 {
		return noBeat(ReasonEmptyBuffer)
	}
	if sampleRate <= 0 {
		return noBeat(ReasonBadSampleRate)
	}

	sr := float64(sampleRate)
	totalDurationSec := float64(len(samples)) / sr
	analysisSec := math.Min(totalDurationSec, o.MaxDurationSec)
	window := samples[:int(math.Floor(analysisSec*sr))]
	if len(window) < o.FrameSize*2 {
		return noBeat(ReasonTooShort)
	}

	energies := frameEnergies(window, o.FrameSize, o.HopSize)
	energyMean, energyStd := stat.PopMeanStdDev(energies, nil)
	o.trace(func(t *Trace) { t.Energies = energies })
	if energyMean < minEnergy || energyStd < minEnergy {
		return noBeat(ReasonFlatEnergy)
	}

	onset, maxOnset := onsetFunction(energies)
	o.trace(func(t *Trace) { t.Onset = onset })
	if len(onset) == 0 || maxOnset == 0 {
		return noBeat(ReasonNoOnsets)
	}

	minLag, maxLag := lagRange(sr, o.HopSize, o.MinBPM, o.MaxBPM, len(onset))
	o.trace(func(t *Trace) { t.MinLag, t.MaxLag = minLag, maxLag })
	if maxLag <= minLag {
		return noBeat(ReasonEmptyLagRange)
	}

	acf := autocorrelation(onset, minLag, maxLag)
	o.trace(func(t *Trace) { t.Autocorrelation = acf })
	best := pickBestLag(acf, minLag)
	rawBpm := 60 * sr / (float64(o.HopSize) * float64(best.lag))

	dynamic := clamp(energyStd/(energyMean+dynamicEps), 0, 1)
	confidence := clamp(best.peakContrast*dynamic, 0, 1)

	norm := NormalizeTempoWithPrior(rawBpm, confidence, o.Alignment)
	bpm := norm.BPM
	if math.IsInf(bpm, 0) || math.IsNaN(bpm) || bpm <= 0 {
		bpm = rawBpm
	}

	times := onsetTimes(onset, sr, o.HopSize, o.OnsetThreshold)
	start := 0.0
	if len(times) > 0 {
		start = times[0]
	}
	beats := beatTimes(start, 60/bpm, totalDurationSec, times, o.SnapWindowSec)

	return Result{
		Outcome:      Detected,
		BPM:          bpm,
		RawBPM:       rawBpm,
		Confidence:   confidence,
		BeatTimesSec: beats,
		TempoFamily:  norm.TempoFamily,
		Reasoning:    norm.Reasoning,
	}
}

// AnalyzeAsync runs Analyze on its own goroutine. The returned channel
// delivers exactly one Result and is then closed. samples must not be
// modified until the result has been received.
func AnalyzeAsync(samples []float32, sampleRate int, opts ...Option) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		out <- Analyze(samples, sampleRate, opts...)
	}()
	return out
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
