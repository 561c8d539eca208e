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

package tempo

// Options controls one analysis. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	FrameSize      int // samples per energy frame
	HopSize        int // samples between frame starts
	MinBPM         float64
	MaxBPM         float64
	MaxDurationSec float64 // analysis window cap
	OnsetThreshold float64 // normalised onset level recorded as an onset time
	SnapWindowSec  float64

	// Alignment is optional external evidence for the octave normaliser.
	Alignment []AlignmentScore

	// Trace, when not nil, receives the intermediate signals.
	Trace *Trace
}

// Trace holds the intermediate signals of an analysis for plotting and
// debugging. Fields stay empty for stages the analysis did not reach.
type Trace struct {
	Energies        []float64
	Onset           []float64
	MinLag, MaxLag  int
	Autocorrelation []float64 // index 0 is MinLag
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns the options used when Analyze is called without any.
func DefaultOptions() Options {
	return Options{
		FrameSize:      DefaultFrameSize,
		HopSize:        DefaultHopSize,
		MinBPM:         DefaultMinBPM,
		MaxBPM:         DefaultMaxBPM,
		MaxDurationSec: DefaultMaxDurationSec,
		OnsetThreshold: DefaultOnsetThreshold,
		SnapWindowSec:  DefaultSnapWindowSec,
	}
}

// WithFrameSize sets the frame length. Non-positive values are ignored.
func WithFrameSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.FrameSize = n
		}
	}
}

// WithHopSize sets the hop length. Non-positive values are ignored.
func WithHopSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.HopSize = n
		}
	}
}

// WithBPMRange sets the periodicity search window. It is ignored unless
// 0 < min < max.
func WithBPMRange(min, max float64) Option {
	return func(o *Options) {
		if min > 0 && min < max {
			o.MinBPM, o.MaxBPM = min, max
		}
	}
}

// WithMaxDuration sets the analysis window cap in seconds.
func WithMaxDuration(sec float64) Option {
	return func(o *Options) {
		if sec > 0 {
			o.MaxDurationSec = sec
		}
	}
}

// WithAlignment supplies beat alignment evidence to the octave normaliser.
func WithAlignment(scores []AlignmentScore) Option {
	return func(o *Options) {
		o.Alignment = scores
	}
}

// WithTrace makes Analyze record its intermediate signals in t.
func WithTrace(t *Trace) Option {
	return func(o *Options) {
		o.Trace = t
	}
}

func (o *Options) trace(f func(*Trace)) {
	if o.Trace != nil {
		f(o.Trace)
	}
}
