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

import "math"

// lagRange returns the autocorrelation lags, in frames, that correspond to
// the BPM window. maxLag <= minLag means no periodicity can be resolved.
func lagRange(sampleRate float64, hop int, minBPM, maxBPM float64, onsetLen int) (minLag, maxLag int) {
	h := float64(hop)
	minLag = int(math.Floor(60 * sampleRate / (maxBPM * h)))
	if minLag < 1 {
		minLag = 1
	}
	maxLag = int(math.Ceil(60 * sampleRate / (minBPM * h)))
	if onsetLen-2 < maxLag {
		maxLag = onsetLen - 2
	}
	return minLag, maxLag
}

// autocorrelation returns sum(onset[i]*onset[i+lag]) for each lag in
// [minLag, maxLag]. Entry 0 belongs to minLag.
func autocorrelation(onset []float64, minLag, maxLag int) []float64 {
	acf := make([]float64, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		sum := 0.0
		for i := 0; i < len(onset)-lag; i++ {
			sum += onset[i] * onset[i+lag]
		}
		acf[lag-minLag] = sum
	}
	return acf
}

type lagPeak struct {
	lag          int
	peak         float64
	peakContrast float64 // (peak-mean)/peak in [0,1]
}

// pickBestLag returns the lag with the largest autocorrelation. The first
// maximum in increasing lag order wins.
func pickBestLag(acf []float64, minLag int) lagPeak {
	maxPeak, maxIdx, sum := 0.0, 0, 0.0
	for i, v := range acf {
		sum += v
		if v > maxPeak {
			maxPeak, maxIdx = v, i
		}
	}
	mean := 0.0
	if len(acf) > 0 {
		mean = sum / float64(len(acf))
	}
	contrast := 0.0
	if maxPeak > 0 {
		contrast = (maxPeak - mean) / maxPeak
	}
	return lagPeak{
		lag:          minLag + maxIdx,
		peak:         maxPeak,
		peakContrast: clamp(contrast, 0, 1),
	}
}
