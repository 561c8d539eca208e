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

import "gonum.org/v1/gonum/floats"

// onsetFunction returns the half-wave rectified first difference of the
// energies, divided by its maximum, and that maximum. When the maximum is 0
// the differences are returned unscaled (all zero).
func onsetFunction(energies []float64) (onset []float64, max float64) {
	if len(energies) < 2 {
		return []float64{}, 0
	}
	onset = make([]float64, len(energies)-1)
	for i := 1; i < len(energies); i++ {
		if d := energies[i] - energies[i-1]; d > 0 {
			onset[i-1] = d
		}
	}
	max = floats.Max(onset)
	if max > 0 {
		for i := range onset {
			onset[i] /= max
		}
	}
	return onset, max
}

// onsetTimes returns the time in seconds of every onset value at or above
// threshold. Onset i lies at the start of energy frame i+1.
func onsetTimes(onset []float64, sampleRate float64, hop int, threshold float64) []float64 {
	times := []float64{}
	for i, v := range onset {
		if v >= threshold {
			times = append(times, float64((i+1)*hop)/sampleRate)
		}
	}
	return times
}
