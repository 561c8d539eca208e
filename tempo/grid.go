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

// beatTimes lays a grid of beats at start + k*interval up to durationSec and
// moves each beat to the nearest onset time within snapWindow seconds.
// onsetTimes must be sorted. The returned times are strictly increasing: a
// snap that would not move past the previous beat is undone, and a beat that
// still would not is dropped.
func beatTimes(start, interval, durationSec float64, onsetTimes []float64, snapWindow float64) []float64 {
	beats := []float64{}
	if interval <= 0 || math.IsInf(interval, 0) || math.IsNaN(interval) {
		return beats
	}

	onsetIdx := 0
	for k := 0; ; k++ {
		t := start + float64(k)*interval
		if t > durationSec {
			break
		}

		adjusted := t
		if len(onsetTimes) > 0 {
			for onsetIdx+1 < len(onsetTimes) && onsetTimes[onsetIdx+1] <= t {
				onsetIdx++
			}
			prev := onsetTimes[onsetIdx]
			next := prev
			if onsetIdx+1 < len(onsetTimes) {
				next = onsetTimes[onsetIdx+1]
			}
			nearest := next
			if math.Abs(prev-t) <= math.Abs(next-t) {
				nearest = prev
			}
			if math.Abs(nearest-t) <= snapWindow {
				adjusted = nearest
			}
		}

		if n := len(beats); n > 0 && adjusted <= beats[n-1] {
			if t <= beats[n-1] {
				continue
			}
			adjusted = t
		}
		beats = append(beats, adjusted)
	}
	return beats
}
