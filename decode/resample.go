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

package decode

import "github.com/faiface/beep"

// resampleQuality is the number of neighbouring samples beep interpolates over
const resampleQuality = 4

// resample converts x from rate `from` to rate `to`.
func resample(x []float32, from, to int) []float32 {
	if from == to || len(x) == 0 {
		return x
	}

	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		if pos >= len(x) {
			return 0, false
		}
		for n < len(samples) && pos < len(x) {
			v := float64(x[pos])
			samples[n] = [2]float64{v, v}
			n++
			pos++
		}
		return n, true
	})

	rs := beep.Resample(resampleQuality, beep.SampleRate(from), beep.SampleRate(to), src)
	out := make([]float32, 0, int(int64(len(x))*int64(to)/int64(from))+1)
	buf := make([][2]float64, 4096)
	for {
		n, ok := rs.Stream(buf)
		for _, frame := range buf[:n] {
			out = append(out, float32(frame[0]))
		}
		if !ok || n == 0 {
			break
		}
	}
	return out
}
