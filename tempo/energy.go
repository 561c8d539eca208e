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

// frameEnergies returns the RMS energy of each complete frame of x. Frame i
// covers x[i*hop : i*hop+frameSize]. Trailing samples that do not fill a
// frame are dropped.
func frameEnergies(x []float32, frameSize, hop int) []float64 {
	if len(x) < frameSize {
		return []float64{}
	}
	numFrames := (len(x)-frameSize)/hop + 1
	energies := make([]float64, numFrames)
	for i := range energies {
		frame := x[i*hop : i*hop+frameSize]
		sumSq := 0.0
		for _, s := range frame {
			sumSq += float64(s) * float64(s)
		}
		energies[i] = math.Sqrt(sumSq / float64(frameSize))
	}
	return energies
}
