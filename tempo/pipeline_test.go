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

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameEnergies(t *testing.T) {
	x := make([]float32, 3000)
	for i := range x {
		x[i] = 0.5
	}
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, frameEnergies(x, 1024, 512))

	assert.Empty(t, frameEnergies(x[:1023], 1024, 512))
	assert.Len(t, frameEnergies(x[:1024], 1024, 512), 1)
	assert.Len(t, frameEnergies(x[:1535], 1024, 512), 1)
	assert.Len(t, frameEnergies(x[:1536], 1024, 512), 2)
}

func TestFrameEnergiesCoverage(t *testing.T) {
	x := make([]float32, 3000)
	x[600] = 1
	e := frameEnergies(x, 1024, 512)
	want := math.Sqrt(1.0 / 1024)
	assert.Equal(t, []float64{want, want, 0, 0}, e)
}

func TestOnsetFunction(t *testing.T) {
	onset, max := onsetFunction([]float64{0, 1, 0.5, 2.5})
	assert.Equal(t, 2.0, max)
	assert.Equal(t, []float64{0.5, 0, 1}, onset)

	onset, max = onsetFunction([]float64{1, 1, 0.5, 0.5})
	assert.Zero(t, max)
	assert.Equal(t, []float64{0, 0, 0}, onset)

	onset, max = onsetFunction([]float64{1})
	assert.Zero(t, max)
	assert.Empty(t, onset)
}

func TestOnsetFunctionPeakIsOne(t *testing.T) {
	e := []float64{0.013, 0.41, 0.07, 0.333, 0.29, 0.9001}
	onset, _ := onsetFunction(e)
	peak := 0.0
	for _, v := range onset {
		assert.GreaterOrEqual(t, v, 0.0)
		peak = math.Max(peak, v)
	}
	assert.Equal(t, 1.0, peak)
}

func TestOnsetTimes(t *testing.T) {
	times := onsetTimes([]float64{0.5, 0, 1, 0.2, 0.3}, 8000, 512, 0.3)
	assert.Equal(t, []float64{0.064, 0.192, 0.32}, times)
	assert.Empty(t, onsetTimes([]float64{0.1, 0.2}, 8000, 512, 0.3))
}

func TestLagRange(t *testing.T) {
	tests := []struct {
		sampleRate     float64
		onsetLen       int
		minLag, maxLag int
	}{
		{8000, 123, 4, 16},
		{8000, 5, 4, 3},
		{8000, 12, 4, 10},
		{44100, 5000, 25, 87},
		{100, 5000, 1, 1},
	}
	for _, tt := range tests {
		minLag, maxLag := lagRange(tt.sampleRate, 512, 60, 200, tt.onsetLen)
		if minLag != tt.minLag || maxLag != tt.maxLag {
			t.Errorf("lagRange(%v, onsetLen %d) = (%d, %d), want (%d, %d)",
				tt.sampleRate, tt.onsetLen, minLag, maxLag, tt.minLag, tt.maxLag)
		}
	}
}

func TestAutocorrelationPeriodic(t *testing.T) {
	onset := make([]float64, 100)
	for i := 0; i < len(onset); i += 5 {
		onset[i] = 1
	}
	acf := autocorrelation(onset, 4, 16)
	require.Len(t, acf, 13)
	assert.Equal(t, 0.0, acf[0])
	assert.Equal(t, 19.0, acf[1])
	assert.Equal(t, 18.0, acf[6])
	assert.Equal(t, 17.0, acf[11])

	best := pickBestLag(acf, 4)
	assert.Equal(t, 5, best.lag)
	assert.Equal(t, 19.0, best.peak)
	assert.InDelta(t, (19-54.0/13)/19, best.peakContrast, 1e-12)
}

func TestPickBestLagFirstMaximumWins(t *testing.T) {
	best := pickBestLag([]float64{1, 3, 3, 2}, 4)
	assert.Equal(t, 5, best.lag)

	best = pickBestLag([]float64{0, 0, 0}, 7)
	assert.Equal(t, 7, best.lag)
	assert.Zero(t, best.peakContrast)
}

func TestBeatTimesSnap(t *testing.T) {
	beats := beatTimes(0.5, 0.5, 2.0, []float64{0.5, 1.02, 1.6}, 0.05)
	assert.Equal(t, []float64{0.5, 1.02, 1.5, 2.0}, beats)
}

func TestBeatTimesNoOnsets(t *testing.T) {
	beats := beatTimes(0, 0.5, 2.0, nil, 0.05)
	assert.Equal(t, []float64{0, 0.5, 1, 1.5, 2}, beats)

	assert.Empty(t, beatTimes(0, 0, 2.0, nil, 0.05))
	assert.Empty(t, beatTimes(0, math.Inf(1), 2.0, nil, 0.05))
}

func TestBeatTimesStrictlyIncreasing(t *testing.T) {
	// grid denser than the snap window pulls several beats onto one onset
	beats := beatTimes(0, 0.03, 0.2, []float64{0.04}, 0.05)
	assert.InDeltaSlice(t, []float64{0.04, 0.06, 0.09, 0.12, 0.15, 0.18}, beats, 1e-9)
	for i := 1; i < len(beats); i++ {
		assert.Greater(t, beats[i], beats[i-1])
	}
}
