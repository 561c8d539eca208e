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
	"fmt"
	"math"
	"strings"
)

// AlignmentScore is external evidence of how well a beat grid at BPM fits
// the audio.
type AlignmentScore struct {
	BPM   float64
	Score float64
}

// CandidateScore is the score of one member of the tempo family.
type CandidateScore struct {
	BPM       float64
	Prior     float64
	Alignment float64
}

// Score is the combined score used to rank candidates.
func (c CandidateScore) Score() float64 {
	return c.Prior + c.Alignment
}

// Normalization is the outcome of NormalizeTempoWithPrior.
type Normalization struct {
	BPM         float64
	TempoFamily []float64 // raw, raw/2, raw*2
	Candidates  []CandidateScore
	Reasoning   string
}

// NormalizeTempoWithPrior resolves half/double tempo errors. It scores
// rawBpm, rawBpm/2 and rawBpm*2 with TempoPrior plus the alignment evidence
// closest to each candidate, and returns the best. Equal scores go to the
// candidate closest to rawBpm. confidence is only reported in Reasoning.
func NormalizeTempoWithPrior(rawBpm, confidence float64, alignment []AlignmentScore) Normalization {
	family := []float64{rawBpm, rawBpm / 2, rawBpm * 2}
	n := Normalization{
		BPM:         family[0],
		TempoFamily: family,
		Candidates:  make([]CandidateScore, len(family)),
	}

	details := make([]string, len(family))
	bestScore := math.Inf(-1)
	for i, bpm := range family {
		c := CandidateScore{
			BPM:       bpm,
			Prior:     TempoPrior(bpm),
			Alignment: alignmentScore(bpm, alignment),
		}
		n.Candidates[i] = c
		score := c.Score()
		details[i] = fmt.Sprintf("%.2f(prior=%.2f,align=%.2f,score=%.2f)", bpm, c.Prior, c.Alignment, score)

		// exact equality on purpose, see DESIGN.md
		if score > bestScore ||
			(score == bestScore && math.Abs(bpm-rawBpm) < math.Abs(n.BPM-rawBpm)) {
			bestScore = score
			n.BPM = bpm
		}
	}

	n.Reasoning = fmt.Sprintf("raw=%.2f, conf=%.2f, candidates=%s, chosen=%.2f",
		rawBpm, confidence, strings.Join(details, ", "), n.BPM)
	return n
}

// TempoPrior is the musical plausibility of a tempo.
func TempoPrior(bpm float64) float64 {
	switch {
	case bpm >= 80 && bpm <= 130:
		return 1.0
	case bpm >= 60 && bpm < 80:
		return 0.7
	case bpm > 130 && bpm <= 160:
		return 0.6
	case bpm > 160 && bpm <= 200:
		return 0.3
	default:
		return 0.1
	}
}

// alignmentScore returns the score of the entry closest to bpm, or 0 when
// that entry is more than 1 BPM away.
func alignmentScore(bpm float64, alignment []AlignmentScore) float64 {
	best, closest := 0.0, math.Inf(1)
	for _, a := range alignment {
		if d := math.Abs(a.BPM - bpm); d < closest {
			closest, best = d, a.Score
		}
	}
	if closest <= 1 {
		return best
	}
	return 0
}
