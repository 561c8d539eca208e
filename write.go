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

package main

import (
	"encoding/json"

	"github.com/goccmack/godsp/ioutil"

	"github.com/goccmack/tempotrack/store"
)

type OutRecord struct {
	FileName     string    // Input file
	Title        string    // From the file's tags, if any
	Artist       string    // From the file's tags, if any
	SampleRate   int       // Analysis rate in Hz
	DurationSec  float64   // Length of the decoded audio
	Detected     bool      // False when no beat was found
	NoBeatReason string    `json:",omitempty"`
	BPM          float64   // User-facing tempo; a stored manual BPM wins
	RawBPM       float64   // Tempo of the best autocorrelation lag
	Confidence   float64   // In [0,1]
	TempoFamily  []float64 // raw, raw/2, raw*2
	BeatTimesSec []float64 // Beat grid in seconds from the start
	Reasoning    string    // Octave normaliser candidate scores
	Version      string    // Analysis version
	Source       string    // auto or manual
}

func newOutRecord(job *fileJob) *OutRecord {
	r := job.result
	or := &OutRecord{
		FileName:     job.inFile,
		Title:        job.clip.Title,
		Artist:       job.clip.Artist,
		SampleRate:   job.clip.SampleRate,
		DurationSec:  job.clip.Duration().Seconds(),
		Detected:     r.OK(),
		NoBeatReason: string(r.NoBeatReason),
		BPM:          r.BPM,
		RawBPM:       r.RawBPM,
		Confidence:   r.Confidence,
		TempoFamily:  r.TempoFamily,
		BeatTimesSec: r.BeatTimesSec,
		Reasoning:    r.Reasoning,
		Version:      store.AnalysisVersion,
		Source:       string(store.SourceAuto),
	}
	if job.record != nil && job.record.Source == store.SourceManual {
		or.BPM = job.record.BPM
		or.Source = string(job.record.Source)
	}
	return or
}

// Write the JSON output file
func writeOutput(job *fileJob) error {
	buf, err := json.MarshalIndent(newOutRecord(job), "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(job.outFile, buf)
}
