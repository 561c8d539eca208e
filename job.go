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
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccmack/godsp"
	"github.com/sirupsen/logrus"

	"github.com/goccmack/tempotrack/decode"
	"github.com/goccmack/tempotrack/store"
	"github.com/goccmack/tempotrack/tempo"
)

// fileJob is the analysis of one input file
type fileJob struct {
	inFile   string
	outFile  string
	plotName string // unique within a run

	clip    *decode.Clip
	result  tempo.Result
	trace   *tempo.Trace
	record  *store.Record // nil without a database
	skipped bool          // stored analysis is current
	err     error
}

// newFileJob creates the job for inFile. usedPlotNames collects the plot
// names of the run so that inputs with the same base name do not share
// plot files.
func newFileJob(inFile string, p *params, usedPlotNames map[string]bool) *fileJob {
	job := &fileJob{
		inFile:   inFile,
		outFile:  p.outFile,
		plotName: uniqueName(baseName(inFile), usedPlotNames),
	}
	if job.outFile == "" {
		job.outFile = fromInFileName(inFile)
	}
	return job
}

// uniqueName returns name, or name-2, name-3 ... if it is already used
func uniqueName(name string, used map[string]bool) string {
	unique := name
	for i := 2; used[unique]; i++ {
		unique = fmt.Sprintf("%s-%d", name, i)
	}
	used[unique] = true
	return unique
}

// mediaID keys the file in the store
func (job *fileJob) mediaID() string {
	if abs, err := filepath.Abs(job.inFile); err == nil {
		return abs
	}
	return job.inFile
}

// analyzer holds what the pool workers share
type analyzer struct {
	params *params
	store  *store.Store
}

// process is the tunny worker function. payload is a *fileJob.
func (a *analyzer) process(payload interface{}) interface{} {
	job := payload.(*fileJob)
	job.err = a.run(job)
	return job
}

func (a *analyzer) run(job *fileJob) error {
	log := logrus.WithField("file", job.inFile)

	if a.store != nil && !a.params.force {
		need, err := a.store.NeedsAnalysis(job.mediaID())
		if err != nil {
			return err
		}
		if !need {
			log.Info("Stored analysis is current, skipping")
			job.skipped = true
			return nil
		}
	}

	start := time.Now()
	clip, err := decode.File(job.inFile, decode.Options{
		SampleRate:  a.params.sampleRate,
		MaxDuration: a.params.maxDuration,
	})
	if err != nil {
		return err
	}
	job.clip = clip

	var opts []tempo.Option
	if a.params.plot {
		job.trace = &tempo.Trace{}
		opts = append(opts, tempo.WithTrace(job.trace))
	}
	job.result = tempo.Analyze(clip.Samples, clip.SampleRate, opts...)

	log = log.WithField("elapsed", time.Since(start))
	if job.result.OK() {
		log.WithFields(logrus.Fields{
			"bpm":        humanize.FtoaWithDigits(job.result.BPM, 2),
			"confidence": humanize.FtoaWithDigits(job.result.Confidence, 2),
			"beats":      len(job.result.BeatTimesSec),
		}).Info("Tempo detected")
		log.Debug(job.result.Reasoning)
	} else {
		log.WithField("reason", job.result.NoBeatReason).Warn("No beat detected")
	}

	if a.store != nil {
		if _, err := a.store.SaveAuto(job.mediaID(), clip.Title, job.result, time.Now()); err != nil {
			return err
		}
		rec, err := a.store.Get(job.mediaID())
		switch {
		case err == nil:
			job.record = rec
		case err != store.ErrNotFound:
			return err
		}
	}

	if err := writeOutput(job); err != nil {
		return err
	}
	if job.trace != nil {
		return writePlotData(filepath.Join(a.params.outDir, job.plotName), job.trace)
	}
	return nil
}

// writePlotData writes the signals of tr to base.energy, base.onset and
// base.acf. A godsp.WriteDataFile panic is returned as an error.
func writePlotData(base string, tr *tempo.Trace) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plot data %s: %v", base, r)
		}
	}()
	if len(tr.Energies) > 0 {
		godsp.WriteDataFile(tr.Energies, base+".energy")
	}
	if len(tr.Onset) > 0 {
		godsp.WriteDataFile(tr.Onset, base+".onset")
	}
	if len(tr.Autocorrelation) > 0 {
		godsp.WriteDataFile(tr.Autocorrelation, base+".acf")
	}
	return nil
}

func baseName(inFile string) string {
	fname := filepath.Base(inFile)
	return fname[:len(fname)-len(filepath.Ext(fname))]
}
