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

/*
tempotrack estimates the tempo and beat grid of audio files.

	tempotrack [flags] <audio file>...
	tempotrack -synth bpm [-seconds s] [-o click.wav]

Each input gets a JSON record next to it, <input>.bpm.json. See usageString
for the flags.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/sirupsen/logrus"

	"github.com/goccmack/tempotrack/internal/config"
	"github.com/goccmack/tempotrack/internal/logging"
	"github.com/goccmack/tempotrack/store"
	"github.com/goccmack/tempotrack/synth"
)

// DefaultSynthSeconds is the length of a generated click track
const DefaultSynthSeconds = 8

type params struct {
	inFiles []string
	outFile string
	outDir  string // plot data directory
	plot    bool
	dbPath  string
	force   bool

	sampleRate  int
	maxDuration time.Duration
	workers     int

	logLevel string
	logJSON  bool

	synthBPM     float64
	synthSeconds float64
}

func main() {
	start := time.Now()
	p := getParams(config.Load())
	if err := logging.Setup(p.logLevel, p.logJSON); err != nil {
		fail(err.Error())
	}

	if p.synthBPM > 0 {
		if err := writeSynth(p); err != nil {
			logrus.Fatal(err)
		}
		return
	}

	failed, err := analyzeFiles(p)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.WithField("elapsed", time.Since(start)).Infof("Analysed %d file(s)", len(p.inFiles))
	if failed > 0 {
		logrus.Errorf("%d file(s) failed", failed)
		os.Exit(1)
	}
}

// analyzeFiles runs one job per input file on a worker pool and returns the
// number of jobs that failed.
func analyzeFiles(p *params) (failed int, err error) {
	a := &analyzer{params: p}
	if p.dbPath != "" {
		if a.store, err = store.Open(p.dbPath); err != nil {
			return 0, err
		}
		defer a.store.Close()
	}
	if p.plot {
		if err := os.MkdirAll(p.outDir, os.ModePerm); err != nil {
			return 0, err
		}
	}

	pool := tunny.NewFunc(p.workers, a.process)
	defer pool.Close()

	jobs := make([]*fileJob, len(p.inFiles))
	plotNames := map[string]bool{}
	wg := &sync.WaitGroup{}
	for i, inFile := range p.inFiles {
		jobs[i] = newFileJob(inFile, p, plotNames)
		wg.Add(1)
		go func(job *fileJob) {
			defer wg.Done()
			pool.Process(job)
		}(jobs[i])
	}
	wg.Wait()

	for _, job := range jobs {
		if job.err != nil {
			logrus.WithField("file", job.inFile).Error(job.err)
			failed++
		}
	}
	return failed, nil
}

func writeSynth(p *params) error {
	outFile := p.outFile
	if outFile == "" {
		outFile = "click.wav"
	}
	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	samples := synth.ClickTrack(p.synthBPM, p.synthSeconds, p.sampleRate)
	if err := synth.WriteWAV(f, samples, p.sampleRate); err != nil {
		f.Close()
		return err
	}
	logrus.WithFields(logrus.Fields{
		"bpm":     p.synthBPM,
		"seconds": p.synthSeconds,
		"rate":    p.sampleRate,
	}).Infof("Wrote %s", outFile)
	return f.Close()
}

/*** command line parameters ***/

func fail(msg string) {
	fmt.Printf("Error: %s\n", msg)
	usage()
	os.Exit(1)
}

func getParams(cfg config.Config) *params {
	help := flag.Bool("h", false, "")
	plot := flag.Bool("plot", false, "")
	outFile := flag.String("o", "", "")
	dbPath := flag.String("db", cfg.DBPath, "")
	force := flag.Bool("force", false, "")
	rate := flag.Int("rate", cfg.SampleRate, "")
	maxSec := flag.Float64("max", cfg.MaxDuration, "")
	workers := flag.Int("workers", cfg.Workers, "")
	logLevel := flag.String("log", cfg.LogLevel, "")
	logJSON := flag.Bool("json", cfg.LogJSON, "")
	synthBPM := flag.Float64("synth", 0, "")
	synthSec := flag.Float64("seconds", DefaultSynthSeconds, "")
	flag.Usage = usage
	flag.Parse()
	if *help {
		usage()
		os.Exit(0)
	}

	p := &params{
		inFiles:      flag.Args(),
		outFile:      *outFile,
		outDir:       cfg.OutDir,
		plot:         *plot,
		dbPath:       *dbPath,
		force:        *force,
		sampleRate:   *rate,
		maxDuration:  time.Duration(*maxSec * float64(time.Second)),
		workers:      *workers,
		logLevel:     *logLevel,
		logJSON:      *logJSON,
		synthBPM:     *synthBPM,
		synthSeconds: *synthSec,
	}
	if msg := p.check(); msg != "" {
		fail(msg)
	}
	return p
}

// check returns a message describing the first invalid parameter
func (p *params) check() string {
	switch {
	case p.sampleRate <= 0:
		return "rate must be greater than 0"
	case p.maxDuration <= 0:
		return "max must be greater than 0"
	case p.workers <= 0:
		return "workers must be greater than 0"
	case p.synthBPM < 0:
		return "synth bpm must be greater than 0"
	case p.synthBPM > 0:
		if p.synthSeconds <= 0 {
			return "seconds must be greater than 0"
		}
		return ""
	case len(p.inFiles) == 0:
		return "audio file name required"
	case p.outFile != "" && len(p.inFiles) > 1:
		return "-o needs exactly one audio file"
	}
	return ""
}

// fromInFileName returns the default output file name for inFile
func fromInFileName(inFile string) string {
	dir, fname := filepath.Split(inFile)
	fname = strings.TrimSuffix(fname, filepath.Ext(fname))
	return filepath.Join(dir, fname+".bpm.json")
}

func usage() {
	fmt.Println(usageString)
}

const usageString = `use: tempotrack [flags] <audio file>... or
     tempotrack -synth bpm [-seconds s] [-rate hz] [-o <wav file>] or
     tempotrack -h
where 
    -h displays this help

    <audio file> is a WAV, MP3, FLAC or Ogg Vorbis file.

    -o <out file>: Optional. Default <audio file>.bpm.json. Only with one
               audio file.

    -plot: Optional. Default false. Write the energy, onset and
               autocorrelation signals to $TEMPO_OUT_DIR (default out).

    -db <file>: Optional. Default $TEMPO_DB. SQLite database the analyses
               are stored in.

    -force: Optional. Analyse files whose stored analysis is current.

    -rate hz: Optional. Analysis sample rate. Default $TEMPO_SAMPLE_RATE
               or 22050.

    -max sec: Optional. Seconds decoded from the start of each file.
               Default $TEMPO_MAX_DURATION or 75.

    -workers n: Optional. Files analysed in parallel. Default
               $TEMPO_WORKERS or the number of CPUs.

    -log level: Optional. Default $TEMPO_LOG_LEVEL or info.

    -json: Optional. Log JSON lines. Default $TEMPO_LOG_JSON.

    -synth bpm: Write a click track at bpm instead of analysing files.

    -seconds s: Optional. Length of the click track. Default 8.`
