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
Package decode extracts a mono float32 buffer from an audio file for tempo
analysis. WAV files are read with go-audio; MP3, FLAC and Ogg Vorbis with
beep. Channels are averaged and the result is resampled to the requested
rate.
*/
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSampleRate is the rate clips are resampled to
	DefaultSampleRate = 22050
	// DefaultMaxDuration is the amount of audio read from the start of a file
	DefaultMaxDuration = 75 * time.Second
)

var (
	ErrUnsupportedFormat  = errors.New("decode: unsupported audio format")
	ErrNoAudio            = errors.New("decode: no audio samples")
	ErrInvalidMaxDuration = errors.New("decode: max duration must be greater than 0")
)

// Options controls extraction.
type Options struct {
	// SampleRate is the output rate in Hz. 0 keeps the file's own rate.
	SampleRate int
	// MaxDuration limits how much audio is read.
	MaxDuration time.Duration
}

// DefaultOptions returns 22050 Hz output capped at 75 seconds.
func DefaultOptions() Options {
	return Options{
		SampleRate:  DefaultSampleRate,
		MaxDuration: DefaultMaxDuration,
	}
}

// Clip is a decoded mono buffer.
type Clip struct {
	Samples    []float32 // mono, [-1,1]
	SampleRate int
	Channels   int // channel count of the source
	SourceRate int // sample rate of the source
	MimeType   string
	Title      string
	Artist     string
}

// Duration is the length of Samples.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// File decodes the audio file at path.
func File(path string, opts Options) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode: open %s: %w", path, err)
	}
	defer f.Close()

	clip, err := Reader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Reader decodes an audio stream. The format is detected from the content.
func Reader(r io.ReadSeeker, opts Options) (*Clip, error) {
	if opts.MaxDuration <= 0 {
		return nil, ErrInvalidMaxDuration
	}
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("decode: invalid sample rate %d", opts.SampleRate)
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("decode: seek: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("decode: seek: %w", err)
	}
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("decode: detect format: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("decode: seek: %w", err)
	}

	var pcm *monoPCM
	switch {
	case isWAV(mime):
		pcm, err = decodeWAV(r, opts.MaxDuration)
	case isCompressed(mime):
		pcm, err = decodeCompressed(r, mime, opts.MaxDuration)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime.String())
	}
	if err != nil {
		return nil, err
	}
	if len(pcm.samples) == 0 {
		return nil, ErrNoAudio
	}

	clip := &Clip{
		Samples:    pcm.samples,
		SampleRate: pcm.rate,
		Channels:   pcm.channels,
		SourceRate: pcm.rate,
		MimeType:   mime.String(),
		Title:      pcm.title,
		Artist:     pcm.artist,
	}
	if opts.SampleRate > 0 && opts.SampleRate != pcm.rate {
		clip.Samples = resample(pcm.samples, pcm.rate, opts.SampleRate)
		clip.SampleRate = opts.SampleRate
	}

	logrus.WithFields(logrus.Fields{
		"format":   clip.MimeType,
		"size":     humanize.Bytes(uint64(size)),
		"channels": clip.Channels,
		"rate":     clip.SourceRate,
		"out_rate": clip.SampleRate,
		"duration": clip.Duration(),
	}).Debug("Decoded audio")
	return clip, nil
}

// monoPCM is the downmixed output of a format decoder
type monoPCM struct {
	samples       []float32
	rate          int
	channels      int
	title, artist string
}

func isWAV(m *mimetype.MIME) bool {
	return m.Is("audio/wav")
}

func isCompressed(m *mimetype.MIME) bool {
	return m.Is("audio/mpeg") || m.Is("audio/flac") || m.Is("audio/ogg") || m.Is("application/ogg")
}

// maxFrames is the number of frames in d at rate, at least 1.
func maxFrames(rate int, d time.Duration) int {
	n := int(int64(rate) * int64(d) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}
