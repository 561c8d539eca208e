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

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dhowden/tag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

func decodeCompressed(r io.ReadSeeker, mime *mimetype.MIME, maxDur time.Duration) (*monoPCM, error) {
	var title, artist string
	if meta, err := tag.ReadFrom(r); err == nil {
		title, artist = meta.Title(), meta.Artist()
	} else {
		logrus.WithError(err).Debug("No audio tags")
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("decode: seek: %w", err)
	}

	stream, format, err := beepDecoder(mime)(r)
	if err != nil {
		return nil, err
	}
	//goland:noinspection GoUnhandledErrorResult
	defer stream.Close()

	samples, err := readMono(stream, maxFrames(int(format.SampleRate), maxDur))
	if err != nil {
		return nil, err
	}
	return &monoPCM{
		samples:  samples,
		rate:     int(format.SampleRate),
		channels: format.NumChannels,
		title:    title,
		artist:   artist,
	}, nil
}

type beepDecodeFunc func(io.Reader) (beep.StreamSeekCloser, beep.Format, error)

func beepDecoder(mime *mimetype.MIME) beepDecodeFunc {
	switch {
	case mime.Is("audio/mpeg"):
		return func(r io.Reader) (beep.StreamSeekCloser, beep.Format, error) {
			s, f, err := mp3.Decode(io.NopCloser(r))
			if err != nil {
				return s, f, fmt.Errorf("mp3: error decoding audio: %w", err)
			}
			return s, f, nil
		}
	case mime.Is("audio/flac"):
		return func(r io.Reader) (beep.StreamSeekCloser, beep.Format, error) {
			s, f, err := flac.Decode(r)
			if err != nil {
				return s, f, fmt.Errorf("flac: error decoding audio: %w", err)
			}
			return s, f, nil
		}
	default:
		return func(r io.Reader) (beep.StreamSeekCloser, beep.Format, error) {
			s, f, err := vorbis.Decode(io.NopCloser(r))
			if err != nil {
				return s, f, fmt.Errorf("ogg: error decoding audio: %w", err)
			}
			return s, f, nil
		}
	}
}

// readMono reads at most limit frames from s and averages the two beep
// channels. Mono sources arrive duplicated on both channels.
func readMono(s beep.Streamer, limit int) ([]float32, error) {
	out := make([]float32, 0, limit)
	buf := make([][2]float64, 4096)
	for len(out) < limit {
		want := limit - len(out)
		if want > len(buf) {
			want = len(buf)
		}
		n, ok := s.Stream(buf[:want])
		for _, frame := range buf[:n] {
			out = append(out, float32((frame[0]+frame[1])/2))
		}
		if !ok || n == 0 {
			break
		}
	}
	// the flac decoder reports the normal end of stream as io.EOF
	if err := s.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("beep: error streaming audio: %w", err)
	}
	return out, nil
}
