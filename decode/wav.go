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

	"github.com/go-audio/wav"
)

func decodeWAV(r io.ReadSeeker, maxDur time.Duration) (*monoPCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("wav: invalid file: %w", err)
		}
		return nil, errors.New("wav: invalid file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav: error decoding audio: %w", err)
	}

	channels := int(d.NumChans)
	rate := int(d.SampleRate)
	data := buf.AsFloat32Buffer().Data

	frames := len(data) / channels
	if limit := maxFrames(rate, maxDur); frames > limit {
		frames = limit
	}
	mono := make([]float32, frames)
	for i := range mono {
		sum := float32(0)
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}

	return &monoPCM{samples: mono, rate: rate, channels: channels}, nil
}
