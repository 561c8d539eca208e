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
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/goccmack/tempotrack/synth"
	"github.com/goccmack/tempotrack/tempo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeClick(t *testing.T, bpm, seconds float64, rate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "click.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, synth.WriteWAV(f, synth.ClickTrack(bpm, seconds, rate), rate))
	return path
}

func TestWAVNativeRate(t *testing.T) {
	path := writeClick(t, 120, 4, 8000)

	clip, err := File(path, Options{MaxDuration: DefaultMaxDuration})
	require.NoError(t, err)

	assert.Equal(t, 8000, clip.SampleRate)
	assert.Equal(t, 8000, clip.SourceRate)
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, "audio/wav", clip.MimeType)
	assert.Equal(t, 4*time.Second, clip.Duration())

	want := synth.ClickTrack(120, 4, 8000)
	require.Len(t, clip.Samples, len(want))
	for i := range want {
		assert.InDelta(t, want[i], clip.Samples[i], 1e-3, "sample %d", i)
	}
}

func TestWAVMaxDuration(t *testing.T) {
	path := writeClick(t, 120, 8, 8000)
	clip, err := File(path, Options{MaxDuration: 2 * time.Second})
	require.NoError(t, err)
	assert.Len(t, clip.Samples, 16000)
}

func TestWAVResample(t *testing.T) {
	path := writeClick(t, 120, 4, 8000)
	clip, err := File(path, Options{SampleRate: 16000, MaxDuration: DefaultMaxDuration})
	require.NoError(t, err)

	assert.Equal(t, 16000, clip.SampleRate)
	assert.Equal(t, 8000, clip.SourceRate)
	assert.InDelta(t, 64000, len(clip.Samples), 64000*0.02)
}

func TestWAVStereoDownmix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	const frames = 4000
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           make([]int, frames*2),
		SourceBitDepth: 16,
	}
	for i := 0; i < frames; i++ {
		buf.Data[2*i] = 16384  // 0.5
		buf.Data[2*i+1] = 8192 // 0.25
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	clip, err := File(path, Options{MaxDuration: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, 2, clip.Channels)
	require.Len(t, clip.Samples, frames)
	for _, s := range clip.Samples {
		assert.InDelta(t, 0.375, s, 1e-6)
	}
}

func TestDecodedClickAnalyzes(t *testing.T) {
	path := writeClick(t, 120, 8, 8000)
	clip, err := File(path, Options{MaxDuration: DefaultMaxDuration})
	require.NoError(t, err)

	r := tempo.Analyze(clip.Samples, clip.SampleRate)
	require.True(t, r.OK())
	assert.InDelta(t, 120, r.BPM, 5)
}

func TestUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all\n"), 0o644))

	_, err := File(path, DefaultOptions())
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)
}

func TestInvalidOptions(t *testing.T) {
	path := writeClick(t, 120, 1, 8000)

	_, err := File(path, Options{})
	assert.ErrorIs(t, err, ErrInvalidMaxDuration)

	_, err = File(path, Options{SampleRate: -1, MaxDuration: time.Second})
	assert.Error(t, err)
}

func TestMissingFile(t *testing.T) {
	_, err := File(filepath.Join(t.TempDir(), "nope.wav"), DefaultOptions())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResampleIdentity(t *testing.T) {
	x := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, x, resample(x, 8000, 8000))
	assert.Empty(t, resample(nil, 8000, 16000))
}

func TestFLAC(t *testing.T) {
	// shorter than MaxDuration, so the decoder runs into the end of stream
	clip, err := File("testdata/stereo.flac", Options{MaxDuration: 5 * time.Second})
	require.NoError(t, err)

	assert.Equal(t, "audio/flac", clip.MimeType)
	assert.Equal(t, 2, clip.Channels)
	assert.Equal(t, 44100, clip.SourceRate)
	assert.Equal(t, 44100, clip.SampleRate)
	assert.InDelta(t, 20724, len(clip.Samples), 1)
}

func TestFLACTruncatedAndResampled(t *testing.T) {
	clip, err := File("testdata/stereo.flac", Options{MaxDuration: 200 * time.Millisecond})
	require.NoError(t, err)
	assert.Len(t, clip.Samples, 8820)

	clip, err = File("testdata/stereo.flac", Options{SampleRate: 22050, MaxDuration: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 22050, clip.SampleRate)
	assert.InDelta(t, 10362, len(clip.Samples), 10362*0.02)
}

func TestMP3(t *testing.T) {
	clip, err := File("testdata/speech.mp3", Options{MaxDuration: DefaultMaxDuration})
	require.NoError(t, err)

	assert.Equal(t, "audio/mpeg", clip.MimeType)
	assert.Equal(t, "Alice's Adventures in Wonderland", clip.Title)
	assert.Equal(t, "Lewis Carroll", clip.Artist)
	assert.Equal(t, 22050, clip.SourceRate)
	// go-mp3 always decodes to two channels
	assert.Equal(t, 2, clip.Channels)
	// 87 frames of 576 samples
	assert.InDelta(t, 87*576, len(clip.Samples), 3*576)
}

func TestMP3TruncatedAndResampled(t *testing.T) {
	clip, err := File("testdata/speech.mp3", Options{MaxDuration: time.Second})
	require.NoError(t, err)
	assert.Len(t, clip.Samples, 22050)

	clip, err = File("testdata/speech.mp3", Options{SampleRate: 11025, MaxDuration: time.Second})
	require.NoError(t, err)
	assert.Equal(t, 11025, clip.SampleRate)
	assert.InDelta(t, 11025, len(clip.Samples), 11025*0.02)
}

func TestOggVorbis(t *testing.T) {
	clip, err := File("testdata/mono.ogg", Options{MaxDuration: DefaultMaxDuration})
	require.NoError(t, err)

	assert.Contains(t, clip.MimeType, "ogg")
	assert.Equal(t, 1, clip.Channels)
	assert.Equal(t, 44100, clip.SourceRate)
	assert.InDelta(t, 44100, len(clip.Samples), 1024)

	clip, err = File("testdata/mono.ogg", Options{SampleRate: 22050, MaxDuration: 500 * time.Millisecond})
	require.NoError(t, err)
	assert.InDelta(t, 11025, len(clip.Samples), 11025*0.02)
}

// endStreamer yields frames of (l, r). Its error is io.EOF once they are
// used up unless err is preset.
type endStreamer struct {
	frames int
	l, r   float64
	err    error
}

func (s *endStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.frames == 0 {
		return 0, false
	}
	for n < len(samples) && s.frames > 0 {
		samples[n] = [2]float64{s.l, s.r}
		n++
		s.frames--
	}
	if s.frames == 0 && s.err == nil {
		s.err = io.EOF
	}
	return n, true
}

func (s *endStreamer) Err() error {
	return s.err
}

func TestReadMonoEndOfStream(t *testing.T) {
	var s beep.Streamer = &endStreamer{frames: 5000, l: 0.5, r: 0.25}
	x, err := readMono(s, 10000)
	require.NoError(t, err)
	require.Len(t, x, 5000)
	assert.InDelta(t, 0.375, x[0], 1e-6)

	x, err = readMono(&endStreamer{frames: 5000}, 3000)
	require.NoError(t, err)
	assert.Len(t, x, 3000)
}

func TestReadMonoStreamError(t *testing.T) {
	s := &endStreamer{frames: 10, err: errors.New("corrupt frame")}
	_, err := readMono(s, 100)
	assert.Error(t, err)
}
