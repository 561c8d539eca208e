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
Package store persists tempo analyses in SQLite, keyed by media ID.

A record carries the BPM shown to users together with its source. An
automatic analysis only updates the user-facing BPM while the source is
auto; a manual BPM is kept until it is set again.
*/
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/goccmack/tempotrack/tempo"
)

// AnalysisVersion is stamped on every automatic analysis. Records with a
// different version are analyzed again.
const AnalysisVersion = "1"

// Source tells where the user-facing BPM came from.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
)

var ErrNotFound = errors.New("store: media not found")

// Auto is the last automatic analysis of a media item.
type Auto struct {
	BPM          float64
	Confidence   float64
	TempoFamily  []float64
	BeatTimesSec []float64
	AnalyzedAt   time.Time
	Version      string
}

// Record is the stored tempo state of one media item.
type Record struct {
	MediaID string
	Title   string
	BPM     float64
	Source  Source
	Auto    *Auto // nil until an automatic analysis has been saved
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening database")
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	if err := createTables(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error creating tables")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS tempo (
		media_id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		bpm REAL NOT NULL,
		bpm_source TEXT NOT NULL,
		auto_bpm REAL,
		auto_confidence REAL,
		auto_tempo_family TEXT,
		auto_beat_times TEXT,
		auto_analyzed_at INTEGER,
		auto_version TEXT
	);
	`)
	return err
}

// SaveAuto stores an automatic analysis of mediaID. NoBeat results are not
// stored and saved is false. The user-facing BPM follows the analysis
// unless it was set manually.
func (s *Store) SaveAuto(mediaID, title string, r tempo.Result, at time.Time) (saved bool, err error) {
	if !r.OK() {
		return false, nil
	}
	family, err := json.Marshal(nonNil(r.TempoFamily))
	if err != nil {
		return false, errors.Wrap(err, "error encoding tempo family")
	}
	beats, err := json.Marshal(nonNil(r.BeatTimesSec))
	if err != nil {
		return false, errors.Wrap(err, "error encoding beat times")
	}

	_, err = s.db.Exec(`
	INSERT INTO tempo (media_id, title, bpm, bpm_source,
		auto_bpm, auto_confidence, auto_tempo_family, auto_beat_times, auto_analyzed_at, auto_version)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(media_id) DO UPDATE SET
		title = CASE WHEN excluded.title != '' THEN excluded.title ELSE tempo.title END,
		bpm = CASE WHEN tempo.bpm_source = 'manual' THEN tempo.bpm ELSE excluded.bpm END,
		auto_bpm = excluded.auto_bpm,
		auto_confidence = excluded.auto_confidence,
		auto_tempo_family = excluded.auto_tempo_family,
		auto_beat_times = excluded.auto_beat_times,
		auto_analyzed_at = excluded.auto_analyzed_at,
		auto_version = excluded.auto_version
	`, mediaID, title, r.BPM, string(SourceAuto),
		r.BPM, r.Confidence, string(family), string(beats), at.UTC().UnixNano(), AnalysisVersion)
	if err != nil {
		return false, errors.Wrapf(err, "error saving analysis of %s", mediaID)
	}
	return true, nil
}

// SetManual makes bpm the user-facing tempo of mediaID. Automatic analyses
// saved later do not replace it.
func (s *Store) SetManual(mediaID string, bpm float64) error {
	if bpm <= 0 {
		return errors.Errorf("store: invalid manual bpm %v", bpm)
	}
	_, err := s.db.Exec(`
	INSERT INTO tempo (media_id, bpm, bpm_source) VALUES (?, ?, ?)
	ON CONFLICT(media_id) DO UPDATE SET bpm = excluded.bpm, bpm_source = excluded.bpm_source
	`, mediaID, bpm, string(SourceManual))
	if err != nil {
		return errors.Wrapf(err, "error setting manual bpm of %s", mediaID)
	}
	return nil
}

// Get returns the record of mediaID or ErrNotFound.
func (s *Store) Get(mediaID string) (*Record, error) {
	var (
		rec                   = &Record{MediaID: mediaID}
		source                string
		autoBPM, autoConf     sql.NullFloat64
		autoFamily, autoBeats sql.NullString
		autoAt                sql.NullInt64
		autoVersion           sql.NullString
	)
	err := s.db.QueryRow(`
	SELECT title, bpm, bpm_source, auto_bpm, auto_confidence, auto_tempo_family,
		auto_beat_times, auto_analyzed_at, auto_version
	FROM tempo WHERE media_id = ?
	`, mediaID).Scan(&rec.Title, &rec.BPM, &source, &autoBPM, &autoConf, &autoFamily,
		&autoBeats, &autoAt, &autoVersion)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %s", mediaID)
	}
	rec.Source = Source(source)

	if autoVersion.Valid {
		auto := &Auto{
			BPM:        autoBPM.Float64,
			Confidence: autoConf.Float64,
			AnalyzedAt: time.Unix(0, autoAt.Int64).UTC(),
			Version:    autoVersion.String,
		}
		if err := json.Unmarshal([]byte(autoFamily.String), &auto.TempoFamily); err != nil {
			return nil, errors.Wrap(err, "error decoding tempo family")
		}
		if err := json.Unmarshal([]byte(autoBeats.String), &auto.BeatTimesSec); err != nil {
			return nil, errors.Wrap(err, "error decoding beat times")
		}
		rec.Auto = auto
	}
	return rec, nil
}

// NeedsAnalysis reports whether mediaID should be analyzed: it has no
// record, or its automatic analysis is missing or from another version while
// the BPM is not manual.
func (s *Store) NeedsAnalysis(mediaID string) (bool, error) {
	rec, err := s.Get(mediaID)
	if err == ErrNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if rec.Source == SourceManual {
		return false, nil
	}
	return rec.Auto == nil || rec.Auto.Version != AnalysisVersion, nil
}

func nonNil(x []float64) []float64 {
	if x == nil {
		return []float64{}
	}
	return x
}
