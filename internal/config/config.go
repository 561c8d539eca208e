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

package config

import (
	"os"
	"runtime"
	"strconv"
)

// Config holds the tempotrack defaults, loaded from environment variables.
// Command line flags override them.
type Config struct {
	DBPath      string  // sqlite database; empty disables storage
	SampleRate  int     // analysis sample rate in Hz
	MaxDuration float64 // seconds decoded from the start of each file
	Workers     int     // files analysed in parallel
	LogLevel    string
	LogJSON     bool
	OutDir      string // plot data directory
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		DBPath:      envStr("TEMPO_DB", ""),
		SampleRate:  envInt("TEMPO_SAMPLE_RATE", 22050),
		MaxDuration: envFloat("TEMPO_MAX_DURATION", 75),
		Workers:     envInt("TEMPO_WORKERS", runtime.NumCPU()),
		LogLevel:    envStr("TEMPO_LOG_LEVEL", "info"),
		LogJSON:     envBool("TEMPO_LOG_JSON", false),
		OutDir:      envStr("TEMPO_OUT_DIR", "out"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
