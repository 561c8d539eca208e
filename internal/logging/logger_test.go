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

package logging

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevel(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	require.NoError(t, Setup("debug", false))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	require.NoError(t, Setup("", false))
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	assert.Error(t, Setup("loud", false))
}

func TestUTCFormatter(t *testing.T) {
	f := utcFormatter{&logrus.JSONFormatter{TimestampFormat: timestampFormat}}
	entry := logrus.NewEntry(logrus.New())
	entry.Time = time.Date(2024, 3, 1, 14, 0, 0, 0, time.FixedZone("CET", 3600))
	entry.Message = "hello"

	b, err := f.Format(entry)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &line))
	assert.Equal(t, "2024-03-01 13:00:00.000 Z", line["time"])
	assert.Equal(t, "hello", line["msg"])
}
