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
	"os"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

// Setup configures the standard logrus logger. Logs go to stderr so that
// stdout stays free for results.
func Setup(level string, json bool) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)

	var lineFormatter logrus.Formatter
	if json {
		lineFormatter = &logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		}
	} else {
		lineFormatter = &logrus.TextFormatter{
			TimestampFormat:  timestampFormat,
			FullTimestamp:    true,
			QuoteEmptyFields: true,
		}
	}
	logrus.SetFormatter(&utcFormatter{lineFormatter})
	logrus.SetOutput(os.Stderr)
	return nil
}
