// Copyright 2019 The Metrics Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides the leveled logger used by the parts of this module
// that have no error return to surface faults through.
package log

import (
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Logger is the leveled logging interface this module writes through.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})

	Info(...interface{})
	Infof(string, ...interface{})

	Warn(...interface{})
	Warnf(string, ...interface{})

	Error(...interface{})
	Errorf(string, ...interface{})
}

// Base returns the package logger.
func Base() Logger {
	return logger
}

// With returns a logger annotated with the given key/value pair.
func With(key string, value interface{}) Logger {
	return logger.WithField(key, value)
}

// SetLevel sets the package logger's severity threshold. Valid levels:
// debug, info, warn, error, fatal.
func SetLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(l)
	return nil
}
