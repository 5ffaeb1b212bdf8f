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

// Package expfmt renders recorded metrics into the Prometheus text
// exposition format.
package expfmt

import (
	"net/http"

	"github.com/munnerz/goautoneg"
)

// Format specifies the wire format of an exposition payload, expressed as a
// Content-Type value.
type Format string

// TextVersion is the version of the Prometheus text exposition format this
// package produces.
const TextVersion = "0.0.4"

// Constants to assemble the Content-Type values for the different wire
// protocols.
const (
	FmtUnknown Format = `<unknown>`
	FmtText    Format = `text/plain; version=` + TextVersion + `; charset=utf-8`
)

const hdrAccept = "Accept"

// Negotiate returns the Content-Type for the given Accept header. The text
// format is the only format this package produces, so it is also the
// fallback when no accepted type matches; callers serving the rendered
// payload over HTTP use the result as the response Content-Type.
func Negotiate(h http.Header) Format {
	for _, ac := range goautoneg.ParseAccept(h.Get(hdrAccept)) {
		ver := ac.Params["version"]
		if ac.Type == "text" && ac.SubType == "plain" && (ver == TextVersion || ver == "") {
			return FmtText
		}
	}
	return FmtText
}
