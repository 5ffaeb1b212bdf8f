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

// promexport is a demonstration exporter: it installs a Prometheus renderer
// as the process-wide recorder, instruments its own request handling, and
// serves the rendered exposition payload. The core library owns no
// transport; this binary is the caller side that does.
package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/julienschmidt/httprouter"

	"github.com/seeekr/metrics"
	"github.com/seeekr/metrics/config"
	"github.com/seeekr/metrics/expfmt"
	"github.com/seeekr/metrics/log"
	"github.com/seeekr/metrics/model"
)

var (
	listenAddress = kingpin.Flag("web.listen-address", "Address on which to expose metrics.").Default(":9099").String()
	configFile    = kingpin.Flag("config.file", "Optional YAML renderer configuration.").String()
	logLevel      = kingpin.Flag("log.level", "Only log messages with the given severity or above.").Default("info").String()
)

// lockedRenderer serializes access to a single-writer Renderer so the
// package helpers and the scrape handler can share it across goroutines.
// This is the external coordination the renderer itself deliberately omits.
type lockedRenderer struct {
	mtx      sync.Mutex
	renderer *expfmt.Renderer
}

func (l *lockedRenderer) RecordCounter(key model.Key, value uint64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.renderer.RecordCounter(key, value)
}

func (l *lockedRenderer) RecordGauge(key model.Key, value int64) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.renderer.RecordGauge(key, value)
}

func (l *lockedRenderer) RecordHistogram(key model.Key, values []uint64) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.renderer.RecordHistogram(key, values)
}

// scrape finalizes the current renderer and swaps in a fresh clone, so each
// scrape serves the measurements recorded since the previous one.
func (l *lockedRenderer) scrape() (string, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	out, err := l.renderer.Render()
	if err != nil {
		return "", err
	}
	l.renderer = l.renderer.Clone()
	return out, nil
}

func main() {
	kingpin.Parse()

	if err := log.SetLevel(*logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.DefaultConfig
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			log.Base().Errorf("loading config: %v", err)
			os.Exit(1)
		}
		cfg = *loaded
	}

	renderer, err := expfmt.NewWithOptions(expfmt.Options{
		Quantiles: cfg.Quantiles,
		Sketch:    cfg.Sketch,
	})
	if err != nil {
		log.Base().Errorf("creating renderer: %v", err)
		os.Exit(1)
	}

	exporter := &lockedRenderer{renderer: renderer}
	if err := metrics.Install(exporter); err != nil {
		log.Base().Errorf("installing recorder: %v", err)
		os.Exit(1)
	}

	router := httprouter.New()
	router.GET("/metrics", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		start := time.Now()
		payload, err := exporter.scrape()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		metrics.Counter("promexport.scrapes", 1)
		metrics.Since("promexport.scrape_duration", start)

		w.Header().Set("Content-Type", string(expfmt.Negotiate(r.Header)))
		fmt.Fprintln(w, payload)
	})

	log.With("address", *listenAddress).Infof("listening")
	if err := http.ListenAndServe(*listenAddress, router); err != nil {
		log.Base().Errorf("serving: %v", err)
		os.Exit(1)
	}
}
