// go-em410x
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-em410x.
//
// go-em410x is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-em410x is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-em410x; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package control serves a read-only HTTP view of the standalone machine.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	em410x "github.com/ZaparooProject/go-em410x"
	"github.com/ZaparooProject/go-em410x/standalone"
)

const (
	defaultPort     = 8410
	shutdownTimeout = 5 * time.Second
)

// StatusSource reports the machine state.
type StatusSource interface {
	Status() standalone.Status
}

// Dumper lists persisted identifiers.
type Dumper interface {
	ReadAll() ([]em410x.ID, error)
}

// APIServer serves the status API until stopped.
type APIServer interface {
	Serve() error
	Stop() error
	Handler() http.Handler
}

// NewAPIServer creates a server for addr. dumper may be nil when persistence
// is disabled.
func NewAPIServer(addr string, status StatusSource, dumper Dumper) APIServer {
	return &api{address: addr, status: status, dumper: dumper}
}

type api struct {
	status  StatusSource
	dumper  Dumper
	server  *http.Server
	address string
	mu      sync.Mutex
}

func (a *api) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.getStatus)
	addRoute(router, "dump", "GET", "/dump", a.dump)
	addRoute(router, "frame", "GET", "/frame/{id}", a.frame)

	return router
}

func (a *api) Serve() error {
	addr := a.address
	if !strings.Contains(addr, ":") {
		addr = fmt.Sprintf("%s:%d", a.address, defaultPort)
	}

	log.Infof("EM410x API starts listening on %s", addr)
	a.mu.Lock()
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := a.server
	a.mu.Unlock()

	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *api) Stop() error {
	a.mu.Lock()
	srv := a.server
	a.server = nil
	a.mu.Unlock()

	if srv == nil {
		return nil
	}
	log.Info("API server stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func addRoute(r *mux.Router, name, method, pattern string, handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

func (a *api) getStatus(w http.ResponseWriter, req *http.Request) {
	stat := newStatus(a.status.Status())
	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}

func (a *api) dump(w http.ResponseWriter, req *http.Request) {
	if a.dumper == nil {
		handleError(errors.New("persistence is disabled"), http.StatusNotFound, w)
		return
	}

	ids, err := a.dumper.ReadAll()
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	if wantsJSON(req) {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		sendJSONReply(&Dump{IDs: out}, http.StatusOK, w)
		return
	}

	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(id.String())
		sb.WriteByte('\n')
	}
	sendReply([]byte(strings.TrimSuffix(sb.String(), "\n")), http.StatusOK, w)
}

func (a *api) frame(w http.ResponseWriter, req *http.Request) {
	id, err := em410x.ParseID(mux.Vars(req)["id"])
	if handleError(err, http.StatusBadRequest, w) {
		return
	}

	f := em410x.Encode(id)
	fr := &Frame{
		ID:      id.String(),
		Bits:    f.String(),
		Packed:  fmt.Sprintf("%X", f.Bytes()),
		Samples: em410x.SampleBufferLen,
	}
	if wantsJSON(req) {
		sendJSONReply(fr, http.StatusOK, w)
	} else {
		sendReply([]byte(fr.Bits), http.StatusOK, w)
	}
}

func handleError(e error, statusCode int, w http.ResponseWriter) bool {
	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%v\n", e); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
	return true
}

func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

func sendJSONReply(obj any, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing reply: %v", err)
	}
}

func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

// wantsJSON accepts either an Accept or a Content-Type asking for JSON.
func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json") ||
		strings.HasPrefix(req.Header.Get("Content-Type"), "application/json")
}
