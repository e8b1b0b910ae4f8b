// Copyright 2020 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package s3mockserver is an in-memory S3 object store for tests.
// It serves path style PutObject, GetObject with ranges and HeadObject.
package s3mockserver

import (
	"bytes"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"
)

type S3Server struct {
	*httptest.Server
	objects   map[string][]byte
	blockTime time.Duration
	gets      int
	mu        sync.Mutex

	putObjectHook func(bucket, key string, body []byte, w http.ResponseWriter) bool
}

type S3ServerOption func(*S3Server)

func WithBlockTime(blockTime time.Duration) S3ServerOption {
	return func(s *S3Server) {
		s.blockTime = blockTime
	}
}

// WithPutObjectHook sets a hook called before an uploaded object is stored.
// The object is dropped if the hook returns false; the hook is then
// responsible for the response.
func WithPutObjectHook(h func(bucket, key string, body []byte, w http.ResponseWriter) bool) S3ServerOption {
	return func(s *S3Server) {
		s.putObjectHook = h
	}
}

func NewS3Server(opts ...S3ServerOption) *S3Server {
	s := &S3Server{
		objects: make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

func objectName(bucket, key string) string {
	return bucket + "/" + key
}

func (s *S3Server) GetObject(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[objectName(bucket, key)]
	return b, ok
}

func (s *S3Server) RegisterObject(bucket, key string, body []byte) {
	s.mu.Lock()
	s.objects[objectName(bucket, key)] = body
	s.mu.Unlock()
}

// Keys returns the sorted keys stored in bucket.
func (s *S3Server) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for name := range s.objects {
		if key, ok := strings.CutPrefix(name, bucket+"/"); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// GetRequests returns the number of GetObject requests served.
func (s *S3Server) GetRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets
}

type errorResponse struct {
	XMLName xml.Name `xml:"Error"`
	Code    string
	Message string
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	xml.NewEncoder(w).Encode(&errorResponse{Code: code, Message: message})
}

func (s *S3Server) handle(w http.ResponseWriter, r *http.Request) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if !ok || bucket == "" || key == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "path style bucket and key required")
		return
	}
	time.Sleep(s.blockTime)

	switch r.Method {
	case http.MethodPut:
		s.putObject(w, r, bucket, key)
	case http.MethodGet, http.MethodHead:
		s.getObject(w, r, bucket, key)
	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", r.Method)
	}
}

func (s *S3Server) putObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "InternalError", err.Error())
		return
	}
	if s.putObjectHook != nil {
		if !s.putObjectHook(bucket, key, body, w) {
			return
		}
	}
	s.RegisterObject(bucket, key, body)
	w.Header().Set("ETag", `"mock"`)
	w.WriteHeader(http.StatusOK)
}

func (s *S3Server) getObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	s.mu.Lock()
	body, ok := s.objects[objectName(bucket, key)]
	if r.Method == http.MethodGet {
		s.gets++
	}
	s.mu.Unlock()
	if !ok {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeError(w, http.StatusNotFound, "NoSuchKey", "The specified key does not exist.")
		return
	}
	http.ServeContent(w, r, key, time.Time{}, bytes.NewReader(body))
}
