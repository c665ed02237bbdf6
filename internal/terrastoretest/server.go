// Package terrastoretest provides an in-memory Terrastore HTTP server for tests.
package terrastoretest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultSecretKey guards backup export and import unless changed with SetSecretKey.
const DefaultSecretKey = "SECRET-KEY"

// Request is a request received by the server.
type Request struct {
	Method string
	Path   []string // unescaped segments
	Query  url.Values
	Body   string
}

// Server is an in-memory Terrastore node.
//
// It supports predicates of type "field" ("field:name=value", equality of a top-level member),
// the "lexical-asc" and "lexical-desc" comparators and the "replace", "merge" and "counter"
// update functions.
type Server struct {
	*httptest.Server

	mu              sync.Mutex
	buckets         map[string]map[string]json.RawMessage
	backups         map[string]map[string]json.RawMessage
	secretKey       string
	functionLatency time.Duration
	failStatus      int
	requests        []Request
}

// NewServer starts a server. Close it when done.
func NewServer() *Server {
	s := &Server{
		buckets:   map[string]map[string]json.RawMessage{},
		backups:   map[string]map[string]json.RawMessage{},
		secretKey: DefaultSecretKey,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.Listener.Addr().String()
}

// SetFunctionLatency makes update functions take d to run.
// Updates whose timeout is shorter than d are aborted with status 408.
func (s *Server) SetFunctionLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.functionLatency = d
}

func (s *Server) SetSecretKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secretKey = key
}

// FailWith makes every request fail with status. Zero restores normal operation.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// Put stores a document directly, without going through HTTP.
func (s *Server) Put(bucket, key, doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(bucket, true)[key] = json.RawMessage(doc)
}

// Value returns the document stored under bucket and key.
func (s *Server) Value(bucket, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.bucket(bucket, false)[key]
	return string(doc), ok
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestCount returns the number of requests received so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// LastRequest returns the most recent request, or a zero Request.
func (s *Server) LastRequest() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) bucket(name string, create bool) map[string]json.RawMessage {
	b, ok := s.buckets[name]
	if !ok && create {
		b = map[string]json.RawMessage{}
		s.buckets[name] = b
	}
	return b
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	segments, err := splitPath(r.URL.EscapedPath())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()

	s.mu.Lock()
	s.requests = append(s.requests, Request{Method: r.Method, Path: segments, Query: query, Body: string(body)})
	failStatus := s.failStatus
	s.mu.Unlock()

	if failStatus != 0 {
		writeError(w, failStatus, http.StatusText(failStatus))
		return
	}

	switch {
	case len(segments) == 0 && r.Method == http.MethodGet:
		s.getBuckets(w)
	case len(segments) == 2 && segments[0] == "_stats" && segments[1] == "cluster" && r.Method == http.MethodGet:
		s.getClusterStats(w)
	case len(segments) == 1 && r.Method == http.MethodDelete:
		s.clearBucket(w, segments[0])
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.getAllValues(w, segments[0], query)
	case len(segments) == 2 && segments[1] == "range" && r.Method == http.MethodGet:
		s.queryByRange(w, segments[0], query)
	case len(segments) == 2 && segments[1] == "predicate" && r.Method == http.MethodGet:
		s.queryByPredicate(w, segments[0], query)
	case len(segments) == 2 && segments[1] == "export" && r.Method == http.MethodPost:
		s.exportBackup(w, segments[0], query)
	case len(segments) == 2 && segments[1] == "import" && r.Method == http.MethodPost:
		s.importBackup(w, segments[0], query)
	case len(segments) == 2 && r.Method == http.MethodPut:
		s.putValue(w, segments[0], segments[1], query, body)
	case len(segments) == 2 && r.Method == http.MethodGet:
		s.getValue(w, segments[0], segments[1], query)
	case len(segments) == 2 && r.Method == http.MethodDelete:
		s.removeValue(w, segments[0], segments[1])
	case len(segments) == 3 && segments[2] == "update" && r.Method == http.MethodPost:
		s.executeUpdate(w, r, segments[0], segments[1], query, body)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Sprintf("unsupported request %s %s", r.Method, r.URL.Path))
	}
}

func (s *Server) getBuckets(w http.ResponseWriter) {
	s.mu.Lock()
	names := make([]string, 0, len(s.buckets))
	for name := range s.buckets {
		names = append(names, name)
	}
	s.mu.Unlock()

	slices.Sort(names)
	writeJSON(w, names)
}

func (s *Server) getClusterStats(w http.ResponseWriter) {
	host, portStr, _ := net.SplitHostPort(s.Addr())
	port, _ := strconv.Atoi(portStr)

	writeJSON(w, map[string]any{
		"clusters": []any{
			map[string]any{
				"name":   "cluster-1",
				"status": "AVAILABLE",
				"nodes": []any{
					map[string]any{"name": "node-1", "host": host, "port": port},
				},
			},
		},
	})
}

func (s *Server) clearBucket(w http.ResponseWriter, bucket string) {
	s.mu.Lock()
	delete(s.buckets, bucket)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putValue(w http.ResponseWriter, bucket, key string, query url.Values, body []byte) {
	if !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "value is not a JSON document")
		return
	}

	var cond *predicate
	if query.Has("predicate") {
		p, err := parsePredicate(query.Get("predicate"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cond = &p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(bucket, true)
	if old, ok := b[key]; ok && cond != nil && !cond.match(old) {
		writeError(w, http.StatusConflict, "condition not satisfied for key "+key)
		return
	}
	b[key] = json.RawMessage(bytes.Clone(body))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getValue(w http.ResponseWriter, bucket, key string, query url.Values) {
	var cond *predicate
	if query.Has("predicate") {
		p, err := parsePredicate(query.Get("predicate"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cond = &p
	}

	s.mu.Lock()
	doc, ok := s.bucket(bucket, false)[key]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "key not found: "+key)
		return
	}
	if cond != nil && !cond.match(doc) {
		writeError(w, http.StatusConflict, "condition not satisfied for key "+key)
		return
	}
	writeRaw(w, http.StatusOK, doc)
}

func (s *Server) removeValue(w http.ResponseWriter, bucket, key string) {
	s.mu.Lock()
	delete(s.bucket(bucket, false), key)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAllValues(w http.ResponseWriter, bucket string, query url.Values) {
	limit, err := intParam(query, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := s.sortedEntries(bucket, strings.Compare)
	writeEntries(w, truncate(entries, limit))
}

func (s *Server) queryByRange(w http.ResponseWriter, bucket string, query url.Values) {
	compare, ok := comparators[query.Get("comparator")]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown comparator "+query.Get("comparator"))
		return
	}
	if !query.Has("startKey") {
		writeError(w, http.StatusBadRequest, "startKey is required")
		return
	}
	limit, err := intParam(query, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := intParam(query, "timeToLive"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cond *predicate
	if query.Has("predicate") {
		p, err := parsePredicate(query.Get("predicate"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cond = &p
	}

	start, end := query.Get("startKey"), query.Get("endKey")
	var found []entry
	for _, e := range s.sortedEntries(bucket, compare) {
		if compare(e.key, start) < 0 {
			continue
		}
		if end != "" && compare(e.key, end) > 0 {
			break
		}
		if cond != nil && !cond.match(e.doc) {
			continue
		}
		found = append(found, e)
	}
	writeEntries(w, truncate(found, limit))
}

func (s *Server) queryByPredicate(w http.ResponseWriter, bucket string, query url.Values) {
	p, err := parsePredicate(query.Get("predicate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var found []entry
	for _, e := range s.sortedEntries(bucket, strings.Compare) {
		if p.match(e.doc) {
			found = append(found, e)
		}
	}
	writeEntries(w, found)
}

func (s *Server) exportBackup(w http.ResponseWriter, bucket string, query url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if query.Get("secret") != s.secretKey {
		writeError(w, http.StatusBadRequest, "bad secret key")
		return
	}
	file := query.Get("destination")
	if file == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}

	backup := map[string]json.RawMessage{}
	for k, v := range s.bucket(bucket, false) {
		backup[k] = v
	}
	s.backups[file] = backup
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) importBackup(w http.ResponseWriter, bucket string, query url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if query.Get("secret") != s.secretKey {
		writeError(w, http.StatusBadRequest, "bad secret key")
		return
	}
	backup, ok := s.backups[query.Get("source")]
	if !ok {
		writeError(w, http.StatusNotFound, "backup not found: "+query.Get("source"))
		return
	}

	b := s.bucket(bucket, true)
	for k, v := range backup {
		b[k] = v
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) executeUpdate(w http.ResponseWriter, r *http.Request, bucket, key string, query url.Values, body []byte) {
	timeout, err := intParam(query, "timeout")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fn, ok := functions[query.Get("function")]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown update function "+query.Get("function"))
		return
	}
	params := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&params); err != nil {
			writeError(w, http.StatusBadRequest, "parameters are not a JSON object")
			return
		}
	}

	s.mu.Lock()
	latency := s.functionLatency
	doc, ok := s.bucket(bucket, false)[key]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "key not found: "+key)
		return
	}

	if latency > 0 {
		wait := latency
		expired := false
		if limit := time.Duration(timeout) * time.Millisecond; timeout > 0 && limit < latency {
			wait, expired = limit, true
		}
		select {
		case <-time.After(wait):
		case <-r.Context().Done():
			return
		}
		if expired {
			writeError(w, http.StatusRequestTimeout, "update timed out")
			return
		}
	}

	current := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&current); err != nil {
		writeError(w, http.StatusBadRequest, "stored value is not a JSON object")
		return
	}

	updated, err := fn(current, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := json.Marshal(updated)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	s.bucket(bucket, true)[key] = out
	s.mu.Unlock()

	writeRaw(w, http.StatusOK, out)
}

type entry struct {
	key string
	doc json.RawMessage
}

func (s *Server) sortedEntries(bucket string, compare func(a, b string) int) []entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.bucket(bucket, false)
	entries := make([]entry, 0, len(b))
	for k, v := range b {
		entries = append(entries, entry{key: k, doc: v})
	}
	slices.SortFunc(entries, func(x, y entry) int { return compare(x.key, y.key) })
	return entries
}

var comparators = map[string]func(a, b string) int{
	"":             strings.Compare,
	"lexical-asc":  strings.Compare,
	"lexical-desc": func(a, b string) int { return strings.Compare(b, a) },
}

func truncate(entries []entry, limit int) []entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func splitPath(escaped string) ([]string, error) {
	trimmed := strings.Trim(escaped, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		seg, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		parts[i] = seg
	}
	return parts, nil
}

func intParam(query url.Values, name string) (int, error) {
	v := query.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return n, nil
}

func writeEntries(w http.ResponseWriter, entries []entry) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(e.key)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(e.doc)
	}
	buf.WriteByte('}')
	writeRaw(w, http.StatusOK, buf.Bytes())
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeRaw(w, http.StatusOK, data)
}

func writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	data, _ := json.Marshal(map[string]any{"message": message, "code": status})
	writeRaw(w, status, data)
}
