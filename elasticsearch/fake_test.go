package elasticsearch

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDomain is an in memory document store answering the index, get and
// delete document endpoints.
type fakeDomain struct {
	mu sync.Mutex

	docs     map[string]json.RawMessage
	versions map[string]int64

	// every Authorization and mocktracer trace id header seen, in order
	auths  []string
	traces []string

	// if set, GET returns this in place of the stored source
	tamper func(string, json.RawMessage) json.RawMessage
	// if non zero every request fails with this status
	failWith int
}

func newFakeDomain(t *testing.T) (*fakeDomain, *httptest.Server) {
	t.Helper()
	fd := &fakeDomain{
		docs:     map[string]json.RawMessage{},
		versions: map[string]int64{},
	}
	srv := httptest.NewServer(fd)
	t.Cleanup(srv.Close)
	return fd, srv
}

func (fd *fakeDomain) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	fd.auths = append(fd.auths, r.Header.Get("Authorization"))
	fd.traces = append(fd.traces, r.Header.Get("mockpfx-ids-traceid"))
	w.Header().Set("Content-Type", "application/json")

	if fd.failWith != 0 {
		w.WriteHeader(fd.failWith)
		_, _ = io.WriteString(w, `{"error":"injected"}`)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ident := map[string]any{"_index": parts[0], "_type": parts[1], "_id": parts[2]}
	key := r.URL.Path

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		body, err := io.ReadAll(r.Body)
		if err != nil || !json.Valid(body) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		status, result := http.StatusCreated, "created"
		if _, ok := fd.docs[key]; ok {
			status, result = http.StatusOK, "updated"
		}
		fd.docs[key] = body
		fd.versions[key]++
		ident["_version"] = fd.versions[key]
		ident["result"] = result
		writeJSON(w, status, ident)

	case http.MethodGet:
		doc, ok := fd.docs[key]
		if !ok {
			ident["found"] = false
			writeJSON(w, http.StatusNotFound, ident)
			return
		}
		if fd.tamper != nil {
			doc = fd.tamper(key, doc)
		}
		ident["found"] = true
		ident["_version"] = fd.versions[key]
		ident["_source"] = doc
		writeJSON(w, http.StatusOK, ident)

	case http.MethodDelete:
		if _, ok := fd.docs[key]; !ok {
			ident["result"] = "not_found"
			writeJSON(w, http.StatusNotFound, ident)
			return
		}
		delete(fd.docs, key)
		fd.versions[key]++
		ident["_version"] = fd.versions[key]
		ident["result"] = "deleted"
		writeJSON(w, http.StatusOK, ident)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fd *fakeDomain) stored(key string) (json.RawMessage, bool) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	doc, ok := fd.docs[key]
	return doc, ok
}

func (fd *fakeDomain) authorizations() []string {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]string(nil), fd.auths...)
}

func (fd *fakeDomain) traceIDs() []string {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return append([]string(nil), fd.traces...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// configFor points a Config at the fake domain.
func configFor(t *testing.T, srv *httptest.Server, log Logger) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	return Config{
		Log:         log,
		ServiceName: "smoke-es",
		Scheme:      u.Scheme,
		Host:        u.Hostname(),
		Port:        port,
		AccessKey:   "AKID",
		SecretKey:   "SECRET",
		Region:      DefaultRegion,
	}
}
