package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatrails/go-datatrails-smoketest/logger"
	"github.com/datatrails/go-datatrails-smoketest/report"
)

func newTestSmokeTester(t *testing.T) (*SmokeTester, *fakeDomain) {
	t.Helper()
	fd, srv := newFakeDomain(t)

	tester, err := NewSmokeTester(configFor(t, srv, logger.Sugar))
	require.NoError(t, err)
	return tester, fd
}

func TestRunLiteral(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, fd := newTestSmokeTester(t)

	result, err := tester.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "movies", result.Index)
	assert.Equal(t, "doc", result.Type)
	assert.Equal(t, "1", result.ID)
	assert.True(t, result.Found)
	assert.Equal(t, int64(1), result.Version)

	var source Document
	require.NoError(t, json.Unmarshal(result.Source, &source))
	assert.Equal(t, SampleDocument(), source)
	assert.Len(t, source.Starring, 11)
	assert.True(t, tester.TestExpected(result))

	_, ok := fd.stored("/movies/doc/1")
	assert.True(t, ok)

	for _, auth := range fd.authorizations() {
		assert.True(t, strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/"), auth)
		assert.Contains(t, auth, "/us-gov-west-1/es/aws4_request")
	}
	assert.Len(t, fd.authorizations(), 2)
}

func TestRunTracedRequestsAreSigned(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	tester, fd := newTestSmokeTester(t)

	span, ctx := opentracing.StartSpanFromContext(context.Background(), "smoke")
	_, err := tester.Run(ctx)
	require.NoError(t, err)
	span.Finish()

	traceID := strconv.Itoa(span.Context().(mocktracer.MockSpanContext).TraceID)
	assert.Equal(t, []string{traceID, traceID}, fd.traceIDs())

	// the trace header went out before signing so it is covered
	for _, auth := range fd.authorizations() {
		assert.Contains(t, auth, "mockpfx-ids-traceid")
	}

	var names []string
	for _, sp := range tracer.FinishedSpans() {
		names = append(names, sp.OperationName)
	}
	assert.Contains(t, names, "HTTP PUT")
	assert.Contains(t, names, "HTTP GET")
	assert.Contains(t, names, "elasticsearch.smoketest.IndexAndGet")
}

func TestRunUntracedRequests(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, fd := newTestSmokeTester(t)

	_, err := tester.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"", ""}, fd.traceIDs())
}

func TestIndexAndGetCustomOptions(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, _ := newTestSmokeTester(t)

	result, err := tester.IndexAndGet(context.Background(), IndexOptions{
		Index:        "books",
		DocumentType: "doc",
		ID:           "42",
		Body:         map[string]string{"title": "Kindred"},
	})
	require.NoError(t, err)

	assert.Equal(t, Identity{Index: "books", Type: "doc", ID: "42"}, result.Identity)
	assert.JSONEq(t, `{"title":"Kindred"}`, string(result.Source))
	assert.False(t, tester.TestExpected(result))
}

func TestRunReindexBumpsVersion(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, _ := newTestSmokeTester(t)
	ctx := context.Background()

	_, err := tester.Run(ctx)
	require.NoError(t, err)
	result, err := tester.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Version)
	assert.True(t, tester.TestExpected(result))
}

func TestIndexAndGetErrorStatus(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, fd := newTestSmokeTester(t)
	fd.failWith = http.StatusForbidden

	_, err := tester.Run(context.Background())
	assert.ErrorIs(t, err, ErrIndex)
	assert.ErrorIs(t, err, ErrResponse)
	assert.Contains(t, err.Error(), "403")
}

func TestDeleteIndex(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, fd := newTestSmokeTester(t)
	ctx := context.Background()

	_, err := tester.Run(ctx)
	require.NoError(t, err)

	// the argument does not change what is deleted
	result, err := tester.DeleteIndex(ctx, "something-else")
	require.NoError(t, err)
	assert.Equal(t, "deleted", result.Result)
	assert.Equal(t, Identity{Index: "movies", Type: "doc", ID: "1"}, result.Identity)

	_, ok := fd.stored("/movies/doc/1")
	assert.False(t, ok)

	_, err = tester.DeleteIndex(ctx, "movies")
	assert.ErrorIs(t, err, ErrDelete)
	assert.ErrorIs(t, err, ErrResponse)
}

func TestTestExpected(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, _ := newTestSmokeTester(t)

	sample, err := json.Marshal(SampleDocument())
	require.NoError(t, err)
	ident := Identity{Index: "movies", Type: "doc", ID: "1"}

	tests := []struct {
		name     string
		result   GetResult
		expected bool
	}{
		{
			name:     "match",
			result:   GetResult{Identity: ident, Found: true, Source: sample},
			expected: true,
		},
		{
			name:     "key order does not matter",
			result:   GetResult{Identity: ident, Source: json.RawMessage(`{"year":"2018","title":"Black Panther","director":"Ryan Coogler","starring":["Chadwick Boseman","Michael B. Jordan","Lupita Nyong'o","Danai Gurira","Martin Freeman","Daniel Kaluuya","Letitia Wright","Winston Duke","Angela Bassett","Forest Whitaker","Andy Serkis"]}`)},
			expected: true,
		},
		{
			name:   "wrong index",
			result: GetResult{Identity: Identity{Index: "films", Type: "doc", ID: "1"}, Source: sample},
		},
		{
			name:   "wrong type",
			result: GetResult{Identity: Identity{Index: "movies", Type: "_doc", ID: "1"}, Source: sample},
		},
		{
			name:   "wrong id",
			result: GetResult{Identity: Identity{Index: "movies", Type: "doc", ID: "2"}, Source: sample},
		},
		{
			name:   "different year",
			result: GetResult{Identity: ident, Source: bytes.Replace(sample, []byte(`"2018"`), []byte(`"2019"`), 1)},
		},
		{
			name:   "missing source",
			result: GetResult{Identity: ident},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, tester.TestExpected(test.result))
		})
	}
}

func TestCheck(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, _ := newTestSmokeTester(t)

	var out bytes.Buffer
	err := tester.Check(context.Background(), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "smoke-es: results matched")
}

func TestCheckMismatch(t *testing.T) {
	logger.New("NOOP")
	defer logger.OnExit()

	tester, fd := newTestSmokeTester(t)
	// drop the last cast member on the way back out
	fd.tamper = func(_ string, doc json.RawMessage) json.RawMessage {
		return json.RawMessage(strings.Replace(string(doc), `,"Andy Serkis"`, "", 1))
	}

	var out bytes.Buffer
	err := tester.Check(context.Background(), &out)
	assert.ErrorIs(t, err, ErrResultsMismatch)
	assert.Contains(t, out.String(), report.MismatchHeading)
	assert.Contains(t, out.String(), "Diff")
	assert.Contains(t, out.String(), `"/_source/starring/10"`)
}

func TestNewSmokeTesterNoServiceName(t *testing.T) {
	_, err := NewSmokeTester(Config{})
	assert.ErrorIs(t, err, ErrNoServiceName)
}
