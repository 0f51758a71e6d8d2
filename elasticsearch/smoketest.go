package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"

	elasticsearch "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	otrace "github.com/opentracing/opentracing-go"

	"github.com/datatrails/go-datatrails-smoketest/report"
	"github.com/datatrails/go-datatrails-smoketest/tracing"
)

const (
	SampleIndex        = "movies"
	SampleDocumentType = "doc"
	SampleID           = "1"

	// error bodies are truncated to this in error messages
	maxErrorBody = 512
)

type Document struct {
	Title    string   `json:"title"`
	Director string   `json:"director"`
	Starring []string `json:"starring"`
	Year     string   `json:"year"`
}

// SampleDocument returns a fresh copy of the document the smoke test writes.
func SampleDocument() Document {
	return Document{
		Title:    "Black Panther",
		Director: "Ryan Coogler",
		Starring: []string{
			"Chadwick Boseman",
			"Michael B. Jordan",
			"Lupita Nyong'o",
			"Danai Gurira",
			"Martin Freeman",
			"Daniel Kaluuya",
			"Letitia Wright",
			"Winston Duke",
			"Angela Bassett",
			"Forest Whitaker",
			"Andy Serkis",
		},
		Year: "2018",
	}
}

// IndexOptions addresses a single document.
type IndexOptions struct {
	Index        string
	DocumentType string
	ID           string
	Body         any
}

func SampleIndexOptions() IndexOptions {
	return IndexOptions{
		Index:        SampleIndex,
		DocumentType: SampleDocumentType,
		ID:           SampleID,
		Body:         SampleDocument(),
	}
}

func (o IndexOptions) path() string {
	return path.Join("/", o.Index, o.DocumentType, o.ID)
}

type Identity struct {
	Index string `json:"_index"`
	Type  string `json:"_type"`
	ID    string `json:"_id"`
}

// GetResult is the document GET response. Source is kept raw so that any
// field the server adds shows up in the comparison.
type GetResult struct {
	Identity
	Version int64           `json:"_version"`
	Found   bool            `json:"found"`
	Source  json.RawMessage `json:"_source"`
}

type DeleteResult struct {
	Identity
	Version int64  `json:"_version"`
	Result  string `json:"result"`
}

type SmokeTester struct {
	cfg    Config
	client *elasticsearch.Client
}

type SmokeTesterOption func(*smokeTesterOptions)

type smokeTesterOptions struct {
	signing []SigningOption
}

// WithSigningOptions is passed through to NewSigningTransport
func WithSigningOptions(opts ...SigningOption) SmokeTesterOption {
	return func(o *smokeTesterOptions) {
		o.signing = append(o.signing, opts...)
	}
}

// NewSmokeTester creates a client for the configured domain. No request is
// made until the test runs.
func NewSmokeTester(cfg Config, opts ...SmokeTesterOption) (*SmokeTester, error) {
	if cfg.ServiceName == "" {
		return nil, ErrNoServiceName
	}
	o := smokeTesterOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}

	// trace headers are added before signing so the signature covers them
	transport := tracing.NewTransport(
		NewSigningTransport(cfg.AccessKey, cfg.SecretKey, region, o.signing...),
		"elasticsearch "+cfg.ServiceName,
	)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{cfg.Address()},
		Transport:    transport,
		DisableRetry: true,
	})
	if err != nil {
		return nil, ClientError(err, cfg.Address())
	}
	cfg.Log.Infof("elasticsearch client for %s at %s", cfg.ServiceName, cfg.Address())

	return &SmokeTester{
		cfg:    cfg,
		client: client,
	}, nil
}

func (t *SmokeTester) Log() Logger {
	return t.cfg.Log
}

// IndexAndGet writes options.Body and reads it straight back.
func (t *SmokeTester) IndexAndGet(ctx context.Context, options IndexOptions) (GetResult, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "elasticsearch.smoketest.IndexAndGet")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	docPath := options.path()
	span.SetTag("path", docPath)

	body, err := json.Marshal(options.Body)
	if err != nil {
		return GetResult{}, IndexError(err, docPath)
	}

	log.Debugf("IndexAndGet: index %s", docPath)
	res, err := esapi.IndexRequest{
		Index:        options.Index,
		DocumentType: options.DocumentType,
		DocumentID:   options.ID,
		Body:         bytes.NewReader(body),
	}.Do(ctx, t.client)
	if err != nil {
		return GetResult{}, IndexError(err, docPath)
	}
	err = checkResponse(res)
	res.Body.Close()
	if err != nil {
		return GetResult{}, IndexError(err, docPath)
	}

	log.Debugf("IndexAndGet: get %s", docPath)
	res, err = esapi.GetRequest{
		Index:        options.Index,
		DocumentType: options.DocumentType,
		DocumentID:   options.ID,
	}.Do(ctx, t.client)
	if err != nil {
		return GetResult{}, GetError(err, docPath)
	}
	defer res.Body.Close()
	if err = checkResponse(res); err != nil {
		return GetResult{}, GetError(err, docPath)
	}

	var result GetResult
	if err = json.NewDecoder(res.Body).Decode(&result); err != nil {
		return GetResult{}, GetError(err, docPath)
	}
	return result, nil
}

// DeleteIndex removes the sample document. indexName is only logged, the
// sample index, type and id are always what gets deleted.
func (t *SmokeTester) DeleteIndex(ctx context.Context, indexName string) (DeleteResult, error) {
	span, ctx := otrace.StartSpanFromContext(ctx, "elasticsearch.smoketest.DeleteIndex")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	options := SampleIndexOptions()
	docPath := options.path()
	log.Infof("DeleteIndex: requested %q, deleting %s", indexName, docPath)

	res, err := esapi.DeleteRequest{
		Index:        options.Index,
		DocumentType: options.DocumentType,
		DocumentID:   options.ID,
	}.Do(ctx, t.client)
	if err != nil {
		return DeleteResult{}, DeleteError(err, docPath)
	}
	defer res.Body.Close()
	if err = checkResponse(res); err != nil {
		return DeleteResult{}, DeleteError(err, docPath)
	}

	var result DeleteResult
	if err = json.NewDecoder(res.Body).Decode(&result); err != nil {
		return DeleteResult{}, DeleteError(err, docPath)
	}
	return result, nil
}

// Run indexes and fetches the sample document.
func (t *SmokeTester) Run(ctx context.Context) (GetResult, error) {
	return t.IndexAndGet(ctx, SampleIndexOptions())
}

// TestExpected reports whether result is the sample document at the sample
// index, type and id.
func (t *SmokeTester) TestExpected(result GetResult) bool {
	expected := Identity{Index: SampleIndex, Type: SampleDocumentType, ID: SampleID}
	if result.Identity != expected {
		return false
	}
	patch, err := report.Diff(SampleDocument(), result.Source)
	if err != nil {
		return false
	}
	return len(patch) == 0
}

// expectedFor is the GetResult a healthy domain returns. The version is
// assigned by the server so it is copied from observed.
func expectedFor(observed GetResult) GetResult {
	source, _ := json.Marshal(SampleDocument())
	return GetResult{
		Identity: Identity{Index: SampleIndex, Type: SampleDocumentType, ID: SampleID},
		Version:  observed.Version,
		Found:    true,
		Source:   source,
	}
}

// Check runs the smoke test and compares the outcome with the sample. On a
// mismatch both are written to w and ErrResultsMismatch is returned.
func (t *SmokeTester) Check(ctx context.Context, w io.Writer) error {
	span, ctx := otrace.StartSpanFromContext(ctx, "elasticsearch.smoketest.Check")
	defer span.Finish()

	log := t.Log().FromContext(ctx)
	defer log.Close()

	results, err := t.Run(ctx)
	if err != nil {
		return err
	}

	if !t.TestExpected(results) {
		log.InfoR("elasticsearch results did not match", results.Identity, string(results.Source))
		if err := report.Mismatch(w, results, expectedFor(results)); err != nil {
			log.Infof("unable to write mismatch report: %v", err)
		}
		return ErrResultsMismatch
	}

	log.Infof("elasticsearch smoke test passed for %s", t.cfg.ServiceName)
	return report.Passed(w, t.cfg.ServiceName)
}

// checkResponse returns an error for any non 2xx response. The body is left
// for the caller to close.
func checkResponse(res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	return ResponseError(res.StatusCode, string(b))
}
