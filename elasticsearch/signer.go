package elasticsearch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// SigningTransport signs every request with AWS SigV4 before handing it to
// the wrapped transport.
type SigningTransport struct {
	next        http.RoundTripper
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	service     string
	region      string
	now         func() time.Time
}

type SigningOption func(*SigningTransport)

// WithNext replaces http.DefaultTransport as the transport that sends the
// signed request.
func WithNext(next http.RoundTripper) SigningOption {
	return func(st *SigningTransport) {
		st.next = next
	}
}

// WithClock fixes the signing time.
func WithClock(now func() time.Time) SigningOption {
	return func(st *SigningTransport) {
		st.now = now
	}
}

func NewSigningTransport(accessKey, secretKey, region string, opts ...SigningOption) *SigningTransport {
	st := &SigningTransport{
		next:        http.DefaultTransport,
		credentials: credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		signer:      v4.NewSigner(),
		service:     SigningService,
		region:      region,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// RoundTrip implements http.RoundTripper. Signing headers are set on a clone,
// the caller's request headers are left alone.
func (st *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	signed := req.Clone(ctx)

	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		var err error
		body, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading body: %w", ErrSign, err)
		}
		signed.Body = io.NopCloser(bytes.NewReader(body))
		signed.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		signed.ContentLength = int64(len(body))
	}
	sum := sha256.Sum256(body)

	creds, err := st.credentials.Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: credentials: %w", ErrSign, err)
	}

	err = st.signer.SignHTTP(ctx, creds, signed, hex.EncodeToString(sum[:]), st.service, st.region, st.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSign, err)
	}
	return st.next.RoundTrip(signed)
}
