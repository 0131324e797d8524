package openai

import (
	"net/http"
	"time"
)

const (
	tokenEnvVarName   = "OPENAI_API_KEY"  //nolint:gosec
	modelEnvVarName   = "OPENAI_MODEL"    //nolint:gosec
	baseURLEnvVarName = "OPENAI_BASE_URL" //nolint:gosec
)

const (
	// DefaultTimeout is the per call timeout of a completion request.
	DefaultTimeout = 60 * time.Second
	// DefaultMaxTokens is the default number of tokens to generate.
	DefaultMaxTokens = 3000
	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.7
	// DefaultTopP is the default top-p sampling value.
	DefaultTopP = 0.9
)

type options struct {
	token      string
	model      string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration

	maxTokens   int
	temperature *float64
	topP        *float64
}

// Option is a functional option for the OpenAI client.
type Option func(*options)

// WithToken passes the API token to the client. If not set, the token
// is read from the OPENAI_API_KEY environment variable.
// Without a token the requests carry no Authorization header,
// a vLLM server started without --api-key accepts them.
func WithToken(token string) Option {
	return func(opts *options) {
		opts.token = token
	}
}

// WithModel passes the model to the client. If not set, the model
// is read from the OPENAI_MODEL environment variable.
func WithModel(model string) Option {
	return func(opts *options) {
		opts.model = model
	}
}

// WithBaseURL passes the endpoint to the client. If not set, the endpoint
// is read from the OPENAI_BASE_URL environment variable.
// The endpoint may be given as `host:port`, `http://host:port` or `http://host:port/v1`,
// requests are sent to `<endpoint>/v1/chat/completions`.
func WithBaseURL(baseURL string) Option {
	return func(opts *options) {
		opts.baseURL = baseURL
	}
}

// WithHTTPClient allows setting a custom HTTP client. If not set, a client
// with the configured timeout is used.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.httpClient = client
	}
}

// WithTimeout sets the per call timeout, DefaultTimeout if not set.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithDefaultSampling sets the sampling parameters used when a call
// does not specify them. A zero maxTokens keeps DefaultMaxTokens,
// zero temperature and topP are sent as zero.
func WithDefaultSampling(maxTokens int, temperature, topP float64) Option {
	return func(opts *options) {
		opts.maxTokens = maxTokens
		opts.temperature = &temperature
		opts.topP = &topP
	}
}
