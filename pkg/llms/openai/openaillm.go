package openai

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/effective-security/agentloop/pkg/metricskey"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop/pkg/llms", "openai")

// LLM is a completion client for an OpenAI compatible chat completion endpoint.
type LLM struct {
	client  sdk.Client
	model   string
	baseURL string
	timeout time.Duration

	maxTokens   int
	temperature float64
	topP        float64
}

var _ llms.Model = (*LLM)(nil)

// New returns a new LLM.
// It fails when no endpoint is configured or the endpoint is not a valid URL.
func New(opts ...Option) (*LLM, error) {
	o := &options{
		token:   os.Getenv(tokenEnvVarName),
		model:   os.Getenv(modelEnvVarName),
		baseURL: os.Getenv(baseURLEnvVarName),
	}
	for _, opt := range opts {
		opt(o)
	}

	baseURL, err := NormalizeBaseURL(o.baseURL)
	if err != nil {
		return nil, err
	}

	timeout := values.NumbersCoalesce(o.timeout, DefaultTimeout)
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
		option.WithRequestTimeout(timeout),
		// one request per call, the orchestrator owns the retry policy
		option.WithMaxRetries(0),
	}
	if o.token != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(o.token))
	} else {
		// the SDK defaults set a bearer header from OPENAI_API_KEY even when empty
		reqOpts = append(reqOpts, option.WithHeaderDel("Authorization"))
	}

	return &LLM{
		client:      sdk.NewClient(reqOpts...),
		model:       o.model,
		baseURL:     baseURL,
		timeout:     timeout,
		maxTokens:   values.NumbersCoalesce(o.maxTokens, DefaultMaxTokens),
		temperature: valueOr(o.temperature, DefaultTemperature),
		topP:        valueOr(o.topP, DefaultTopP),
	}, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// NormalizeBaseURL returns the `/v1/` API root for the endpoint.
func NormalizeBaseURL(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", errors.New("completion endpoint is not configured")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrapf(err, "invalid completion endpoint: %s", endpoint)
	}
	if u.Host == "" {
		return "", errors.Errorf("invalid completion endpoint: %s", endpoint)
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/v1") + "/v1/"
	return u.String(), nil
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderOpenAI
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// BaseURL returns the API root the requests are sent to.
func (o *LLM) BaseURL() string {
	return o.baseURL
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(options...)
	model := values.StringsCoalesce(opts.Model, o.model)

	chatMsgs := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llms.RoleSystem:
			chatMsgs = append(chatMsgs, sdk.SystemMessage(m.Content))
		case llms.RoleAI:
			chatMsgs = append(chatMsgs, sdk.AssistantMessage(m.Content))
		case llms.RoleHuman:
			chatMsgs = append(chatMsgs, sdk.UserMessage(m.Content))
		default:
			return nil, errors.Errorf("role %v not supported", m.Role)
		}
	}

	req := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(model),
		Messages:    chatMsgs,
		MaxTokens:   sdk.Int(int64(values.NumbersCoalesce(opts.MaxTokens, o.maxTokens))),
		Temperature: sdk.Float(values.Select(opts.Temperature != 0, opts.Temperature, o.temperature)),
		TopP:        sdk.Float(values.Select(opts.TopP != 0, opts.TopP, o.topP)),
	}
	if len(opts.StopWords) > 0 {
		req.Stop = sdk.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}

	metricskey.StatsLLMBytesSent.IncrCounter(float64(llmutils.CountMessagesContentSize(messages)), model)

	started := time.Now()
	result, err := o.client.Chat.Completions.New(ctx, req)
	metricskey.PerfLLMCall.MeasureSince(started, model)
	if err != nil {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, model)
		return nil, toTransportError(err)
	}
	if len(result.Choices) == 0 {
		metricskey.StatsLLMCallsFailed.IncrCounter(1, model)
		return nil, llms.NewProtocolError(llms.ErrNoCompletion)
	}

	choices := make([]*llms.ContentChoice, len(result.Choices))
	for i, c := range result.Choices {
		choices[i] = &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: string(c.FinishReason),
			GenerationInfo: map[string]any{
				"InputTokens":  result.Usage.PromptTokens,
				"OutputTokens": result.Usage.CompletionTokens,
				"TotalTokens":  result.Usage.TotalTokens,
			},
		}
	}
	resp := &llms.ContentResponse{Choices: choices}

	metricskey.StatsLLMCallsSucceeded.IncrCounter(1, model)
	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), model)

	tokensIn, tokensOut, tokensTotal := llmutils.CountTokens(resp)
	metricskey.StatsLLMInputTokens.IncrCounter(float64(tokensIn), model)
	metricskey.StatsLLMOutputTokens.IncrCounter(float64(tokensOut), model)
	metricskey.StatsLLMTotalTokens.IncrCounter(float64(tokensTotal), model)

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "completion",
		"model", model,
		"choices", len(choices),
		"tokens", tokensTotal,
		"elapsed", time.Since(started).String(),
	)
	return resp, nil
}

func toTransportError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return llms.NewTransportError(apiErr.StatusCode, err)
	}
	return llms.NewTransportError(0, err)
}
