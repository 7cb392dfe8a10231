package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"pgregory.net/rapid"

	"apifuzz/internal/serializer"
	"apifuzz/internal/strategy"
	"apifuzz/internal/types"
)

// CaseResult represents the outcome of a single generated case.
type CaseResult struct {
	Endpoint string
	Method   string
	CaseID   string
	Status   string
	Duration time.Duration
	Error    error
	Request  string
	Response string
}

// Config holds configuration for fuzzing execution.
type Config struct {
	CasesPerEndpoint int
	MaxWorkers       int
	Timeout          int
	// Seed offsets the deterministic case indices, so two runs with the same
	// seed fuzz every endpoint with the same cases.
	Seed int64
	// ExtraHeaders are attached to every request, e.g. an Authorization
	// header from config. Generated headers of the same name are overridden.
	ExtraHeaders map[string]string
	Retry        RetryConfig
}

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Runner generates cases for endpoints and fires them at the live server
// using the HTTP-client transport mapping.
type Runner struct {
	config Config
	client *http.Client
}

// NewRunner creates a new fuzzing runner.
func NewRunner(config Config) *Runner {
	if config.CasesPerEndpoint <= 0 {
		config.CasesPerEndpoint = 10
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 5
	}
	if config.Retry.Attempts <= 0 {
		config.Retry.Attempts = 1
	}
	return &Runner{
		config: config,
		client: &http.Client{Timeout: time.Duration(config.Timeout) * time.Second},
	}
}

// Run fuzzes all endpoints and returns per-case results. Endpoints run on a
// bounded worker pool; cases within one endpoint run sequentially.
func (r *Runner) Run(ctx context.Context, endpoints []*types.Endpoint) []CaseResult {
	var results []CaseResult
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, r.config.MaxWorkers)

	for _, endpoint := range endpoints {
		wg.Add(1)
		go func(endpoint *types.Endpoint) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			endpointResults := r.runEndpoint(ctx, endpoint)

			mu.Lock()
			results = append(results, endpointResults...)
			mu.Unlock()
		}(endpoint)
	}

	wg.Wait()
	return results
}

func (r *Runner) runEndpoint(ctx context.Context, endpoint *types.Endpoint) []CaseResult {
	var results []CaseResult

	caseGen, err := strategy.BuildCaseStrategy(endpoint)
	if err != nil {
		return []CaseResult{{
			Endpoint: endpoint.Path,
			Method:   endpoint.Method,
			Status:   "ERROR",
			Error:    fmt.Errorf("failed to build case strategy: %w", err),
		}}
	}

	// Schema-declared examples always run, ahead of the generated cases.
	cases, err := strategy.Examples(endpoint)
	if err != nil {
		return []CaseResult{{
			Endpoint: endpoint.Path,
			Method:   endpoint.Method,
			Status:   "ERROR",
			Error:    fmt.Errorf("failed to extract examples: %w", err),
		}}
	}
	base := int(r.config.Seed)
	if base < 0 {
		base = 0
	}
	generated, err := drawCases(caseGen, base, r.config.CasesPerEndpoint)
	if err != nil {
		return []CaseResult{{
			Endpoint: endpoint.Path,
			Method:   endpoint.Method,
			Status:   "ERROR",
			Error:    fmt.Errorf("failed to generate cases: %w", err),
		}}
	}
	cases = append(cases, generated...)

	for _, c := range cases {
		results = append(results, r.runCase(ctx, c))
	}
	return results
}

// drawCases materializes deterministic cases from the generator. Draw-time
// panics (an unsatisfiable filter, an engine failure) are converted into an
// error instead of taking down the worker goroutine.
func drawCases(caseGen *rapid.Generator[*types.Case], base, n int) (cases []*types.Case, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("case generation panicked: %v", r)
		}
	}()
	for i := 0; i < n; i++ {
		cases = append(cases, caseGen.Example(base+i))
	}
	return cases, nil
}

func (r *Runner) runCase(ctx context.Context, c *types.Case) CaseResult {
	result := CaseResult{
		Endpoint: c.Path,
		Method:   c.Method,
		CaseID:   c.ID,
	}

	args, err := serializer.RequestArgs(c, r.config.ExtraHeaders)
	if err != nil {
		result.Status = "ERROR"
		result.Error = fmt.Errorf("failed to serialize case: %w", err)
		return result
	}

	// The request is rebuilt per attempt: its body reader is consumed by the
	// client on each send.
	for attempt := 0; attempt < r.config.Retry.Attempts; attempt++ {
		req, err := buildRequest(ctx, args)
		if err != nil {
			result.Status = "ERROR"
			result.Error = fmt.Errorf("failed to build request: %w", err)
			return result
		}
		result.Request = fmt.Sprintf("%s %s", req.Method, req.URL)
		result = r.executeCase(req, result)
		if result.Error == nil {
			break
		}
		time.Sleep(r.config.Retry.Delay)
	}
	return result
}

// buildRequest translates a client-transport argument map into an
// *http.Request. The map's keys are the serializer vocabulary: "json",
// "data", "files", plus "method", "url", "headers", "params" and "cookies".
func buildRequest(ctx context.Context, args map[string]interface{}) (*http.Request, error) {
	method, _ := args["method"].(string)
	target, _ := args["url"].(string)

	if params, ok := args["params"].(map[string]interface{}); ok && len(params) > 0 {
		query := make(url.Values)
		for key, value := range params {
			query.Set(key, fmt.Sprint(value))
		}
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + query.Encode()
	}

	body, contentType, err := requestBody(args)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if headers, ok := args["headers"].(map[string]string); ok {
		for key, value := range headers {
			req.Header.Set(key, value)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookies, ok := args["cookies"].(map[string]string); ok {
		for name, value := range cookies {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
	return req, nil
}

func requestBody(args map[string]interface{}) (io.Reader, string, error) {
	if payload, ok := args["json"]; ok {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(encoded), "", nil
	}

	if files, ok := args["files"].([]types.FormFile); ok {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for _, file := range files {
			part, err := writer.CreateFormFile(file.Name, file.FileName)
			if err != nil {
				return nil, "", fmt.Errorf("failed to create form file: %w", err)
			}
			if _, err := part.Write(file.Content); err != nil {
				return nil, "", fmt.Errorf("failed to write form file: %w", err)
			}
		}
		if data, ok := args["data"].(map[string]interface{}); ok {
			for name, value := range data {
				if err := writer.WriteField(name, formFieldValue(value)); err != nil {
					return nil, "", fmt.Errorf("failed to write form field: %w", err)
				}
			}
		}
		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to finalize multipart body: %w", err)
		}
		return &buf, writer.FormDataContentType(), nil
	}

	switch data := args["data"].(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(data), "", nil
	case string:
		return strings.NewReader(data), "", nil
	case map[string]interface{}:
		// URL-encoded form payload.
		form := make(url.Values)
		for name, value := range data {
			form.Set(name, formFieldValue(value))
		}
		return strings.NewReader(form.Encode()), "", nil
	default:
		return strings.NewReader(fmt.Sprint(data)), "", nil
	}
}

func formFieldValue(value interface{}) string {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(value)
}

func (r *Runner) executeCase(req *http.Request, result CaseResult) CaseResult {
	start := time.Now()
	resp, err := r.client.Do(req)
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = "ERROR"
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Status = "ERROR"
		result.Error = fmt.Errorf("failed to read response body: %w", err)
		return result
	}

	// 5xx means the generated input broke the server; anything else counts as
	// survived. Client errors are expected when fuzzing.
	if resp.StatusCode >= 500 {
		result.Status = "FAILURE"
		result.Error = fmt.Errorf("server error: status code %d", resp.StatusCode)
	} else {
		result.Status = "SUCCESS"
		result.Error = nil
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		var jsonResponse interface{}
		if err := json.Unmarshal(body, &jsonResponse); err == nil {
			if pretty, err := json.MarshalIndent(jsonResponse, "", "  "); err == nil {
				result.Response = string(pretty)
				return result
			}
		}
	}
	result.Response = string(body)
	return result
}
