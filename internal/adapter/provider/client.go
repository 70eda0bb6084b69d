package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
)

// ErrTransactionNotFound indicates the provider doesn't know the reference.
var ErrTransactionNotFound = errors.New("transaction not found")

// TooManyRequestsError represents rate limiting signal from the provider.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Client exposes operations against the payment provider.
type Client interface {
	Open(ctx context.Context, req model.CheckoutRequest) (*model.ProviderHandoff, error)
	Verify(ctx context.Context, reference string) (*model.VerifiedTransaction, error)
}

// HTTPClient implements Client via the provider's REST API.
type HTTPClient struct {
	baseURL    *url.URL
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

// envelope mirrors the provider's JSON response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type checkoutData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// NewHTTPClient creates an HTTP provider client.
func NewHTTPClient(baseURL, secret string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("provider url must be absolute")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: parsed,
		secret:  secret,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Open starts a checkout for the given request.
func (c *HTTPClient) Open(ctx context.Context, reqData model.CheckoutRequest) (*model.ProviderHandoff, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/transaction/initialize")

	payload, err := json.Marshal(map[string]any{
		"reference": reqData.Reference,
		"email":     reqData.Email,
		"amount":    reqData.Amount,
		"currency":  reqData.Currency,
		"metadata":  Metadata{PaymentID: reqData.PaymentID},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := c.decode(resp)
	if err != nil {
		return nil, err
	}

	var checkout checkoutData
	if err := json.Unmarshal(data, &checkout); err != nil {
		return nil, err
	}
	if checkout.Reference == "" {
		checkout.Reference = reqData.Reference
	}
	return &model.ProviderHandoff{
		AuthorizationURL:  checkout.AuthorizationURL,
		AccessCode:        checkout.AccessCode,
		ProviderReference: checkout.Reference,
	}, nil
}

// Verify queries the provider for the transaction state behind reference.
func (c *HTTPClient) Verify(ctx context.Context, reference string) (*model.VerifiedTransaction, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/transaction/verify/", reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := c.decode(resp)
	if err != nil {
		return nil, err
	}

	var tx TransactionData
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, err
	}
	return tx.Verified(), nil
}

func (c *HTTPClient) decode(resp *http.Response) (json.RawMessage, error) {
	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, err
		}
		if !env.Status {
			return nil, fmt.Errorf("provider rejected request: %s", env.Message)
		}
		return env.Data, nil
	case http.StatusNotFound:
		return nil, ErrTransactionNotFound
	case http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, TooManyRequestsError{RetryAfter: retryAfter}
	default:
		body, _ := io.ReadAll(resp.Body)
		c.logger.Error("provider request failed", slog.Int("status", resp.StatusCode), slog.String("body", string(body)))
		return nil, fmt.Errorf("provider error: %s", resp.Status)
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 5 * time.Second
}
