package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const (
	paypalTokenPath  = "/v1/oauth2/token"
	paypalOrdersPath = "/v2/checkout/orders"

	// Tokens are refreshed slightly before PayPal expires them.
	tokenExpirySlack = 60 * time.Second
)

// PayPalConfig configures the PayPalProvider.
type PayPalConfig struct {
	ClientID  string
	Secret    string
	APIBase   string
	ReturnURL string
	CancelURL string
	Timeout   time.Duration
	Logger    *zap.Logger
	// HTTPClient overrides the transport, primarily for tests.
	HTTPClient *http.Client
	Clock      func() time.Time
}

// PayPalProvider implements Provider against the PayPal Orders v2 REST API.
type PayPalProvider struct {
	clientID  string
	secret    string
	apiBase   string
	returnURL string
	cancelURL string
	client    *http.Client
	logger    *zap.Logger
	clock     func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalProvider constructs a PayPal-backed payment provider.
func NewPayPalProvider(cfg PayPalConfig) (*PayPalProvider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("paypal: client id and secret are required")
	}
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		return nil, errors.New("paypal: api base is required")
	}
	if _, err := url.Parse(apiBase); err != nil {
		return nil, fmt.Errorf("paypal: invalid api base: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	return &PayPalProvider{
		clientID:  cfg.ClientID,
		secret:    cfg.Secret,
		apiBase:   apiBase,
		returnURL: cfg.ReturnURL,
		cancelURL: cfg.CancelURL,
		client:    client,
		logger:    logger,
		clock:     clock,
	}, nil
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalPurchaseUnit struct {
	ReferenceID string       `json:"reference_id"`
	Description string       `json:"description,omitempty"`
	Amount      paypalAmount `json:"amount"`
}

type paypalApplicationContext struct {
	ReturnURL string `json:"return_url,omitempty"`
	CancelURL string `json:"cancel_url,omitempty"`
}

type paypalCreateOrderRequest struct {
	Intent             string                    `json:"intent"`
	PurchaseUnits      []paypalPurchaseUnit      `json:"purchase_units"`
	ApplicationContext *paypalApplicationContext `json:"application_context,omitempty"`
}

type paypalLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type paypalOrderResponse struct {
	ID            string       `json:"id"`
	Status        string       `json:"status"`
	Links         []paypalLink `json:"links"`
	PurchaseUnits []struct {
		ReferenceID string `json:"reference_id"`
		Payments    struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CreateCheckout opens a PayPal order and returns the approval URL.
func (p *PayPalProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	if req.Amount <= 0 {
		return Checkout{}, errors.New("paypal: amount must be positive")
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	payload := paypalCreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypalPurchaseUnit{{
			ReferenceID: req.ReferenceID,
			Description: req.Description,
			Amount: paypalAmount{
				CurrencyCode: currency,
				Value:        formatMinorUnits(req.Amount),
			},
		}},
	}
	if p.returnURL != "" || p.cancelURL != "" {
		payload.ApplicationContext = &paypalApplicationContext{
			ReturnURL: p.returnURL,
			CancelURL: p.cancelURL,
		}
	}

	var resp paypalOrderResponse
	status, err := p.postJSON(ctx, p.apiBase+paypalOrdersPath, payload, &resp)
	if err != nil {
		return Checkout{}, err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		p.logger.Warn("paypal create order rejected",
			zap.Int("status", status),
			zap.String("reference_id", req.ReferenceID))
		return Checkout{}, fmt.Errorf("paypal: create order status %d: %w", status, ErrProviderUnavailable)
	}

	approval := ""
	for _, link := range resp.Links {
		if strings.EqualFold(link.Rel, "approve") {
			approval = link.Href
			break
		}
	}
	if resp.ID == "" || approval == "" {
		return Checkout{}, fmt.Errorf("paypal: create order response missing id or approval link: %w", ErrProviderUnavailable)
	}

	p.logger.Info("paypal order created",
		zap.String("provider_order_id", resp.ID),
		zap.String("reference_id", req.ReferenceID))

	return Checkout{ProviderOrderID: resp.ID, ApprovalURL: approval}, nil
}

// CaptureCheckout captures an approved PayPal order.
func (p *PayPalProvider) CaptureCheckout(ctx context.Context, providerOrderID string) (CaptureResult, error) {
	providerOrderID = strings.TrimSpace(providerOrderID)
	if providerOrderID == "" {
		return CaptureResult{}, errors.New("paypal: provider order id is required")
	}

	captureURL := fmt.Sprintf("%s%s/%s/capture", p.apiBase, paypalOrdersPath, url.PathEscape(providerOrderID))

	var resp paypalOrderResponse
	status, err := p.postJSON(ctx, captureURL, struct{}{}, &resp)
	if err != nil {
		return CaptureResult{}, err
	}

	switch {
	case status == http.StatusNotFound:
		return CaptureResult{}, ErrOrderNotFound
	case status == http.StatusUnprocessableEntity:
		// Order exists but cannot be captured (not approved, already voided).
		p.logger.Warn("paypal capture declined",
			zap.String("provider_order_id", providerOrderID),
			zap.Int("status", status))
		return CaptureResult{Status: CaptureStatusDeclined}, nil
	case status >= 500:
		return CaptureResult{}, fmt.Errorf("paypal: capture status %d: %w", status, ErrProviderUnavailable)
	case status != http.StatusCreated && status != http.StatusOK:
		return CaptureResult{}, fmt.Errorf("paypal: capture status %d: %w", status, ErrProviderUnavailable)
	}

	result := CaptureResult{Status: CaptureStatusPending}
	switch strings.ToUpper(resp.Status) {
	case "COMPLETED":
		result.Status = CaptureStatusCompleted
	case "DECLINED", "VOIDED":
		result.Status = CaptureStatusDeclined
	}
	if len(resp.PurchaseUnits) > 0 {
		unit := resp.PurchaseUnits[0]
		result.ReferenceID = unit.ReferenceID
		if len(unit.Payments.Captures) > 0 {
			result.TransactionID = unit.Payments.Captures[0].ID
		}
	}

	p.logger.Info("paypal capture processed",
		zap.String("provider_order_id", providerOrderID),
		zap.String("capture_status", string(result.Status)),
		zap.String("transaction_id", result.TransactionID))

	return result, nil
}

func (p *PayPalProvider) postJSON(ctx context.Context, endpoint string, payload, out interface{}) (int, error) {
	token, err := p.accessTokenLocked(ctx)
	if err != nil {
		return 0, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("paypal: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("paypal: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("PayPal-Request-Id", p.requestID())

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("paypal: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("paypal: read response: %w", ErrProviderUnavailable)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil && resp.StatusCode < 300 {
			return resp.StatusCode, fmt.Errorf("paypal: decode response: %w", ErrProviderUnavailable)
		}
	}
	return resp.StatusCode, nil
}

// accessTokenLocked returns a cached OAuth token, refreshing via the
// client-credentials grant when expired.
func (p *PayPalProvider) accessTokenLocked(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock()
	if p.accessToken != "" && now.Before(p.tokenExpiry) {
		return p.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+paypalTokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: build token request: %w", err)
	}
	req.SetBasicAuth(p.clientID, p.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: token request: %v: %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal: token status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var token paypalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("paypal: decode token: %w", ErrProviderUnavailable)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("paypal: empty access token: %w", ErrProviderUnavailable)
	}

	p.accessToken = token.AccessToken
	expiry := time.Duration(token.ExpiresIn) * time.Second
	if expiry > tokenExpirySlack {
		expiry -= tokenExpirySlack
	}
	p.tokenExpiry = now.Add(expiry)

	return p.accessToken, nil
}

func (p *PayPalProvider) requestID() string {
	return ulid.Make().String()
}

// formatMinorUnits renders an int64 minor-unit amount as a decimal string
// with two fraction digits, e.g. 1234 -> "12.34".
func formatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}
