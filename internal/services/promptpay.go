package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PromptPayConfig represents PromptPay gateway configuration
type PromptPayConfig struct {
	SecretKey   string
	Environment string // "sandbox" or "live"
	CallbackURL string
}

// PromptPayService handles payments via the PromptPay gateway API
type PromptPayService struct {
	config  PromptPayConfig
	client  *http.Client
	baseURL string
}

// NewPromptPayService creates a new PromptPay gateway client
func NewPromptPayService(config PromptPayConfig) *PromptPayService {
	baseURL := "https://api.promptpay-gw.example.com"
	if config.Environment != "live" {
		baseURL = "https://api.sandbox.promptpay-gw.example.com"
	}

	return &PromptPayService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
	}
}

// chargeRequest is the gateway wire format for creating a charge
type chargeRequest struct {
	Amount      int    `json:"amount"` // Amount in satang
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	Description string `json:"description,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// chargeResponse is the gateway wire format for a created or fetched charge
type chargeResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int    `json:"amount"`
	Currency  string `json:"currency"`
	QRCodeURL string `json:"qr_code_url,omitempty"`
}

// gatewayError represents an error response from the gateway
type gatewayError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("PromptPay gateway error: %s", e.Message)
}

// CreateCharge creates a payment charge for the given amount
func (s *PromptPayService) CreateCharge(req *ChargeRequest) (*ChargeResponse, error) {
	body := chargeRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Reference:   req.Reference,
		Description: req.Description,
		CallbackURL: s.config.CallbackURL,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", s.baseURL+"/v1/charges", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create charge request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send charge request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, s.handleAPIError(resp.StatusCode, bodyBytes)
	}

	var charge chargeResponse
	if err := json.Unmarshal(bodyBytes, &charge); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}

	return &ChargeResponse{
		Reference: charge.Reference,
		QRCodeURL: charge.QRCodeURL,
	}, nil
}

// VerifyCharge fetches the gateway's current view of a charge
func (s *PromptPayService) VerifyCharge(reference string) (*ChargeVerification, error) {
	httpReq, err := http.NewRequest("GET", fmt.Sprintf("%s/v1/charges/%s", s.baseURL, reference), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verification request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send verification request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, s.handleAPIError(resp.StatusCode, bodyBytes)
	}

	var charge chargeResponse
	if err := json.Unmarshal(bodyBytes, &charge); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}

	return &ChargeVerification{
		Reference: charge.Reference,
		Status:    charge.Status,
		Amount:    charge.Amount,
	}, nil
}

// handleAPIError maps a non-2xx gateway response to an error
func (s *PromptPayService) handleAPIError(statusCode int, body []byte) error {
	gwErr := &gatewayError{StatusCode: statusCode}
	if err := json.Unmarshal(body, gwErr); err != nil || gwErr.Message == "" {
		gwErr.Message = fmt.Sprintf("unexpected status %d", statusCode)
	}
	return gwErr
}
