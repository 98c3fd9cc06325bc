// Package apiclient is the narrow interface the bot has onto the
// backend: token issuance plus the purchase-flow operations. The bot
// never touches storage directly.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"app/internal/api/v1/dto"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyProcessed  = errors.New("payment already processed")
	ErrEntitlementDenied = errors.New("already purchased today")
	ErrMissingZodiacSign = errors.New("zodiac sign not set")
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	mu     sync.Mutex
	tokens map[int64]string
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		tokens:  make(map[int64]string),
	}
}

// Authenticate registers the user on first contact and caches a bearer
// token for them.
func (c *Client) Authenticate(ctx context.Context, telegramID int64, firstName string) error {
	_, err := c.token(ctx, telegramID, firstName, true)
	return err
}

func (c *Client) token(ctx context.Context, telegramID int64, firstName string, refresh bool) (string, error) {
	c.mu.Lock()
	tok, ok := c.tokens[telegramID]
	c.mu.Unlock()
	if ok && !refresh {
		return tok, nil
	}

	if firstName == "" {
		firstName = "there"
	}
	body, _ := json.Marshal(dto.TokenRequestDTO{TelegramID: telegramID, FirstName: firstName})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var tr dto.TokenResponseDTO
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}

	c.mu.Lock()
	c.tokens[telegramID] = tr.AccessToken
	c.mu.Unlock()
	return tr.AccessToken, nil
}

// do performs an authenticated JSON request for a Telegram user,
// re-authenticating once if the cached token has expired.
func (c *Client) do(ctx context.Context, telegramID int64, method, path string, body, out any) (int, []byte, error) {
	for attempt := 0; attempt < 2; attempt++ {
		tok, err := c.token(ctx, telegramID, "", attempt > 0)
		if err != nil {
			return 0, nil, err
		}

		var reader io.Reader
		if body != nil {
			raw, err := json.Marshal(body)
			if err != nil {
				return 0, nil, err
			}
			reader = bytes.NewReader(raw)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return 0, nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			continue
		}
		if resp.StatusCode < 300 && out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return resp.StatusCode, raw, fmt.Errorf("decoding %s response: %w", path, err)
			}
		}
		return resp.StatusCode, raw, nil
	}
	return 0, nil, errors.New("unauthorized after token refresh")
}

func (c *Client) Me(ctx context.Context, telegramID int64) (*dto.UserResponseDTO, error) {
	var u dto.UserResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodGet, "/v1/users/me", nil, &u)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("profile endpoint returned %d", status)
	}
	return &u, nil
}

func (c *Client) SetZodiacSign(ctx context.Context, telegramID int64, sign string) (*dto.UserResponseDTO, error) {
	var u dto.UserResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodPatch, "/v1/users/me", dto.UserUpdateDTO{ZodiacSign: &sign}, &u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("profile update returned %d", status)
	}
	return &u, nil
}

func (c *Client) CanPurchase(ctx context.Context, telegramID int64) (*dto.CanPurchaseResponseDTO, error) {
	var res dto.CanPurchaseResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodGet, "/v1/predictions/can-purchase", nil, &res)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("can-purchase endpoint returned %d", status)
	}
	return &res, nil
}

func (c *Client) OpenPayment(ctx context.Context, telegramID int64) (*dto.PaymentResponseDTO, error) {
	var p dto.PaymentResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodPost, "/v1/payments/invoice", nil, &p)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusCreated:
		return &p, nil
	case http.StatusConflict:
		return nil, ErrEntitlementDenied
	default:
		return nil, fmt.Errorf("invoice endpoint returned %d", status)
	}
}

func (c *Client) GetPayment(ctx context.Context, telegramID int64, paymentID string) (*dto.PaymentResponseDTO, error) {
	var p dto.PaymentResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodGet, "/v1/payments/"+paymentID, nil, &p)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &p, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("payment lookup returned %d", status)
	}
}

func (c *Client) ConfirmPayment(ctx context.Context, telegramID int64, paymentID string, chargeID string) (*dto.PredictionResponseDTO, error) {
	var pred dto.PredictionResponseDTO
	body := dto.PaymentConfirmDTO{}
	if chargeID != "" {
		body.TelegramChargeID = &chargeID
	}
	status, raw, err := c.do(ctx, telegramID, http.MethodPost, "/v1/payments/"+paymentID+"/confirm", body, &pred)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &pred, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusConflict:
		return nil, ErrAlreadyProcessed
	case http.StatusUnprocessableEntity:
		return nil, ErrMissingZodiacSign
	default:
		var e dto.ErrorResponseDTO
		_ = json.Unmarshal(raw, &e)
		return nil, fmt.Errorf("confirm returned %d: %s", status, e.Error)
	}
}

func (c *Client) TodayPrediction(ctx context.Context, telegramID int64) (*dto.PredictionResponseDTO, error) {
	var p dto.PredictionResponseDTO
	status, _, err := c.do(ctx, telegramID, http.MethodGet, "/v1/predictions/today", nil, &p)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &p, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("today endpoint returned %d", status)
	}
}

func (c *Client) Rankings(ctx context.Context, telegramID int64) ([]dto.RankingEntryDTO, error) {
	var entries []dto.RankingEntryDTO
	status, _, err := c.do(ctx, telegramID, http.MethodGet, "/v1/users/rankings?limit=10", nil, &entries)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("rankings endpoint returned %d", status)
	}
	return entries, nil
}
