// Package shipping предоставляет клиент ленты статусов отправлений перевозчика.
package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/streetwear-storefront/internal/validation"
)

// Статусы отправления у перевозчика.
const (
	StatusRegistered = "REGISTERED"
	StatusInTransit  = "IN_TRANSIT"
	StatusDelivered  = "DELIVERED"
	StatusReturned   = "RETURNED"
	StatusCancelled  = "CANCELLED"
)

var (
	// ErrNotConfigured возвращается, если адрес ленты не задан.
	ErrNotConfigured = errors.New("shipping feed not configured")
	// ErrInvalidTrackingNumber возвращается для номера не в формате TRKddddddd; запрос не отправляется.
	ErrInvalidTrackingNumber = errors.New("invalid tracking number")
)

// Shipment описывает ответ ленты по одному отправлению.
type Shipment struct {
	TrackingNumber string     `json:"trackingNumber"`
	Status         string     `json:"status"`
	Location       string     `json:"location,omitempty"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Client инкапсулирует HTTP-взаимодействие с лентой перевозчика.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент ленты по указанному адресу. Схема http:// подставляется, если не указана.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetShipment запрашивает состояние отправления. Возвращает код ответа и паузу из Retry-After для 429;
// для 204 отправление ещё не известно перевозчику и ответ равен nil.
func (c *Client) GetShipment(ctx context.Context, trackingNumber string) (*Shipment, int, time.Duration, error) {
	if c == nil || c.baseURL == "" {
		return nil, 0, 0, ErrNotConfigured
	}
	if !validation.IsValidTrackingNumber(trackingNumber) {
		return nil, 0, 0, fmt.Errorf("%w: %q", ErrInvalidTrackingNumber, trackingNumber)
	}

	endpoint := fmt.Sprintf("%s/api/shipments/%s", c.baseURL, url.PathEscape(trackingNumber))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, resp.StatusCode, retryAfter(resp.Header.Get("Retry-After"), time.Now()), nil
	case http.StatusNoContent:
		return nil, resp.StatusCode, 0, nil
	case http.StatusOK:
	default:
		return nil, resp.StatusCode, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result Shipment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, resp.StatusCode, 0, fmt.Errorf("decode response: %w", err)
	}
	if result.TrackingNumber == "" {
		result.TrackingNumber = trackingNumber
	}

	return &result, resp.StatusCode, 0, nil
}

// retryAfter разбирает Retry-After в секундах либо в виде HTTP-даты.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
