package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetShipment_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/shipments/TRK1234567" {
			t.Fatalf("path = %s, want /api/shipments/TRK1234567", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Shipment{TrackingNumber: "TRK1234567", Status: StatusInTransit}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res, code, retry, err := client.GetShipment(ctx, "TRK1234567")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, retry)
	require.NotNil(t, res)
	assert.Equal(t, StatusInTransit, res.Status)
	assert.Equal(t, "TRK1234567", res.TrackingNumber)
}

func TestGetShipment_TooManyRequests(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	res, code, retry, err := client.GetShipment(context.Background(), "TRK1234567")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, 5*time.Second, retry)
}

func TestGetShipment_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	res, code, retry, err := NewClient(ts.URL).GetShipment(context.Background(), "TRK1234567")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Zero(t, retry)
}

func TestGetShipment_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, code, _, err := NewClient(ts.URL).GetShipment(context.Background(), "TRK1234567")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestGetShipment_NotConfigured(t *testing.T) {
	_, _, _, err := NewClient("").GetShipment(context.Background(), "TRK1234567")
	assert.True(t, errors.Is(err, ErrNotConfigured))

	var c *Client
	_, _, _, err = c.GetShipment(context.Background(), "TRK1234567")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestNewClientAddsScheme(t *testing.T) {
	assert.Equal(t, "http://localhost:8081", NewClient("localhost:8081/").baseURL)
	assert.Equal(t, "https://feed.example.com", NewClient("https://feed.example.com").baseURL)
}

func TestRetryAfter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "empty", value: "", want: 0},
		{name: "seconds", value: "3", want: 3 * time.Second},
		{name: "negative", value: "-1", want: 0},
		{name: "http date", value: now.Add(10 * time.Second).Format(http.TimeFormat), want: 10 * time.Second},
		{name: "past date", value: now.Add(-time.Minute).Format(http.TimeFormat), want: 0},
		{name: "garbage", value: "soon", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.value, now))
		})
	}
}

func TestGetShipment_InvalidTrackingNumber(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	for _, trk := range []string{"", "TRK123", "../admin", "TRK12345678", "ORD-123456"} {
		_, _, _, err := client.GetShipment(context.Background(), trk)
		require.ErrorIs(t, err, ErrInvalidTrackingNumber, trk)
	}
	assert.Zero(t, calls)
}
