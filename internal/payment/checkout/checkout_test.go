package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func signWebhookBody(secret string, timestamp int64, body []byte) string {
	payload := strconv.FormatInt(timestamp, 10) + "." + string(body)
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

func newWebhookClient(tolerance int) *Client {
	return NewClient(Config{
		APIBaseURL:              "https://api.example.com",
		SecretKey:               "sk_test_secret",
		WebhookSecret:           "whsec_test",
		SuccessURL:              "https://shop.example.com/pay/success",
		CancelURL:               "https://shop.example.com/pay/cancel",
		WebhookToleranceSeconds: tolerance,
	})
}

func TestVerifyWebhookCheckoutSessionEvent(t *testing.T) {
	client := newWebhookClient(300)
	now := time.Now()
	body := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"object": "checkout.session",
				"id": "cs_test_123",
				"payment_intent": "pi_test_456",
				"client_reference_id": "SF202608310001",
				"metadata": {"order_id": "42", "order_no": "SF202608310001"}
			}
		}
	}`)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signWebhookBody("whsec_test", now.Unix(), body))

	event, err := client.VerifyWebhook(header, body, now)
	if err != nil {
		t.Fatalf("verify webhook failed: %v", err)
	}
	if event.EventID != "evt_1" || event.EventType != "checkout.session.completed" {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.OrderID != 42 || event.OrderNo != "SF202608310001" {
		t.Fatalf("unexpected order binding: %+v", event)
	}
	if event.SessionID != "cs_test_123" || event.PaymentIntentID != "pi_test_456" {
		t.Fatalf("unexpected session binding: %+v", event)
	}
}

func TestVerifyWebhookPaymentIntentEvent(t *testing.T) {
	client := newWebhookClient(300)
	now := time.Now()
	body := []byte(`{
		"id": "evt_2",
		"type": "payment_intent.payment_failed",
		"data": {
			"object": {
				"object": "payment_intent",
				"id": "pi_test_789",
				"metadata": {"order_id": "7"}
			}
		}
	}`)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), signWebhookBody("whsec_test", now.Unix(), body))

	event, err := client.VerifyWebhook(header, body, now)
	if err != nil {
		t.Fatalf("verify webhook failed: %v", err)
	}
	if event.PaymentIntentID != "pi_test_789" {
		t.Fatalf("unexpected payment intent: %+v", event)
	}
	if event.SessionID != "" {
		t.Fatalf("payment_intent event should not carry session id: %+v", event)
	}
	if event.OrderID != 7 {
		t.Fatalf("unexpected order id: %+v", event)
	}
}

func TestVerifyWebhookRejectsBadSignatures(t *testing.T) {
	client := newWebhookClient(300)
	now := time.Now()
	body := []byte(`{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"object":"checkout.session","id":"cs_x"}}}`)
	valid := signWebhookBody("whsec_test", now.Unix(), body)

	cases := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"missing timestamp", "v1=" + valid},
		{"missing signature", fmt.Sprintf("t=%d", now.Unix())},
		{"wrong secret", fmt.Sprintf("t=%d,v1=%s", now.Unix(), signWebhookBody("whsec_other", now.Unix(), body))},
		{"tampered body signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), signWebhookBody("whsec_test", now.Unix(), []byte(`{}`)))},
	}
	for _, tc := range cases {
		if _, err := client.VerifyWebhook(tc.header, body, now); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("%s: want ErrSignatureInvalid got %v", tc.name, err)
		}
	}
}

func TestVerifyWebhookTimestampTolerance(t *testing.T) {
	client := newWebhookClient(300)
	now := time.Now()
	body := []byte(`{"id":"evt_4","type":"checkout.session.expired","data":{"object":{"object":"checkout.session","id":"cs_y"}}}`)

	stale := now.Add(-10 * time.Minute).Unix()
	header := fmt.Sprintf("t=%d,v1=%s", stale, signWebhookBody("whsec_test", stale, body))
	if _, err := client.VerifyWebhook(header, body, now); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("stale timestamp want ErrSignatureInvalid got %v", err)
	}

	within := now.Add(-2 * time.Minute).Unix()
	header = fmt.Sprintf("t=%d,v1=%s", within, signWebhookBody("whsec_test", within, body))
	if _, err := client.VerifyWebhook(header, body, now); err != nil {
		t.Fatalf("timestamp within tolerance should pass: %v", err)
	}
}

func TestVerifyWebhookSupportsMultipleSignatures(t *testing.T) {
	client := newWebhookClient(300)
	now := time.Now()
	body := []byte(`{"id":"evt_5","type":"checkout.session.completed","data":{"object":{"object":"checkout.session","id":"cs_z"}}}`)
	header := fmt.Sprintf("t=%d,v1=%s,v1=%s",
		now.Unix(),
		strings.Repeat("0", 64),
		signWebhookBody("whsec_test", now.Unix(), body),
	)

	if _, err := client.VerifyWebhook(header, body, now); err != nil {
		t.Fatalf("rotated signature set should pass: %v", err)
	}
}

func TestCreateSessionBuildsStripeStyleForm(t *testing.T) {
	var gotAuth, gotPath string
	var gotForm map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		parsed, err := parseForm(string(body))
		if err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		gotForm = parsed
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_new","url":"https://pay.example.com/cs_test_new","status":"open","payment_intent":"pi_test_new"}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIBaseURL:    server.URL,
		SecretKey:     "sk_test_secret",
		WebhookSecret: "whsec_test",
		SuccessURL:    "https://shop.example.com/pay/success",
		CancelURL:     "https://shop.example.com/pay/cancel",
	})

	session, err := client.CreateSession(context.Background(), SessionInput{
		OrderNo:       "SF202608310001",
		OrderID:       42,
		Currency:      "usd",
		CustomerEmail: "shopper@example.com",
		Items: []LineItem{
			{Name: "Linen Wrap Dress", UnitAmount: decimal.RequireFromString("89.50"), Quantity: 1},
			{Name: "Organic Cotton Tee", UnitAmount: decimal.RequireFromString("29.00"), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.SessionID != "cs_test_new" || session.PaymentIntentID != "pi_test_new" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if gotAuth != "Bearer sk_test_secret" {
		t.Fatalf("unexpected authorization header: %s", gotAuth)
	}
	if gotPath != "/v1/checkout/sessions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}

	checks := map[string]string{
		"mode":                                    "payment",
		"client_reference_id":                     "SF202608310001",
		"metadata[order_id]":                      "42",
		"customer_email":                          "shopper@example.com",
		"line_items[0][price_data][currency]":     "usd",
		"line_items[0][price_data][unit_amount]":  "8950",
		"line_items[1][quantity]":                 "2",
		"line_items[1][price_data][unit_amount]":  "2900",
	}
	for key, want := range checks {
		values := gotForm[key]
		if len(values) == 0 || values[0] != want {
			t.Fatalf("form field %s want %q got %v", key, want, values)
		}
	}
}

func TestCreateSessionZeroDecimalCurrency(t *testing.T) {
	minor, err := toMinorAmount(decimal.RequireFromString("1200"), "JPY")
	if err != nil {
		t.Fatalf("minor amount failed: %v", err)
	}
	if minor != 1200 {
		t.Fatalf("JPY minor amount want 1200 got %d", minor)
	}

	minor, err = toMinorAmount(decimal.RequireFromString("12.34"), "USD")
	if err != nil {
		t.Fatalf("minor amount failed: %v", err)
	}
	if minor != 1234 {
		t.Fatalf("USD minor amount want 1234 got %d", minor)
	}

	if _, err := toMinorAmount(decimal.Zero, "USD"); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("zero amount want ErrConfigInvalid got %v", err)
	}
}

func TestCreateSessionRejectsUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIBaseURL:    server.URL,
		SecretKey:     "sk_test_secret",
		WebhookSecret: "whsec_test",
		SuccessURL:    "https://shop.example.com/pay/success",
		CancelURL:     "https://shop.example.com/pay/cancel",
	})
	_, err := client.CreateSession(context.Background(), SessionInput{
		OrderNo:  "SF202608310002",
		Currency: "USD",
		Items:    []LineItem{{Name: "Silk Blouse", UnitAmount: decimal.NewFromInt(149), Quantity: 1}},
	})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("want ErrResponseInvalid got %v", err)
	}
}

func parseForm(encoded string) (map[string][]string, error) {
	values, err := url.ParseQuery(encoded)
	if err != nil {
		return nil, err
	}
	return values, nil
}
