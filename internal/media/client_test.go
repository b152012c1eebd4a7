package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIBaseURL: baseURL,
		CloudName:  "stylefit",
		APIKey:     "key123",
		APISecret:  "secret456",
	})
}

func TestTryOnPublicID(t *testing.T) {
	got := TryOnPublicID("/tryon/", 7, 42, 1)
	if got != "tryon/u7/p42/1" {
		t.Fatalf("public id want tryon/u7/p42/1 got %s", got)
	}
}

func TestGetResourceFound(t *testing.T) {
	var gotPath, gotUser, gotPass string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"tryon/u7/p42/1","secure_url":"https://cdn.example.com/tryon/u7/p42/1.jpg","format":"jpg","width":800,"height":1200,"bytes":52311}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resource, err := client.GetResource(context.Background(), "tryon/u7/p42/1")
	if err != nil {
		t.Fatalf("get resource failed: %v", err)
	}
	if resource == nil || resource.SecureURL != "https://cdn.example.com/tryon/u7/p42/1.jpg" {
		t.Fatalf("unexpected resource: %+v", resource)
	}
	if gotPath != "/v1_1/stylefit/resources/image/upload/tryon/u7/p42/1" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotUser != "key123" || gotPass != "secret456" {
		t.Fatalf("basic auth mismatch: %s / %s", gotUser, gotPass)
	}
}

func TestGetResourceNotFoundReturnsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resource, err := client.GetResource(context.Background(), "tryon/u7/p42/9")
	if err != nil {
		t.Fatalf("missing resource should not error: %v", err)
	}
	if resource != nil {
		t.Fatalf("missing resource want nil got %+v", resource)
	}
}

func TestGetResourceUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.GetResource(context.Background(), "tryon/u7/p42/1"); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("want ErrResponseInvalid got %v", err)
	}
}

func TestGetResourceValidation(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.GetResource(context.Background(), "tryon/u1/p1/1"); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty config want ErrConfigInvalid got %v", err)
	}

	client = newTestClient("https://api.example.com")
	if _, err := client.GetResource(context.Background(), "  "); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("blank public id want ErrConfigInvalid got %v", err)
	}
}

func TestUploadSignsAndPostsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart failed: %v", err)
		}
		if got := r.FormValue("public_id"); got != "tryon/u7/p42/1" {
			t.Errorf("public_id want tryon/u7/p42/1 got %s", got)
		}
		if got := r.FormValue("api_key"); got != "key123" {
			t.Errorf("api_key want key123 got %s", got)
		}
		payload := "overwrite=true&public_id=" + r.FormValue("public_id") + "&timestamp=" + r.FormValue("timestamp") + "secret456"
		sum := sha1.Sum([]byte(payload))
		if got := r.FormValue("signature"); got != hex.EncodeToString(sum[:]) {
			t.Errorf("signature mismatch: %s", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file missing: %v", err)
		} else {
			_ = file.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"tryon/u7/p42/1","secure_url":"https://cdn.example.com/tryon/u7/p42/1.jpg"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	resource, err := client.Upload(context.Background(), "tryon/u7/p42/1", []byte("fake-image-bytes"))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if resource.SecureURL != "https://cdn.example.com/tryon/u7/p42/1.jpg" {
		t.Fatalf("unexpected resource: %+v", resource)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	client := newTestClient("https://api.example.com")
	if _, err := client.Upload(context.Background(), "tryon/u7/p42/1", nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty file want ErrConfigInvalid got %v", err)
	}
}

func TestSignParamsStableOrdering(t *testing.T) {
	first := signParams(map[string]string{"b": "2", "a": "1"}, "s")
	second := signParams(map[string]string{"a": "1", "b": "2"}, "s")
	if first != second {
		t.Fatalf("signature should be order independent: %s vs %s", first, second)
	}
}
