package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestClientDoSendsJSONAndDecodes(t *testing.T) {
	var capturedURL, capturedKey, capturedType string
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedKey = req.Header.Get("X-Api-Key")
		capturedType = req.Header.Get("Content-Type")

		var payload map[string]any
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["name"] != "demo" {
			t.Fatalf("unexpected payload %+v", payload)
		}
		return jsonResponse(http.StatusOK, `{"ok":true}`), nil
	})

	client, err := NewClient("http://collab.test/v1/", WithAPIKey(" key "), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var out struct {
		OK bool `json:"ok"`
	}
	if err := client.Do(context.Background(), http.MethodPost, "/things", map[string]string{"name": "demo"}, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if capturedURL != "http://collab.test/v1/things" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if capturedKey != "key" {
		t.Fatalf("unexpected api key %q", capturedKey)
	}
	if capturedType != "application/json" {
		t.Fatalf("unexpected content type %q", capturedType)
	}
	if !out.OK {
		t.Fatalf("expected decoded body")
	}
}

func TestClientDoWrapsStatusErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, "upstream down"), nil
	})
	client, err := NewClient("http://collab.test", WithHTTPClient(&http.Client{Transport: rt}), WithErrorCode(pkgerrors.CodeQuoteFailure))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Do(context.Background(), http.MethodGet, "quote", nil, nil)
	if !pkgerrors.Is(err, pkgerrors.CodeQuoteFailure) {
		t.Fatalf("expected quote failure code, got %v", err)
	}
	if StatusCode(err) != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", StatusCode(err))
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected body in error, got %v", err)
	}
}

func TestClientDoWrapsTransportErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client, err := NewClient("http://collab.test", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Do(context.Background(), http.MethodGet, "x", nil, nil)
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency code, got %v", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("expected no status for transport errors")
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
