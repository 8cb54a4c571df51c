package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/addressfmt"
	"github.com/dmitrymomot/addressfmt/internal/server"
	"github.com/dmitrymomot/addressfmt/pkg/countries"
)

type errorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func newHandler(t *testing.T, opts ...server.Option) http.Handler {
	t.Helper()
	f, err := addressfmt.New()
	require.NoError(t, err)

	opts = append([]server.Option{server.WithRequestIDGenerator(func() string { return "test-id" })}, opts...)
	return server.New(f, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFormat(t *testing.T) {
	t.Parallel()
	h := newHandler(t)

	t.Run("formats both renditions", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodPost, "/v1/format", `{
			"country": "GB",
			"address": {
				"house_name": "House Of Lords",
				"street_name": "Rectory Road",
				"county": "Greater London",
				"state": "England",
				"postalcode": "BR3 1HZ"
			}
		}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "test-id", rec.Header().Get("X-Request-ID"))

		var resp server.FormatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, server.FormatResponse{
			Country:    "GB",
			Multiline:  "House Of Lords\nRectory Road\nGreater London\nEngland\nBR3 1HZ",
			Singleline: "House Of Lords, Rectory Road, Greater London, England, BR3 1HZ",
		}, resp)
	})

	t.Run("sanitizes components", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodPost, "/v1/format",
			`{"country":"gb","address":{"street_name":"<script>x()</script>Rectory Road\nInjected","postalcode":"BR3 1HZ"}}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp server.FormatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Rectory Road Injected\nBR3 1HZ", resp.Multiline)
	})

	t.Run("unsupported country is 404", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodPost, "/v1/format", `{"country":"uk","address":{}}`, "X-Request-ID", "upstream-1")
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "country_not_supported", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, `"uk"`)
		assert.Equal(t, "upstream-1", resp.Error.RequestID)
	})

	t.Run("bad bodies are 400", func(t *testing.T) {
		t.Parallel()
		for name, body := range map[string]string{
			"not json":        `country=gb`,
			"unknown field":   `{"country":"gb","address":{"district":"x"}}`,
			"missing country": `{"address":{"city":"Leeds"}}`,
			"trailing data":   `{"country":"gb"} {"country":"us"}`,
		} {
			rec := do(t, h, http.MethodPost, "/v1/format", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), name)
			assert.Equal(t, "bad_request", resp.Error.Code, name)
			assert.Equal(t, "test-id", resp.Error.RequestID, name)
		}
	})

	t.Run("oversized body is 413", func(t *testing.T) {
		t.Parallel()
		small := newHandler(t, server.WithMaxBodyBytes(32))
		rec := do(t, small, http.MethodPost, "/v1/format",
			`{"country":"gb","address":{"street_name":"`+strings.Repeat("a", 64)+`"}}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("wrong method is 405", func(t *testing.T) {
		t.Parallel()
		rec := do(t, h, http.MethodGet, "/v1/format", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

type renderFailing struct{}

func (renderFailing) Format(country string, _ addressfmt.Fields) (addressfmt.Formatted, error) {
	return addressfmt.Formatted{}, &addressfmt.RenderError{Country: country, Mode: addressfmt.ModeMultiline, Field: "district", Err: addressfmt.ErrFieldNotExposed}
}

func (renderFailing) Countries() []string { return nil }

type panicking struct{ renderFailing }

func (panicking) Format(string, addressfmt.Fields) (addressfmt.Formatted, error) {
	panic("boom")
}

func TestFormat_ErrorMapping(t *testing.T) {
	t.Parallel()

	t.Run("render error is 422", func(t *testing.T) {
		t.Parallel()
		h := server.New(renderFailing{}).Handler()
		rec := do(t, h, http.MethodPost, "/v1/format", `{"country":"gb","address":{}}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "render_failed", resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "district")
	})

	t.Run("panic is 500 without details", func(t *testing.T) {
		t.Parallel()
		h := server.New(panicking{}).Handler()
		rec := do(t, h, http.MethodPost, "/v1/format", `{"country":"gb","address":{}}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "internal", resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "boom")
		assert.NotEmpty(t, resp.Error.RequestID)
	})
}

func TestCountries(t *testing.T) {
	t.Parallel()
	h := newHandler(t)

	rec := do(t, h, http.MethodGet, "/v1/countries", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.CountriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Countries)
	assert.Contains(t, resp.Countries, countries.Info{Code: "gb", Name: "United Kingdom"})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f, err := addressfmt.New()
	require.NoError(t, err)

	rec := do(t, newHandler(t), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("templates: healthy (%d countries registered)", len(f.Countries())))

	rec = do(t, server.New(renderFailing{}).Handler(), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "no countries registered")

	rec = do(t, newHandler(t), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newHandler(t), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := server.RequestID(func() string { return "generated" })(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = server.GetRequestID(r.Context())
	}))

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "generates when absent", want: "generated"},
		{name: "reuses upstream", headers: map[string]string{"X-Request-ID": "abc"}, want: "abc"},
		{name: "falls back to correlation id", headers: map[string]string{"X-Correlation-ID": "corr"}, want: "corr"},
		{name: "replaces oversized ids", headers: map[string]string{"X-Request-ID": strings.Repeat("x", 200)}, want: "generated"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for k, v := range tt.headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.want, seen, tt.name)
		assert.Equal(t, tt.want, rec.Header().Get("X-Request-ID"), tt.name)
	}
}

func TestServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, ln, server.RunConfig{
			Handler:         newHandler(t),
			ShutdownTimeout: time.Second,
		})
	}()

	body := bytes.NewBufferString(`{"country":"us","address":{"street_number":"1600","street_name":"Pennsylvania Avenue NW","city":"Washington","state":"DC","postalcode":"20500"}}`)
	resp, err := http.Post("http://"+ln.Addr().String()+"/v1/format", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out server.FormatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "1600 Pennsylvania Avenue NW, Washington, DC 20500", out.Singleline)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
