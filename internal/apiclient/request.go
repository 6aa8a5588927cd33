package apiclient

import (
	"net/http"
	"net/url"
)

// RequestOption customizes an outgoing request.
type RequestOption func(*http.Request)

func WithHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithBearer sets the Authorization header for token.
func WithBearer(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithQuery replaces the request's query string with params.
func WithQuery(params url.Values) RequestOption {
	return func(req *http.Request) {
		req.URL.RawQuery = params.Encode()
	}
}
