// Package useragent builds the User-Agent string the application presents to
// remote catalog services and provides an http.RoundTripper that sets it.
//
// The string has the form
//
//	<product>/<version> (<os>; <arch>) Go/<go version>
//
// for example "GreenStripes/1.2.0 (linux; amd64) Go/go1.25.1".
package useragent

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// DefaultProduct is used when no product name is configured.
const DefaultProduct = "GreenStripes"

// Build constructs a User-Agent string for product at version.
//
// Whitespace inside product is replaced by dashes so the product token stays
// a single token. An empty product falls back to DefaultProduct and an empty
// version to "dev".
func Build(product, version string) string {
	product = strings.Join(strings.Fields(product), "-")
	if product == "" {
		product = DefaultProduct
	}
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("%s/%s (%s; %s) Go/%s", product, version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

// Transport sets the User-Agent header on every outgoing request that does
// not already carry one.
type Transport struct {
	// Base is the underlying transport. http.DefaultTransport is used when nil.
	Base http.RoundTripper
	// UserAgent is the header value to send.
	UserAgent string
}

// RoundTrip implements http.RoundTripper. The request is cloned before the
// header is set, as RoundTrippers must not modify the caller's request.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.UserAgent)
	}
	return t.base().RoundTrip(req)
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// Client returns an http.Client whose requests carry userAgent.
func Client(userAgent string) *http.Client {
	return &http.Client{Transport: &Transport{UserAgent: userAgent}}
}
