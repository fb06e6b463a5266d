package httpclient

import (
	"net"
	"net/http"
	"time"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient uses browser-like headers to avoid 406 (Not Acceptable) errors
	// Used for sites that require browser-like User-Agent and headers
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// Used for Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ParseClientType maps a config value to a ClientType, defaulting to BrowserClient.
func ParseClientType(s string) ClientType {
	switch ClientType(s) {
	case CloudflareClient:
		return CloudflareClient
	default:
		return BrowserClient
	}
}

// UserAgent returns the User-Agent sent by the given client type.
func (t ClientType) UserAgent() string {
	if t == CloudflareClient {
		return "curl/8.7.1"
	}
	return browserUserAgent
}

// SetHeaders sets the appropriate headers based on client type.
// Crawler requests pass their header map through this before being sent.
func (t ClientType) SetHeaders(h http.Header) {
	switch t {
	case BrowserClient:
		h.Set("User-Agent", browserUserAgent)
		h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		h.Set("Accept-Language", "en-US,en;q=0.9")
		h.Set("Upgrade-Insecure-Requests", "1")

	case CloudflareClient:
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		h.Set("User-Agent", "curl/8.7.1")
	}
}

// NewTransport builds the transport shared by crawler collectors.
func NewTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: time.Second,
	}
}
