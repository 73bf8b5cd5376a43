// Package binance implements the exchange gateway against Binance
// USD-M futures: a Config.withDefaults(), a proxy-aware *http.Client,
// and a thin wrapper over the go-binance SDK.
package binance

import (
	"strings"
	"time"
)

// Config configures the REST client. Proxy support covers outbound REST
// traffic even though this gateway has no websocket surface.
type Config struct {
	RESTBaseURL string
	HTTPTimeout time.Duration

	ProxyEnabled bool
	RESTProxyURL string

	APIKey    string
	APISecret string
}

func (c Config) withDefaults() Config {
	out := c
	out.RESTBaseURL = strings.TrimSpace(out.RESTBaseURL)
	if out.RESTBaseURL == "" {
		out.RESTBaseURL = "https://fapi.binance.com"
	}
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 10 * time.Second
	}
	out.RESTProxyURL = strings.TrimSpace(out.RESTProxyURL)
	return out
}
