package ratelimit

import (
	"net/http"
	"strings"
)

// MatchEndpoint returns the configuration that applies to a request, or nil if none does.
//
// An exact path match wins. Otherwise the longest configured path ending in "/" that
// prefixes the request path is used, so "/share/" covers every share link. An empty
// Method matches any method. GET /health is never limited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == http.MethodGet {
		return &EndpointConfig{Path: path, Method: method}
	}

	var prefix *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != "" && config.Method != method {
			continue
		}
		if config.Path == path {
			return config
		}
		if strings.HasSuffix(config.Path, "/") && strings.HasPrefix(path, config.Path) {
			if prefix == nil || len(config.Path) > len(prefix.Path) {
				prefix = config
			}
		}
	}
	return prefix
}
