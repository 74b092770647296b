package provider

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultHosts are the API hosts each provider is allowed to talk to unless
// configuration widens the list.
var DefaultHosts = map[string][]string{
	"gemini":     {"generativelanguage.googleapis.com"},
	"stability":  {"api.stability.ai"},
	"elevenlabs": {"api.elevenlabs.io"},
	"runway":     {"api.runwayml.com", "api.dev.runwayml.com"},
}

func NormalizeBaseURL(baseURL, def string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = def
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL accepts only absolute https URLs without credentials, query
// or fragment whose host is in allowedHosts (or the provider defaults when
// allowedHosts is empty).
func ValidateBaseURL(name, baseURL string, allowedHosts []string) error {
	label := strings.ToUpper(name) + "_BASE_URL"
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", label, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", label, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", label, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", label, baseURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid %s %q: https is required", label, baseURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", label, baseURL)
	}
	allowed := normalizeAllowedHosts(allowedHosts, DefaultHosts[name])
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in the allowed hosts", label, baseURL, host)
	}
	return nil
}

func normalizeAllowedHosts(allowedHosts, defaults []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	if len(out) > 0 {
		return out
	}
	for _, h := range defaults {
		out[h] = struct{}{}
	}
	return out
}
