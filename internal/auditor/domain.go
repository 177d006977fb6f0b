package auditor

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalHost returns the lower-cased host of rawURL without port or a
// leading "www.". Input that does not parse as a URL with a host is
// returned unchanged.
func CanonicalHost(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return rawURL
	}
	return host
}

// RegistrableDomain reduces a canonical host to its eTLD+1, so that
// news.bbc.co.uk and www.bbc.co.uk group together. Hosts without a known
// public suffix (IP addresses, localhost) come back as is.
func RegistrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
