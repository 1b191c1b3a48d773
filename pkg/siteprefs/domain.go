package siteprefs

import (
	"net"
	"strings"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// multiPartTLDs are the suffixes the fallback keeps three labels for when
// the public suffix list cannot parse a host.
var multiPartTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.nz": true, "co.jp": true, "co.in": true, "co.za": true,
	"com.br": true, "com.mx": true, "com.sg": true, "com.tr": true,
}

// RootDomain generalizes host to its registrable domain, e.g.
// "jobs.example.co.uk" -> "example.co.uk". Hosts without a dot and IP
// addresses are returned unchanged.
func RootDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" || !strings.Contains(host, ".") || net.ParseIP(host) != nil {
		return host
	}
	if domain, err := publicsuffix.Domain(host); err == nil {
		return domain
	}

	labels := strings.Split(host, ".")
	n := len(labels)
	if n <= 2 {
		return host
	}
	if multiPartTLDs[labels[n-2]+"."+labels[n-1]] {
		return strings.Join(labels[n-3:], ".")
	}
	return strings.Join(labels[n-2:], ".")
}
