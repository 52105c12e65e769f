// Package egress validates outbound request URLs before any connection is
// made, blocking server-side request forgery targets: private and loopback
// address ranges, link-local addresses, and cloud metadata endpoints. Guards
// are plain values configured per instance; there is no process-global
// policy.
package egress

import (
	"strings"
	"time"
)

// Policy configures a Guard. The zero value blocks private ranges, resolves
// nothing, and allow-lists nothing.
type Policy struct {
	// AllowPrivate permits URLs that point at private, loopback or otherwise
	// non-public address ranges. Meant for development environments only.
	AllowPrivate bool
	// AllowedHosts bypass every check. An explicit operator decision beats
	// the deny list, so an entry here wins even for a deny-listed name.
	AllowedHosts []string
	// BlockedHosts are blocked in addition to the built-in deny list.
	BlockedHosts []string
	// ResolveDNS enables resolving hostnames so that public names pointing
	// at private addresses (DNS rebinding) are caught before connecting.
	ResolveDNS bool
	// ResolveTimeout bounds DNS resolution. Zero means no explicit bound
	// beyond the caller's context.
	ResolveTimeout time.Duration
}

// DefaultPolicy returns the policy shipped with the platform: DNS resolution
// on and the model provider endpoints the platform talks to pre-approved.
func DefaultPolicy() Policy {
	return Policy{
		AllowedHosts: []string{
			"generativelanguage.googleapis.com",
			"api.anthropic.com",
			"api.openai.com",
			"api.x.ai",
			"api.groq.com",
			"gateway.mumega.com",
			"api.mumega.com",
		},
		ResolveDNS:     true,
		ResolveTimeout: 2 * time.Second,
	}
}

// builtinBlockedHosts are always blocked regardless of policy, unless the
// host is explicitly allow-listed: loopback names and the metadata endpoints
// of the major cloud providers.
var builtinBlockedHosts = []string{
	"localhost",
	"127.0.0.1",
	"0.0.0.0",
	"::1",
	"metadata.google.internal",
	"metadata.goog",
	"169.254.169.254",
	"100.100.100.200",
	"fd00:ec2::254",
}

// ParseHostList splits a comma-separated host list into trimmed, lowercased
// hostnames, skipping empty entries.
func ParseHostList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		host := strings.ToLower(strings.TrimSpace(part))
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts
}
