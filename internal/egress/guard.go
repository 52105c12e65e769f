package egress

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"

	apperrors "github.com/sovereignos/guard/internal/errors"
)

// BlockedError reports a URL rejected by egress policy. It unwraps to the
// forbidden error class; malformed URLs are a different failure and wrap
// the invalid input class instead.
type BlockedError struct {
	Host   string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("egress blocked for %s: %s", e.Host, e.Reason)
}

func (e *BlockedError) Unwrap() error {
	return apperrors.ErrForbidden
}

// Non-public address ranges per family. IPv4-mapped IPv6 addresses are
// unmapped before classification so ::ffff:10.0.0.1 matches the v4 table.
var (
	privateV4 = []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("169.254.0.0/16"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
		netip.MustParsePrefix("224.0.0.0/4"),
		netip.MustParsePrefix("240.0.0.0/4"),
	}
	privateV6 = []netip.Prefix{
		netip.MustParsePrefix("::1/128"),
		netip.MustParsePrefix("fc00::/7"),
		netip.MustParsePrefix("fe80::/10"),
		netip.MustParsePrefix("ff00::/8"),
	}
)

func isPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	prefixes := privateV4
	if addr.Is6() {
		prefixes = privateV6
	}
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ipResolver is the slice of net.Resolver the guard depends on.
type ipResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Guard validates outbound URLs against a Policy. A Guard is immutable after
// construction and safe for concurrent use.
type Guard struct {
	policy   Policy
	allowed  map[string]struct{}
	blocked  map[string]struct{}
	resolver ipResolver
}

// NewGuard builds a Guard from a policy, normalizing host lists to lowercase.
func NewGuard(policy Policy) *Guard {
	allowed := make(map[string]struct{}, len(policy.AllowedHosts))
	for _, host := range policy.AllowedHosts {
		allowed[strings.ToLower(host)] = struct{}{}
	}
	blocked := make(map[string]struct{}, len(builtinBlockedHosts)+len(policy.BlockedHosts))
	for _, host := range builtinBlockedHosts {
		blocked[host] = struct{}{}
	}
	for _, host := range policy.BlockedHosts {
		blocked[strings.ToLower(host)] = struct{}{}
	}
	return &Guard{
		policy:   policy,
		allowed:  allowed,
		blocked:  blocked,
		resolver: net.DefaultResolver,
	}
}

// Policy returns the policy the guard was built with.
func (g *Guard) Policy() Policy {
	return g.policy
}

// ValidateURL checks a raw URL against the policy and returns it unchanged
// when it is safe to fetch. Checks run in a fixed order: parse, scheme,
// allow list, deny list, literal address classification, then optional DNS
// resolution. Resolution failures do not block the request; the guard
// protects against reaching private ranges, not against DNS outages.
func (g *Guard) ValidateURL(ctx context.Context, raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("parse url: %v", err))
	}
	if u.Scheme == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "url missing scheme")
	}

	host := strings.ToLower(u.Hostname())

	// Scheme is checked before the hostname: schemes like file:// carry no
	// meaningful host and must be rejected on scheme alone.
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &BlockedError{Host: host, Reason: fmt.Sprintf("scheme %q is not allowed", u.Scheme)}
	}
	if host == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "url missing hostname")
	}

	if _, ok := g.allowed[host]; ok {
		return raw, nil
	}
	if _, ok := g.blocked[host]; ok {
		return "", &BlockedError{Host: host, Reason: "host is on the deny list"}
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isPrivateAddr(addr) && !g.policy.AllowPrivate {
			return "", &BlockedError{
				Host:   host,
				Reason: fmt.Sprintf("address %s is in a private range", addr),
			}
		}
		return raw, nil
	}

	if g.policy.ResolveDNS && !g.policy.AllowPrivate {
		if blockedErr := g.checkResolved(ctx, host); blockedErr != nil {
			return "", blockedErr
		}
	}

	return raw, nil
}

// checkResolved resolves every address for host and classifies each one. Any
// private address blocks the request. Lookup errors are swallowed: a name
// that does not resolve will fail at connect time anyway.
func (g *Guard) checkResolved(ctx context.Context, host string) error {
	if g.policy.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.policy.ResolveTimeout)
		defer cancel()
	}

	addrs, err := g.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		if isPrivateAddr(addr) {
			return &BlockedError{
				Host:   host,
				Reason: fmt.Sprintf("resolves to private address %s", addr.Unmap()),
			}
		}
	}
	return nil
}
