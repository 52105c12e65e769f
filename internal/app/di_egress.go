package app

import (
	"strings"

	"github.com/sovereignos/guard/internal/egress"
	egressHTTP "github.com/sovereignos/guard/internal/egress/http"
)

// EgressGuard returns the egress guard built from the default policy plus
// the hosts configured in the environment.
func (c *Container) EgressGuard() *egress.Guard {
	c.egressGuardInit.Do(func() {
		c.egressGuard = c.initEgressGuard()
	})
	return c.egressGuard
}

// EgressHandler returns the HTTP handler for egress policy checks.
func (c *Container) EgressHandler() (*egressHTTP.EgressHandler, error) {
	c.egressHandlerInit.Do(func() {
		c.egressHandler = egressHTTP.NewEgressHandler(c.EgressGuard(), c.Logger())
	})
	return c.egressHandler, nil
}

// initEgressGuard builds the guard policy from configuration. The configured
// host lists extend the default policy rather than replacing it.
func (c *Container) initEgressGuard() *egress.Guard {
	policy := egress.DefaultPolicy()

	policy.AllowedHosts = append(policy.AllowedHosts, splitHosts(c.config.EgressAllowedHosts)...)
	policy.BlockedHosts = append(policy.BlockedHosts, splitHosts(c.config.EgressBlockedHosts)...)
	policy.AllowPrivate = c.config.EgressAllowPrivate
	policy.ResolveDNS = c.config.EgressResolveDNS
	policy.ResolveTimeout = c.config.EgressResolveTimeout

	return egress.NewGuard(policy)
}

// splitHosts parses a comma-separated host list, dropping empty entries.
func splitHosts(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			hosts = append(hosts, trimmed)
		}
	}
	return hosts
}
