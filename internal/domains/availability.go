package domains

import (
	"context"
	"errors"
	"net"
)

// HostResolver is the subset of net.Resolver used by Checker.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Availability is a DNS hint, not a registry answer: a name that resolves is
// certainly taken, one that does not may still be registered.
type Availability struct {
	Domain     string `json:"domain"`
	Registered bool   `json:"registered"`
	Details    string `json:"details,omitempty"`
}

type Checker struct {
	Resolver HostResolver
}

func NewChecker(resolver HostResolver) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{Resolver: resolver}
}

func (c *Checker) Check(ctx context.Context, domain string) Availability {
	canonical, err := CanonicalizeDomain(domain)
	if err != nil {
		return Availability{Domain: domain, Details: err.Error()}
	}
	addrs, err := c.Resolver.LookupHost(ctx, canonical)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return Availability{Domain: canonical, Details: "no DNS records"}
		}
		return Availability{Domain: canonical, Details: "lookup failed: " + err.Error()}
	}
	if len(addrs) == 0 {
		return Availability{Domain: canonical, Details: "no addresses"}
	}
	return Availability{Domain: canonical, Registered: true, Details: "resolves to " + addrs[0]}
}

// CheckAll checks each domain in order.
func (c *Checker) CheckAll(ctx context.Context, domains []string) []Availability {
	out := make([]Availability, 0, len(domains))
	for _, d := range domains {
		out = append(out, c.Check(ctx, d))
	}
	return out
}
