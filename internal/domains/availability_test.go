package domains

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if host == "broken.com" {
		return nil, errors.New("i/o timeout")
	}
	addrs, ok := f[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return addrs, nil
}

func TestCheckerCheck(t *testing.T) {
	checker := NewChecker(fakeResolver{"taken.com": {"93.184.216.34"}})
	ctx := context.Background()

	got := checker.Check(ctx, "Taken.COM")
	assert.True(t, got.Registered)
	assert.Equal(t, "taken.com", got.Domain)

	got = checker.Check(ctx, "freshbrand.io")
	assert.False(t, got.Registered)
	assert.Equal(t, "no DNS records", got.Details)

	got = checker.Check(ctx, "broken.com")
	assert.False(t, got.Registered)
	assert.Contains(t, got.Details, "lookup failed")

	got = checker.Check(ctx, "http://bad")
	assert.False(t, got.Registered)
	assert.Equal(t, "http://bad", got.Domain)
}

func TestCheckerCheckAllKeepsOrder(t *testing.T) {
	checker := NewChecker(fakeResolver{"b2.com": {"10.0.0.1"}})

	got := checker.CheckAll(context.Background(), []string{"a1.com", "b2.com"})

	assert.Equal(t, []bool{false, true}, []bool{got[0].Registered, got[1].Registered})
}
