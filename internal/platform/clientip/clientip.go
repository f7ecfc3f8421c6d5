// Package clientip resolves and carries the address of the user a request
// is made for, so calls relayed through this process keep their origin.
package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Header is the HTTP header that names the original client on relayed calls.
const Header = "X-Forwarded-For"

type ctxKey struct{}

// NewContext returns a context that carries the given client IP.
func NewContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

// FromContext returns the client IP stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}

// FromRequest returns the IP of the client behind r. The peer address is used
// unless the peer is loopback, in which case the last X-Forwarded-For entry
// wins when it parses as an IP. Forwarded headers from any other peer are
// ignored.
func FromRequest(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !addr.Unmap().IsLoopback() {
		return peer
	}

	fwd := r.Header.Values(Header)
	if len(fwd) == 0 {
		return peer
	}
	entries := strings.Split(fwd[len(fwd)-1], ",")
	origin, err := netip.ParseAddr(strings.TrimSpace(entries[len(entries)-1]))
	if err != nil {
		return peer
	}
	return origin.Unmap().String()
}
