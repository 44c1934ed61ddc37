package track

import "net"

// Provenance tags assigned to entries at upsert time.
const (
	OriginLoopback = "loopback"
	OriginPrivate  = "private"
	OriginPublic   = "public"
	OriginUnknown  = "unknown"
)

// Classify tags a producer's network origin. remoteAddr is the host:port
// the HTTP server reports; a bare host is also accepted.
func Classify(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	switch {
	case ip == nil:
		return OriginUnknown
	case ip.IsLoopback():
		return OriginLoopback
	case ip.IsPrivate(), ip.IsLinkLocalUnicast():
		return OriginPrivate
	default:
		return OriginPublic
	}
}
