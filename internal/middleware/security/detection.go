package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// DetectionMetrics tracks security detection events.
type DetectionMetrics struct {
	SuspiciousRequests int64
}

// Detector flags obviously hostile requests and resolves the real client
// IP behind trusted proxies. The dashboard is an internal tool, so this
// is a coarse filter, not a WAF.
type Detector struct {
	metrics        *DetectionMetrics
	trustedProxies []*net.IPNet
}

// NewDetector creates a detector that trusts loopback and private networks.
func NewDetector() *Detector {
	return &Detector{
		metrics: &DetectionMetrics{},
		trustedProxies: []*net.IPNet{
			mustCIDR("127.0.0.0/8"),
			mustCIDR("10.0.0.0/8"),
			mustCIDR("172.16.0.0/12"),
			mustCIDR("192.168.0.0/16"),
		},
	}
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

var pathPatterns = []string{
	"../", "..\\", ".env", "wp-admin", "phpmyadmin",
	"config.php", ".git", ".ssh",
	"javascript:", "<script", "union select",
	"etc/passwd", "cmd.exe",
}

var scannerAgents = []string{
	"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
}

// DetectSuspiciousRequest flags requests that match known probe patterns.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	suspicious := false

	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, pattern := range pathPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			suspicious = true
			break
		}
	}

	if !suspicious {
		agent := strings.ToLower(r.Header.Get("User-Agent"))
		for _, scanner := range scannerAgents {
			if strings.Contains(agent, scanner) {
				suspicious = true
				break
			}
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		suspicious = true
	}

	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	if suspicious {
		atomic.AddInt64(&d.metrics.SuspiciousRequests, 1)
	}

	return suspicious
}

// ExtractClientIP resolves the real client IP. Forwarded headers are only
// honored when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil {
		return directIP
	}

	if d.isTrustedProxy(parsed) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if net.ParseIP(first) != nil {
				return first
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if net.ParseIP(xri) != nil {
				return xri
			}
		}
	}

	return directIP
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current detection counters.
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.metrics.SuspiciousRequests),
	}
}
