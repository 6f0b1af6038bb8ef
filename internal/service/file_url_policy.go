package service

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"
)

// ErrFileURLNotAllowed indicates a file_url outside the configured storage hosts.
var ErrFileURLNotAllowed = errors.New("file_url must be an https link to an allowed storage host")

const maxFileRedirects = 3

var sharedAddressSpace = mustCIDR("100.64.0.0/10")

// FileURLPolicy decides which submission file links the service accepts and fetches.
// Entries in AllowedHosts match exactly; an entry with a leading dot also matches subdomains.
type FileURLPolicy struct {
	AllowedHosts []string

	allowHTTP    bool
	allowPrivate bool
}

// NewFileURLPolicy normalizes the allowed host list. An empty list rejects every link.
func NewFileURLPolicy(hosts []string) FileURLPolicy {
	normalized := make([]string, 0, len(hosts))
	for _, host := range hosts {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			normalized = append(normalized, host)
		}
	}
	return FileURLPolicy{AllowedHosts: normalized}
}

// Check validates a link before it is stored or fetched.
func (p FileURLPolicy) Check(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileURLNotAllowed, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "https":
	case "http":
		if !p.allowHTTP {
			return ErrFileURLNotAllowed
		}
	default:
		return ErrFileURLNotAllowed
	}

	if parsed.User != nil {
		return ErrFileURLNotAllowed
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" || !p.hostAllowed(host) {
		return ErrFileURLNotAllowed
	}

	if ip := net.ParseIP(host); ip != nil && !p.addressAllowed(ip) {
		return ErrFileURLNotAllowed
	}

	return nil
}

func (p FileURLPolicy) hostAllowed(host string) bool {
	for _, allowed := range p.AllowedHosts {
		if strings.HasPrefix(allowed, ".") {
			if strings.HasSuffix(host, allowed) || host == strings.TrimPrefix(allowed, ".") {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}

func (p FileURLPolicy) addressAllowed(ip net.IP) bool {
	if p.allowPrivate {
		return true
	}
	return !restrictedIP(ip)
}

// Client returns an HTTP client that re-checks every redirect and refuses to connect
// to restricted addresses after DNS resolution.
func (p FileURLPolicy) Client(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	dialer := &net.Dialer{
		Timeout: 5 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFileURLNotAllowed, err)
			}
			ip := net.ParseIP(host)
			if ip == nil || !p.addressAllowed(ip) {
				return fmt.Errorf("%w: restricted address %s", ErrFileURLNotAllowed, host)
			}
			return nil
		},
	}

	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        10,
		IdleConnTimeout:     30 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxFileRedirects {
				return fmt.Errorf("%w: too many redirects", ErrFileURLNotAllowed)
			}
			return p.Check(req.URL.String())
		},
	}
}

func restrictedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified() ||
		sharedAddressSpace.Contains(ip)
}

func mustCIDR(value string) *net.IPNet {
	_, network, err := net.ParseCIDR(value)
	if err != nil {
		panic(err)
	}
	return network
}
