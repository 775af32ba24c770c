package netutils

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
)

// families returns the tcp networks to bind for host. An empty host (or *
// on plan9) binds both tcp4 and tcp6.
func families(host string) ([]string, error) {
	if host == "" || (host == "*" && runtime.GOOS == "plan9") {
		return []string{"tcp4", "tcp6"}, nil
	}

	// The zone prevents ParseIP from parsing the address. Hostnames are
	// rejected instead of resolved.
	if i := strings.IndexByte(host, '%'); i != -1 {
		host = host[:i]
	}
	ip := net.ParseIP(host)
	switch {
	case ip == nil:
		return nil, fmt.Errorf("`%s` is not a valid IP address", host)
	case ip.To4() == nil:
		return []string{"tcp6"}, nil
	default:
		return []string{"tcp4"}, nil
	}
}

// Listen binds to addr on every tcp network its host requires. Listeners
// already bound are closed when a later one fails.
func Listen(addr string) ([]net.Listener, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("`%s` is not a normalized "+
			"listener address", addr)
	}
	nets, err := families(host)
	if err != nil {
		return nil, err
	}

	listeners := make([]net.Listener, 0, len(nets))
	for _, network := range nets {
		l, err := net.Listen(network, addr)
		if err != nil {
			var closeErrs []error
			for _, l := range listeners {
				closeErrs = append(closeErrs, l.Close())
			}
			err = fmt.Errorf("unable to listen on %s:%s: %w", network, addr, err)
			return nil, errors.Join(append([]error{err}, closeErrs...)...)
		}
		listeners = append(listeners, l)
	}
	return listeners, nil
}
