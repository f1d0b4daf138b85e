package configtypes

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseListenAddress splits ":3001", "3001" or "host:3001" into host and port.
func ParseListenAddress(listen string) (host string, port int, err error) {
	if listen == "" {
		return "", 0, fmt.Errorf("listen address is empty")
	}

	portStr := listen
	if strings.Contains(listen, ":") {
		host, portStr, err = net.SplitHostPort(listen)
		if err != nil {
			return "", 0, fmt.Errorf("invalid listen address format: %s: %w", listen, err)
		}
	}

	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in listen address: %s", listen)
	}
	return host, port, nil
}

// ValidateListenAddress also rejects ports outside 1..65535
func ValidateListenAddress(listen string) error {
	_, port, err := ParseListenAddress(listen)
	if err != nil {
		return err
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// NormalizeListen returns the address in host:port form as net.Listen expects it
func NormalizeListen(listen string) (string, error) {
	host, port, err := ParseListenAddress(listen)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}
