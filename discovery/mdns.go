/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package discovery advertises and finds sketchbox servers on the local
// network over mDNS.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/mdns"
)

const ServiceType = "_sketchbox._tcp"

var ErrNotFound = errors.New("no sketchbox server found")

type Advertisement struct {
	server *mdns.Server
}

// Advertise publishes this host's sketchbox server. An empty instance
// uses the hostname.
func Advertise(instance string, port int, info []string) (*Advertisement, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	return &Advertisement{server: server}, nil
}

func (a *Advertisement) Close() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}

// Lookup returns host:port of the first server that answers within timeout.
func Lookup(ctx context.Context, timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	errs := make(chan error, 1)

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	go func() { errs <- mdns.Query(params) }()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", ErrNotFound
		case err := <-errs:
			if err != nil {
				return "", err
			}
			errs = nil
		case e := <-entries:
			if addr, ok := entryAddr(e); ok {
				return addr, nil
			}
		}
	}
}

func entryAddr(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.Port == 0 {
		return "", false
	}

	var ip net.IP
	switch {
	case e.AddrV4 != nil:
		ip = e.AddrV4
	case e.AddrV6 != nil:
		ip = e.AddrV6
	default:
		return "", false
	}

	return net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)), true
}
