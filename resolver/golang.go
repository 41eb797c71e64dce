// Copyright 2025 The KeelDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resolver

import (
	"context"
	"net"
	"strings"
)

// GoResolver resolves SRV records through a *net.Resolver, so lookups
// follow whatever the standard library is configured to do (usually
// /etc/resolv.conf). Use it when the deployment has no dedicated
// discovery resolver; use [DNSResolver] to query a specific endpoint
// with full response-code visibility.
type GoResolver struct {
	resolver *net.Resolver
}

var _ Resolver = (*GoResolver)(nil)

// NewGoResolver returns a resolver backed by res. Passing
// net.DefaultResolver gives plain system resolution.
func NewGoResolver(res *net.Resolver) *GoResolver {
	return &GoResolver{resolver: res}
}

// NewGoResolverFor returns a GoResolver whose lookups are sent to
// resolverAddr instead of the system-configured nameservers, by routing
// the resolver's dialer to that endpoint.
func NewGoResolverFor(resolverAddr string) *GoResolver {
	addr := withDefaultPort(resolverAddr)
	return NewGoResolver(&net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var dialer net.Dialer
			return dialer.DialContext(ctx, network, addr)
		},
	})
}

// LookupSRV implements Resolver.
func (r *GoResolver) LookupSRV(ctx context.Context, queryName string) ([]Target, error) {
	_, records, err := r.resolver.LookupSRV(ctx, "", "", queryName)
	if err != nil {
		return nil, classifyNetError(queryName, err)
	}
	targets := make([]Target, 0, len(records))
	for _, record := range records {
		host := strings.TrimSuffix(record.Target, ".")
		if host == "" {
			continue
		}
		targets = append(targets, Target{
			Host:     host,
			Port:     record.Port,
			Priority: record.Priority,
			Weight:   record.Weight,
		})
	}
	targets = dedupTargets(targets)
	SortTargets(targets)
	return targets, nil
}
