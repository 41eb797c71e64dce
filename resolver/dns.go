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
	"strings"

	"github.com/miekg/dns"
)

// DNSResolver resolves SRV records by querying one specific resolver
// endpoint, bypassing the system resolver configuration. Queries go out
// over UDP first and are retried over TCP when the response is truncated,
// since SRV record sets for larger clusters routinely overflow a UDP
// datagram.
//
// It is safe for concurrent use.
type DNSResolver struct {
	addr string
	udp  *dns.Client
	tcp  *dns.Client
}

var _ Resolver = (*DNSResolver)(nil)

// NewDNSResolver returns a resolver that sends every query to
// resolverAddr, a "host:port" pair. If resolverAddr carries no port, the
// standard DNS port 53 is assumed.
func NewDNSResolver(resolverAddr string) *DNSResolver {
	return &DNSResolver{
		addr: withDefaultPort(resolverAddr),
		udp:  &dns.Client{Net: "udp"},
		tcp:  &dns.Client{Net: "tcp"},
	}
}

// LookupSRV implements Resolver.
func (r *DNSResolver) LookupSRV(ctx context.Context, queryName string) ([]Target, error) {
	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(queryName), dns.TypeSRV)

	response, _, err := r.udp.ExchangeContext(ctx, query, r.addr)
	if err == nil && response.Truncated {
		response, _, err = r.tcp.ExchangeContext(ctx, query, r.addr)
	}
	if err != nil {
		return nil, classifyTransportError(queryName, err)
	}

	switch response.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, &Error{Kind: KindNameNotFound, Name: queryName}
	case dns.RcodeFormatError:
		return nil, &Error{Kind: KindMalformedResponse, Name: queryName}
	default:
		// SERVFAIL, REFUSED and friends: the endpoint answered but will
		// not serve us, which is no better than not reaching it.
		return nil, &Error{Kind: KindResolverUnreachable, Name: queryName}
	}

	targets := make([]Target, 0, len(response.Answer))
	for _, answer := range response.Answer {
		srv, ok := answer.(*dns.SRV)
		if !ok {
			// CNAMEs and other records mixed into the answer section are
			// not SRV targets. Skip them rather than failing the lookup.
			continue
		}
		host := strings.TrimSuffix(srv.Target, ".")
		if host == "" {
			// A target of "." means the service is decidedly not
			// available at this name (RFC 2782).
			continue
		}
		targets = append(targets, Target{
			Host:     host,
			Port:     srv.Port,
			Priority: srv.Priority,
			Weight:   srv.Weight,
		})
	}
	targets = dedupTargets(targets)
	SortTargets(targets)
	return targets, nil
}
