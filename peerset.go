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

package discovery

import (
	"net"
	"strconv"
	"time"

	"github.com/keeldb/discovery/resolver"
)

// Addr is a seed address: a host and port a joining node may attempt to
// contact.
type Addr struct {
	Host string
	Port uint16
}

// String returns the address as a dialable "host:port" string.
func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// PeerSet is an immutable snapshot of the effective peer list produced by
// one successful refresh. A new PeerSet supersedes the previous one as a
// whole; readers always observe either the old set or the new set, never
// a mix.
//
// All methods are safe to call on a nil PeerSet, which represents "never
// resolved" and behaves as an empty set with generation zero.
type PeerSet struct {
	targets    []resolver.Target
	queryName  string
	resolvedAt time.Time
	generation uint64
}

// Targets returns a copy of the peer targets in SRV preference order.
func (ps *PeerSet) Targets() []resolver.Target {
	if ps == nil || len(ps.targets) == 0 {
		return nil
	}
	out := make([]resolver.Target, len(ps.targets))
	copy(out, ps.targets)
	return out
}

// Addrs returns the peer addresses in SRV preference order.
func (ps *PeerSet) Addrs() []Addr {
	if ps == nil || len(ps.targets) == 0 {
		return nil
	}
	out := make([]Addr, len(ps.targets))
	for i, t := range ps.targets {
		out[i] = Addr{Host: t.Host, Port: t.Port}
	}
	return out
}

// Len returns the number of peers in the set.
func (ps *PeerSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.targets)
}

// QueryName returns the SRV name this set was resolved from.
func (ps *PeerSet) QueryName() string {
	if ps == nil {
		return ""
	}
	return ps.queryName
}

// ResolvedAt returns when the refresh producing this set completed.
func (ps *PeerSet) ResolvedAt() time.Time {
	if ps == nil {
		return time.Time{}
	}
	return ps.resolvedAt
}

// Generation returns the refresh generation that produced this set.
// Generations increase by one on every successful refresh, starting at 1.
func (ps *PeerSet) Generation() uint64 {
	if ps == nil {
		return 0
	}
	return ps.generation
}
