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
	"sort"
	"strconv"
)

// Target is a single SRV record: the host and port of a candidate peer,
// plus the record's priority and weight.
//
// Targets are produced fresh on every successful lookup and are never
// mutated after construction.
type Target struct {
	Host     string
	Port     uint16
	Priority uint16
	Weight   uint16
}

// Addr returns the target as a dialable "host:port" string.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// Resolver performs single-shot SRV resolution for a query name.
//
// Implementations issue one network round trip per call, keep no state
// between calls, and honor cancellation and deadlines via the given
// context. A successful lookup with zero records is a valid result and is
// returned as an empty slice with a nil error; failures are reported as a
// *[Error] describing what went wrong.
type Resolver interface {
	// LookupSRV resolves queryName into SRV targets, deduplicated by
	// (host, port) and sorted into [SortTargets] order.
	LookupSRV(ctx context.Context, queryName string) ([]Target, error)
}

// SortTargets sorts targets into SRV preference order: priority ascending,
// then weight descending. Ties are broken by host and port so that the
// result is deterministic for a given record set.
func SortTargets(targets []Target) {
	sort.Slice(targets, func(i, j int) bool {
		a, b := targets[i], targets[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		return a.Port < b.Port
	})
}

// dedupTargets drops targets that repeat an already-seen (host, port) pair,
// keeping the first occurrence.
func dedupTargets(targets []Target) []Target {
	seen := make(map[string]struct{}, len(targets))
	out := targets[:0]
	for _, t := range targets {
		key := t.Addr()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// withDefaultPort appends the standard DNS port to addr if it does not
// already carry one.
func withDefaultPort(addr string) string {
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, "53")
}
