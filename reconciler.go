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

import "github.com/keeldb/discovery/resolver"

// reconciler converts raw resolved target sets into the stable effective
// peer list, applying flap dampening: a newly seen target becomes
// eligible immediately, but a target only leaves the effective list after
// it has been absent from removalThreshold consecutive successful
// refreshes. This tolerates transient DNS propagation gaps without
// churning cluster membership.
//
// A reconciler is owned by the refresh loop and is not safe for
// concurrent use.
type reconciler struct {
	removalThreshold int

	// effective is the current peer list, keyed by (host, port).
	effective map[Addr]resolver.Target
	// missed counts consecutive successful refreshes in which an
	// effective target did not appear. Entries are reset when the target
	// reappears and evicted together with the target, so the map stays
	// proportional to recently seen targets.
	missed map[Addr]int
}

func newReconciler(removalThreshold int) *reconciler {
	return &reconciler{
		removalThreshold: removalThreshold,
		effective:        make(map[Addr]resolver.Target),
		missed:           make(map[Addr]int),
	}
}

// apply merges the outcome of one successful refresh into the effective
// set and returns the resulting peer list in SRV preference order. It
// must only be called for successful resolutions; failed refreshes leave
// the reconciler untouched.
func (r *reconciler) apply(resolved []resolver.Target) []resolver.Target {
	seen := make(map[Addr]struct{}, len(resolved))
	for _, t := range resolved {
		key := Addr{Host: t.Host, Port: t.Port}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		// Additions take effect immediately; re-seen targets also pick up
		// any priority/weight change from the latest records.
		r.effective[key] = t
		delete(r.missed, key)
	}

	for key := range r.effective {
		if _, ok := seen[key]; ok {
			continue
		}
		r.missed[key]++
		if r.missed[key] >= r.removalThreshold {
			delete(r.effective, key)
			delete(r.missed, key)
		}
	}

	out := make([]resolver.Target, 0, len(r.effective))
	for _, t := range r.effective {
		out = append(out, t)
	}
	resolver.SortTargets(out)
	return out
}
