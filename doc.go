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

// Package discovery implements DNS SRV based seed discovery for cluster
// membership. A node configures the SRV name that lists its cluster's
// transport endpoints and, optionally, a dedicated resolver endpoint to
// query; the package keeps an in-memory set of candidate peer addresses
// fresh in the background and hands it to the cluster-join layer on
// demand.
//
// To use it, create a [Discovery] with [New], start it, and read seed
// addresses whenever the membership layer wants to attempt contact:
//
//	disc, err := discovery.New(discovery.Config{
//		QueryName:    "_transport._tcp.db.example.internal",
//		ResolverAddr: "10.0.0.53:53",
//	})
//	if err != nil {
//		return err
//	}
//	disc.Start(ctx)
//	defer disc.Close()
//
//	for _, addr := range disc.SeedAddresses() {
//		// attempt to join via addr
//	}
//
// The read path is a snapshot read of the last good result: it never
// triggers DNS traffic and never observes a partially applied update. A
// refresh that fails leaves the previous addresses in place, so a flaky
// resolver degrades freshness, not availability; repeated failures are
// surfaced through [Discovery.Degraded] and the registered metrics
// rather than through errors at the call site. Targets that vanish from
// DNS are held for a configurable number of refresh cycles before being
// dropped, so momentary propagation gaps do not flap membership.
//
// Discovery keeps no state across process restarts; everything is
// rebuilt from DNS on startup.
package discovery
