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

// Package resolver provides single-shot DNS SRV resolution for cluster
// seed discovery.
//
// A [Resolver] turns a query name into a deduplicated, preference-ordered
// set of [Target] values, one per SRV record. Two implementations are
// provided: [DNSResolver] queries one configured resolver endpoint
// directly (the usual choice for discovery, where the records live on a
// dedicated nameserver), and [GoResolver] goes through the standard
// library resolver.
//
// Failures are classified into a small taxonomy of transient [Error]
// kinds; callers are expected to keep whatever addresses they already
// have and retry on the next refresh.
package resolver
