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
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/keeldb/discovery/internal"
	"github.com/keeldb/discovery/resolver"
)

const (
	defaultRefreshInterval   = 30 * time.Second
	defaultResolutionTimeout = 5 * time.Second
	defaultRemovalThreshold  = 2
	defaultDegradedThreshold = 3
)

// Config holds the discovery settings supplied by the node configuration
// loader. It is immutable after being passed to [New].
type Config struct {
	// QueryName is the DNS SRV record name to query, for example
	// "_transport._tcp.db.example.internal".
	QueryName string

	// ResolverAddr is the "host:port" of the DNS resolver to query,
	// overriding the system default. Empty means use the system resolver.
	ResolverAddr string

	// RefreshInterval is how often the peer set is re-resolved.
	// Defaults to 30s.
	RefreshInterval time.Duration

	// ResolutionTimeout bounds each resolution attempt. It must be
	// shorter than RefreshInterval so a hung resolver never costs more
	// than one scheduling cycle. Defaults to 5s.
	ResolutionTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.RefreshInterval == 0 {
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.ResolutionTimeout == 0 {
		c.ResolutionTimeout = defaultResolutionTimeout
	}
}

func (c *Config) validate() error {
	if c.QueryName == "" {
		return errors.New("discovery: query name must not be empty")
	}
	if c.RefreshInterval < 0 || c.ResolutionTimeout < 0 {
		return errors.New("discovery: intervals must be positive")
	}
	if c.ResolutionTimeout >= c.RefreshInterval {
		return fmt.Errorf("discovery: resolution timeout %v must be shorter than refresh interval %v",
			c.ResolutionTimeout, c.RefreshInterval)
	}
	return nil
}

// Discovery maintains the current set of cluster seed addresses for one
// node, kept fresh by a background refresh loop that re-resolves the
// configured SRV name. Create one per node with [New], begin refreshing
// with [Discovery.Start], and tear it down with [Discovery.Close] when
// the membership subsystem shuts down.
//
// The read path ([Discovery.SeedAddresses] and friends) never performs
// I/O and never blocks on a refresh: it returns the most recently
// published snapshot, swapped in atomically as a whole. Resolution
// failures are absorbed by the refresh loop and never surface to
// readers; a previously good peer set is retained until a newer
// successful resolution replaces it.
type Discovery struct {
	cfg     Config
	res     resolver.Resolver
	logger  log.Logger
	metrics *metrics
	recon   *reconciler

	degradedThreshold int

	clock internal.Clock

	// current is the only shared handle to the peer set. The refresh
	// loop is the sole writer.
	current   atomic.Pointer[PeerSet]
	failures  atomic.Int64
	degraded  atomic.Bool
	resolving atomic.Bool

	refreshCh chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a Discovery for the given configuration. It performs no
// I/O; call Start to begin resolving.
func New(cfg Config, opts ...Option) (*Discovery, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.removalThreshold < 1 {
		return nil, errors.New("discovery: removal threshold must be at least 1")
	}
	if o.degradedThreshold < 1 {
		return nil, errors.New("discovery: degraded threshold must be at least 1")
	}
	res := o.res
	if res == nil {
		if cfg.ResolverAddr != "" {
			res = resolver.NewDNSResolver(cfg.ResolverAddr)
		} else {
			res = resolver.NewGoResolver(net.DefaultResolver)
		}
	}
	return &Discovery{
		cfg:               cfg,
		res:               res,
		logger:            o.logger,
		metrics:           newMetrics(o.registerer),
		recon:             newReconciler(o.removalThreshold),
		degradedThreshold: o.degradedThreshold,
		clock:             internal.NewRealClock(),
		refreshCh:         make(chan struct{}, 1),
		done:              make(chan struct{}),
	}, nil
}

// Start launches the background refresh loop. The first resolution is
// attempted immediately. The loop runs until Close is called or ctx is
// cancelled; ctx should outlive the Discovery and only be cancelled to
// eagerly release it.
func (d *Discovery) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		ctx, d.cancel = context.WithCancel(ctx)
		d.started.Store(true)
		go d.run(ctx)
	})
}

// Close stops the refresh loop and waits for it to exit. An in-flight
// resolution is abandoned and its result discarded. Close is idempotent
// and safe to call even if Start was never called.
func (d *Discovery) Close() error {
	d.closeOnce.Do(func() {
		if d.started.Load() {
			d.cancel()
			<-d.done
		}
	})
	return nil
}

// SeedAddresses returns the current effective seed addresses in SRV
// preference order (priority ascending, weight descending). It never
// blocks and never performs I/O. Before the first successful resolution
// it returns an empty list; callers should treat that as "retry later".
func (d *Discovery) SeedAddresses() []Addr {
	return d.current.Load().Addrs()
}

// Targets returns the current effective peers with their full SRV
// tuples, in the same order as SeedAddresses.
func (d *Discovery) Targets() []resolver.Target {
	return d.current.Load().Targets()
}

// Snapshot returns the current peer set snapshot. It returns nil if no
// resolution has succeeded yet; the returned set is immutable.
func (d *Discovery) Snapshot() *PeerSet {
	return d.current.Load()
}

// Generation returns the generation of the current snapshot, or zero if
// nothing has been resolved yet.
func (d *Discovery) Generation() uint64 {
	return d.current.Load().Generation()
}

// LastResolved returns the completion time of the last successful
// refresh, or the zero time if there has been none.
func (d *Discovery) LastResolved() time.Time {
	return d.current.Load().ResolvedAt()
}

// Degraded reports whether resolution has failed enough consecutive
// times to consider discovery unhealthy. The cached peer set remains
// served while degraded; this flag exists for the monitoring surface.
func (d *Discovery) Degraded() bool {
	return d.degraded.Load()
}

// RefreshNow asks the refresh loop to re-resolve as soon as possible,
// for example when the membership layer has run out of reachable peers.
// It never blocks: requests are coalesced, and a request made while a
// resolution is already in flight is dropped.
func (d *Discovery) RefreshNow() {
	if d.resolving.Load() {
		return
	}
	select {
	case d.refreshCh <- struct{}{}:
	default:
	}
}
