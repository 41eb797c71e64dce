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

	"github.com/go-kit/log/level"
	"github.com/keeldb/discovery/internal"
	"github.com/keeldb/discovery/resolver"
)

// run is the refresh loop: resolve, arm the timer, then wait for the
// timer, a RefreshNow kick, or shutdown. It is the only goroutine that
// writes to d.current, so resolutions are serialized by construction.
func (d *Discovery) run(ctx context.Context) {
	defer close(d.done)

	var timer internal.Timer

	for {
		d.refresh(ctx)
		if timer == nil {
			timer = d.clock.NewTimer(d.cfg.RefreshInterval)
		} else {
			timer.Reset(d.cfg.RefreshInterval)
		}

		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.Chan()
			}
			return
		case <-d.refreshCh:
			// The timer must be drained before the next Reset:
			// > Reset should be invoked only on stopped or expired timers
			// > with drained channels.
			// https://pkg.go.dev/time#Timer.Reset
			if !timer.Stop() {
				<-timer.Chan()
			}
		case <-timer.Chan():
		}
	}
}

// refresh performs one resolution attempt, bounded by the configured
// resolution timeout, and publishes the outcome.
func (d *Discovery) refresh(ctx context.Context) {
	d.resolving.Store(true)
	defer d.resolving.Store(false)

	lookupCtx, cancel := context.WithTimeout(ctx, d.cfg.ResolutionTimeout)
	defer cancel()

	targets, err := d.res.LookupSRV(lookupCtx, d.cfg.QueryName)
	if ctx.Err() != nil {
		// Shutting down: discard whatever the lookup returned.
		return
	}
	if err != nil {
		d.observeFailure(err)
		return
	}
	d.observeSuccess(targets)
}

// observeFailure records a failed refresh. The current peer set is left
// untouched no matter how many failures accumulate.
func (d *Discovery) observeFailure(err error) {
	failures := d.failures.Add(1)
	d.metrics.resolutions.WithLabelValues("error").Inc()
	d.metrics.consecutiveFailures.Set(float64(failures))
	level.Warn(d.logger).Log(
		"msg", "SRV resolution failed, keeping previous peer set",
		"query", d.cfg.QueryName,
		"resolver", d.cfg.ResolverAddr,
		"consecutive_failures", failures,
		"err", err,
	)
	if failures >= int64(d.degradedThreshold) && d.degraded.CompareAndSwap(false, true) {
		d.metrics.degraded.Set(1)
		level.Error(d.logger).Log(
			"msg", "seed discovery degraded",
			"query", d.cfg.QueryName,
			"resolver", d.cfg.ResolverAddr,
			"consecutive_failures", failures,
		)
	}
}

// observeSuccess reconciles a successful resolution into the effective
// peer list and publishes the new snapshot.
func (d *Discovery) observeSuccess(resolved []resolver.Target) {
	effective := d.recon.apply(resolved)

	next := &PeerSet{
		targets:    effective,
		queryName:  d.cfg.QueryName,
		resolvedAt: d.clock.Now(),
		generation: d.current.Load().Generation() + 1,
	}
	d.current.Store(next)

	d.failures.Store(0)
	d.metrics.consecutiveFailures.Set(0)
	if d.degraded.CompareAndSwap(true, false) {
		d.metrics.degraded.Set(0)
		level.Info(d.logger).Log(
			"msg", "seed discovery recovered",
			"query", d.cfg.QueryName,
		)
	}
	d.metrics.resolutions.WithLabelValues("success").Inc()
	d.metrics.peers.Set(float64(len(effective)))
	d.metrics.lastSuccess.Set(float64(next.resolvedAt.Unix()))
	level.Debug(d.logger).Log(
		"msg", "resolved seed peers",
		"query", d.cfg.QueryName,
		"peers", len(effective),
		"generation", next.generation,
	)
}
