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
	"github.com/go-kit/log"
	"github.com/keeldb/discovery/resolver"
	"github.com/prometheus/client_golang/prometheus"
)

// Option customizes the behavior of a [Discovery] created with [New].
type Option interface {
	apply(*options)
}

type options struct {
	logger            log.Logger
	registerer        prometheus.Registerer
	res               resolver.Resolver
	removalThreshold  int
	degradedThreshold int
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) {
	f(opts)
}

func defaultOptions() options {
	return options{
		logger:            log.NewNopLogger(),
		removalThreshold:  defaultRemovalThreshold,
		degradedThreshold: defaultDegradedThreshold,
	}
}

// WithLogger configures the logger used for refresh outcomes. The default
// discards all log output.
func WithLogger(logger log.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// WithRegisterer registers the discovery metrics with reg. Without this
// option the metrics are still maintained but not exported anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return optionFunc(func(opts *options) {
		opts.registerer = reg
	})
}

// WithResolver overrides the resolver implementation. The default is a
// [resolver.DNSResolver] for the configured resolver address, or the
// system resolver when no address is configured.
func WithResolver(res resolver.Resolver) Option {
	return optionFunc(func(opts *options) {
		opts.res = res
	})
}

// WithRemovalThreshold sets how many consecutive successful refreshes a
// target must be absent from before it is removed from the effective peer
// list. The default is 2; a value of 1 disables flap dampening and
// removes targets as soon as they disappear.
func WithRemovalThreshold(cycles int) Option {
	return optionFunc(func(opts *options) {
		opts.removalThreshold = cycles
	})
}

// WithDegradedThreshold sets how many consecutive resolution failures it
// takes before discovery reports itself degraded. The default is 3.
func WithDegradedThreshold(failures int) Option {
	return optionFunc(func(opts *options) {
		opts.degradedThreshold = failures
	})
}
