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
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// ErrorKind classifies a resolution failure. All kinds are transient:
// none of them should cause the calling process to stop retrying.
type ErrorKind int

const (
	// KindTimeout means the resolver did not answer within the deadline
	// carried by the lookup context.
	KindTimeout ErrorKind = iota + 1

	// KindNameNotFound means the resolver answered authoritatively that
	// the query name does not exist (NXDOMAIN).
	KindNameNotFound

	// KindResolverUnreachable means the resolver endpoint could not be
	// reached, or refused to serve the query.
	KindResolverUnreachable

	// KindMalformedResponse means the resolver sent bytes that could not
	// be parsed as a DNS response.
	KindMalformedResponse
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNameNotFound:
		return "name not found"
	case KindResolverUnreachable:
		return "resolver unreachable"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// Error is a classified SRV resolution failure.
type Error struct {
	Kind ErrorKind
	Name string // the query name being resolved
	Err  error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("srv lookup %s: %s: %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("srv lookup %s: %s", e.Name, e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a resolution timeout, matching
// the net.Error convention.
func (e *Error) Timeout() bool {
	return e.Kind == KindTimeout
}

// classifyNetError maps a failure surfaced by the standard library
// resolver onto the Error taxonomy.
func classifyNetError(name string, err error) *Error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return &Error{Kind: KindNameNotFound, Name: name, Err: err}
		case dnsErr.IsTimeout:
			return &Error{Kind: KindTimeout, Name: name, Err: err}
		// The net package flattens response parse failures into an opaque
		// error string, so match on it.
		case strings.Contains(dnsErr.Err, "unmarshal"):
			return &Error{Kind: KindMalformedResponse, Name: name, Err: err}
		default:
			// "server misbehaving", refused connections and the like.
			return &Error{Kind: KindResolverUnreachable, Name: name, Err: err}
		}
	}
	return classifyTransportError(name, err)
}

// classifyTransportError maps socket-level failures onto the Error
// taxonomy. Anything that is neither a deadline nor a network error is
// assumed to be a response the client could not make sense of.
func classifyTransportError(name string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return &Error{Kind: KindTimeout, Name: name, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Name: name, Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &Error{Kind: KindResolverUnreachable, Name: name, Err: err}
	}
	return &Error{Kind: KindMalformedResponse, Name: name, Err: err}
}
