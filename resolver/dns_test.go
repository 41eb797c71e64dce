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
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZoneName = "_test._srv.keel.internal."

func srvRecord(name, host string, port, priority, weight uint16) *dns.SRV {
	return &dns.SRV{
		Hdr: dns.RR_Header{
			Name:   name,
			Rrtype: dns.TypeSRV,
			Class:  dns.ClassINET,
			Ttl:    600,
		},
		Priority: priority,
		Weight:   weight,
		Port:     port,
		Target:   host,
	}
}

// srvZone serves SRV records for a single name, NXDOMAIN for everything
// else. With truncateUDP set, UDP queries get an empty truncated reply so
// that clients retry over TCP.
type srvZone struct {
	name        string
	records     []dns.RR
	rcode       int
	truncateUDP bool
}

func (z *srvZone) ServeDNS(w dns.ResponseWriter, req *dns.Msg) {
	reply := new(dns.Msg)
	reply.SetReply(req)
	reply.Authoritative = true
	_, isUDP := w.RemoteAddr().(*net.UDPAddr)
	switch {
	case z.rcode != dns.RcodeSuccess:
		reply.Rcode = z.rcode
	case req.Question[0].Name != z.name:
		reply.Rcode = dns.RcodeNameError
	case z.truncateUDP && isUDP:
		reply.Truncated = true
	default:
		reply.Answer = append(reply.Answer, z.records...)
	}
	_ = w.WriteMsg(reply)
}

// newTestDNSServer serves handler on a loopback UDP socket and a TCP
// listener on the same port, returning the resolver address to query.
func newTestDNSServer(t *testing.T, handler dns.Handler) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	udpServer := &dns.Server{PacketConn: pc, Handler: handler}
	go func() { _ = udpServer.ActivateAndServe() }()
	t.Cleanup(func() { _ = udpServer.Shutdown() })

	listener, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	tcpServer := &dns.Server{Listener: listener, Handler: handler}
	go func() { _ = tcpServer.ActivateAndServe() }()
	t.Cleanup(func() { _ = tcpServer.Shutdown() })

	return addr
}

func threeNodeZone() *srvZone {
	return &srvZone{
		name: testZoneName,
		records: []dns.RR{
			srvRecord(testZoneName, "127.0.0.1.", 4001, 1, 10),
			srvRecord(testZoneName, "127.0.0.1.", 4002, 1, 10),
			srvRecord(testZoneName, "127.0.0.1.", 4003, 1, 10),
		},
	}
}

func TestDNSResolverLookup(t *testing.T) {
	t.Parallel()

	addr := newTestDNSServer(t, threeNodeZone())
	res := NewDNSResolver(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	targets, err := res.LookupSRV(ctx, testZoneName)
	require.NoError(t, err)
	require.Len(t, targets, 3)
	for i, port := range []uint16{4001, 4002, 4003} {
		assert.Equal(t, "127.0.0.1", targets[i].Host)
		assert.Equal(t, port, targets[i].Port)
		assert.Equal(t, uint16(1), targets[i].Priority)
		assert.Equal(t, uint16(10), targets[i].Weight)
	}
}

func TestDNSResolverDeduplicatesAndSkipsJunk(t *testing.T) {
	t.Parallel()

	zone := &srvZone{
		name: testZoneName,
		records: []dns.RR{
			srvRecord(testZoneName, "127.0.0.1.", 4001, 1, 10),
			srvRecord(testZoneName, "127.0.0.1.", 4001, 1, 10), // duplicate
			srvRecord(testZoneName, ".", 4002, 1, 10),          // "service not available" target
			&dns.CNAME{ // non-SRV record in the answer section
				Hdr:    dns.RR_Header{Name: testZoneName, Rrtype: dns.TypeCNAME, Class: dns.ClassINET, Ttl: 600},
				Target: "elsewhere.keel.internal.",
			},
			srvRecord(testZoneName, "127.0.0.1.", 4003, 1, 10),
		},
	}
	res := NewDNSResolver(newTestDNSServer(t, zone))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	targets, err := res.LookupSRV(ctx, testZoneName)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, uint16(4001), targets[0].Port)
	assert.Equal(t, uint16(4003), targets[1].Port)
}

func TestDNSResolverEmptyZoneIsValid(t *testing.T) {
	t.Parallel()

	res := NewDNSResolver(newTestDNSServer(t, &srvZone{name: testZoneName}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	targets, err := res.LookupSRV(ctx, testZoneName)
	require.NoError(t, err, "zero SRV records with a clean response code is a valid result")
	assert.Empty(t, targets)
}

func TestDNSResolverNameNotFound(t *testing.T) {
	t.Parallel()

	res := NewDNSResolver(newTestDNSServer(t, threeNodeZone()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	_, err := res.LookupSRV(ctx, "_missing._srv.keel.internal.")
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, KindNameNotFound, resErr.Kind)
}

func TestDNSResolverServfail(t *testing.T) {
	t.Parallel()

	res := NewDNSResolver(newTestDNSServer(t, &srvZone{name: testZoneName, rcode: dns.RcodeServerFailure}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	_, err := res.LookupSRV(ctx, testZoneName)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, KindResolverUnreachable, resErr.Kind)
}

func TestDNSResolverFormatError(t *testing.T) {
	t.Parallel()

	res := NewDNSResolver(newTestDNSServer(t, &srvZone{name: testZoneName, rcode: dns.RcodeFormatError}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	_, err := res.LookupSRV(ctx, testZoneName)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, KindMalformedResponse, resErr.Kind)
}

type silentHandler struct{}

func (silentHandler) ServeDNS(dns.ResponseWriter, *dns.Msg) {
	// Never answer; the client must give up at its deadline.
}

func TestDNSResolverTimeout(t *testing.T) {
	t.Parallel()

	res := NewDNSResolver(newTestDNSServer(t, silentHandler{}))

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	t.Cleanup(cancel)

	_, err := res.LookupSRV(ctx, testZoneName)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, KindTimeout, resErr.Kind)
	assert.True(t, resErr.Timeout())
}

func TestDNSResolverMalformedResponse(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	go func() {
		buf := make([]byte, 512)
		for {
			_, addr, err := pc.ReadFrom(buf)
			if err != nil {
				return
			}
			// Reply with bytes too short to even hold a DNS header.
			_, _ = pc.WriteTo([]byte{0xde, 0xad, 0xbe}, addr)
		}
	}()

	res := NewDNSResolver(pc.LocalAddr().String())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	_, err = res.LookupSRV(ctx, testZoneName)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, KindMalformedResponse, resErr.Kind)
}

func TestDNSResolverUnreachable(t *testing.T) {
	t.Parallel()

	// Grab a loopback port and close it again so nothing is listening.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := pc.LocalAddr().String()
	require.NoError(t, pc.Close())

	res := NewDNSResolver(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	t.Cleanup(cancel)

	_, err = res.LookupSRV(ctx, testZoneName)
	var resErr *Error
	require.ErrorAs(t, err, &resErr)
	// Whether the kernel reports the refused datagram or the read just
	// times out depends on the platform; both classifications are fine.
	assert.Contains(t, []ErrorKind{KindResolverUnreachable, KindTimeout}, resErr.Kind)
}

func TestDNSResolverTruncatedFallsBackToTCP(t *testing.T) {
	t.Parallel()

	zone := threeNodeZone()
	zone.truncateUDP = true
	res := NewDNSResolver(newTestDNSServer(t, zone))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	targets, err := res.LookupSRV(ctx, testZoneName)
	require.NoError(t, err)
	assert.Len(t, targets, 3)
}
