// Package ccache encodes and decodes MIT Kerberos credential cache files.
//
// # Overview
//
// The ccache format is the on-disk credential store used by MIT Kerberos
// on Linux/Unix (typically /tmp/krb5cc_<uid>, or wherever KRB5CCNAME
// points). It is a flat big-endian binary format, not ASN.1:
//
//   - Preamble: pvno byte (always 5) and a version byte (3 or 4)
//   - Version 4 only: a tagged header (clock offsets and friends)
//   - Default principal: the identity the cache belongs to
//   - Primary credential: a full ticket record with session key
//   - Further credentials: zero or more additional ticket records
//
// This package implements both directions of the transform over in-memory
// byte slices. It never touches the network, never interprets key or
// ticket bytes, and holds no state between calls, so concurrent use is
// safe as long as each call works on its own buffer.
//
// # Reading and writing
//
// Parse a cache image with Unmarshal, or straight from disk with Load:
//
//	cc, err := ccache.Load("/tmp/krb5cc_1000")
//	if err != nil { ... }
//	fmt.Println(cc.DefaultPrincipal.String())
//
// The additional-credentials region stays opaque on the container; split
// it with UnmarshalCredentials when per-record access is needed, or use
// the Credentials convenience method which does both steps.
//
// All length fields in a cache are untrusted input. Every decode is
// bounds-checked, and length-prefixed fields are capped (default 16 MiB,
// tunable via the WithLimit variants) so a corrupted cache cannot demand
// an arbitrarily large allocation.
package ccache
