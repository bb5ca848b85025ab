// Package kirbi reads, writes, and converts .kirbi ticket files.
//
// # Overview
//
// A .kirbi file is a DER-encoded KRB-CRED message (RFC 4120 section
// 5.8), the ticket container used on Windows and by tools such as
// Mimikatz and Rubeus. The enc-part is conventionally NULL encrypted
// (etype 0), so the session keys sit in the clear and the file is
// portable between machines.
//
// The package handles both raw DER and base64-encoded files, and
// converts between the KRB-CRED representation and the MIT credential
// cache format in pkg/ccache. A ccache credential carries a few fields
// KRB-CRED has no slot for (authorization data, the is_skey marker, the
// second ticket); those do not survive a round trip through .kirbi.
package kirbi
