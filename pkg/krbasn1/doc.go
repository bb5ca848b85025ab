// Package krbasn1 holds the RFC 4120 ASN.1 structures needed to read
// and write KRB-CRED (.kirbi) messages.
//
// # Overview
//
// Kerberos DER uses GeneralString (tag 27), which the standard library
// asn1 package can parse but not produce. Marshalling therefore goes
// through the jcmturner/gofork fork of encoding/asn1, the same one the
// gokrb5 stack uses, with application tags applied via gokrb5's
// asn1tools helpers.
//
// Only the KRB-CRED subset lives here: Ticket, PrincipalName, key and
// address types, KRBCred and its (conventionally NULL-encrypted)
// EncKRBCredPart. Tickets keep their original DER bytes when parsed,
// so re-encoding a message reproduces the KDC's encoding byte for
// byte.
package krbasn1
