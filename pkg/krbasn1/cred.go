package krbasn1

import (
	"fmt"
	"time"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/asn1tools"
	"github.com/jcmturner/gokrb5/v8/iana/asnAppTag"
)

// KRBCred is a KRB-CRED message (RFC 4120 section 5.8.1), the payload
// of a .kirbi file. EncPart conventionally uses NULL encryption
// (etype 0): the session keys travel in the clear, which is exactly
// what makes .kirbi files portable between machines.
type KRBCred struct {
	PVNO    int
	MsgType int
	Tickets []Ticket
	EncPart EncryptedData
}

// krbCredASN is the wire form. Tickets are kept raw because each one
// carries its own APPLICATION 1 tag, which struct marshalling of a
// plain slice would not reproduce.
type krbCredASN struct {
	PVNO       int           `asn1:"explicit,tag:0"`
	MsgType    int           `asn1:"explicit,tag:1"`
	TicketsRaw asn1.RawValue `asn1:"explicit,tag:2"`
	EncPart    EncryptedData `asn1:"explicit,tag:3"`
}

// EncKRBCredPart is the (conventionally plaintext) credential info of
// a KRB-CRED: one KRBCredInfo per ticket, in ticket order.
type EncKRBCredPart struct {
	TicketInfo []KRBCredInfo `asn1:"explicit,tag:0"`
	Nonce      int32         `asn1:"optional,explicit,tag:1"`
	Timestamp  time.Time     `asn1:"generalized,optional,explicit,tag:2"`
	Usec       int32         `asn1:"optional,explicit,tag:3"`
	SAddress   HostAddress   `asn1:"optional,explicit,tag:4"`
	RAddress   HostAddress   `asn1:"optional,explicit,tag:5"`
}

// KRBCredInfo is the per-ticket credential info: the session key plus
// everything a client needs to use the ticket without decrypting it.
type KRBCredInfo struct {
	Key       EncryptionKey  `asn1:"explicit,tag:0"`
	PRealm    string         `asn1:"generalstring,optional,explicit,tag:1"`
	PName     PrincipalName  `asn1:"optional,explicit,tag:2"`
	Flags     asn1.BitString `asn1:"optional,explicit,tag:3"`
	AuthTime  time.Time      `asn1:"generalized,optional,explicit,tag:4"`
	StartTime time.Time      `asn1:"generalized,optional,explicit,tag:5"`
	EndTime   time.Time      `asn1:"generalized,optional,explicit,tag:6"`
	RenewTill time.Time      `asn1:"generalized,optional,explicit,tag:7"`
	SRealm    string         `asn1:"generalstring,optional,explicit,tag:8"`
	SName     PrincipalName  `asn1:"optional,explicit,tag:9"`
	CAddr     HostAddresses  `asn1:"optional,explicit,tag:10"`
}

// Marshal encodes the message to APPLICATION 22 wrapped DER.
func (k *KRBCred) Marshal() ([]byte, error) {
	var ticketBytes []byte
	for i := range k.Tickets {
		b, err := k.Tickets[i].Marshal()
		if err != nil {
			return nil, err
		}
		ticketBytes = append(ticketBytes, b...)
	}
	// SEQUENCE OF Ticket, built by hand for the same reason the
	// tickets are raw on unmarshal.
	seq := append([]byte{0x30}, asn1tools.MarshalLengthBytes(len(ticketBytes))...)
	seq = append(seq, ticketBytes...)

	b, err := asn1.Marshal(krbCredASN{
		PVNO:       k.PVNO,
		MsgType:    k.MsgType,
		TicketsRaw: asn1.RawValue{FullBytes: seq},
		EncPart:    k.EncPart,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal KRB-CRED: %w", err)
	}
	return asn1tools.AddASNAppTag(b, asnAppTag.KRBCred), nil
}

// UnmarshalKRBCred parses an APPLICATION 22 wrapped KRB-CRED message.
func UnmarshalKRBCred(data []byte) (*KRBCred, error) {
	var ka krbCredASN
	_, err := asn1.UnmarshalWithParams(data, &ka,
		fmt.Sprintf("application,explicit,tag:%d", asnAppTag.KRBCred))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KRB-CRED: %w", err)
	}
	k := &KRBCred{
		PVNO:    ka.PVNO,
		MsgType: ka.MsgType,
		EncPart: ka.EncPart,
	}
	// TicketsRaw.Bytes is the concatenation of APPLICATION 1 wrapped
	// tickets inside the SEQUENCE OF.
	rest := ka.TicketsRaw.Bytes
	for len(rest) > 0 {
		t, r, err := UnmarshalTicket(rest)
		if err != nil {
			return nil, err
		}
		k.Tickets = append(k.Tickets, *t)
		rest = r
	}
	return k, nil
}

// Marshal encodes the credential part to APPLICATION 29 wrapped DER.
func (p *EncKRBCredPart) Marshal() ([]byte, error) {
	b, err := asn1.Marshal(*p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal EncKRBCredPart: %w", err)
	}
	return asn1tools.AddASNAppTag(b, asnAppTag.EncKrbCredPart), nil
}

// UnmarshalEncKRBCredPart parses an EncKRBCredPart, with or without
// its APPLICATION 29 wrapper (some producers omit it).
func UnmarshalEncKRBCredPart(data []byte) (*EncKRBCredPart, error) {
	var p EncKRBCredPart
	_, err := asn1.UnmarshalWithParams(data, &p,
		fmt.Sprintf("application,explicit,tag:%d", asnAppTag.EncKrbCredPart))
	if err == nil {
		return &p, nil
	}
	if _, err := asn1.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse EncKRBCredPart: %w", err)
	}
	return &p, nil
}

// NewKRBCred assembles a KRB-CRED around the given tickets and an
// already-marshalled credential part, NULL encrypted.
func NewKRBCred(tickets []Ticket, credPartDER []byte) *KRBCred {
	return &KRBCred{
		PVNO:    PVNO,
		MsgType: MsgTypeKRBCred,
		Tickets: tickets,
		EncPart: EncryptedData{
			EType:  0,
			Cipher: credPartDER,
		},
	}
}
