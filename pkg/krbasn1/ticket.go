package krbasn1

import (
	"fmt"

	"github.com/jcmturner/gofork/encoding/asn1"
	"github.com/jcmturner/gokrb5/v8/asn1tools"
	"github.com/jcmturner/gokrb5/v8/iana/asnAppTag"
)

// Ticket is a Kerberos ticket: the service it names and its encrypted
// part. The encrypted part stays opaque; only the KDC and the service
// hold the keys for it.
//
// When a ticket was parsed from DER, Raw keeps the original bytes and
// Marshal returns them verbatim. KDCs are not obliged to produce
// canonical DER, so re-encoding from the struct could change bytes and
// break checksums downstream.
type Ticket struct {
	TktVno  int
	Realm   string
	SName   PrincipalName
	EncPart EncryptedData

	Raw []byte
}

// ticketASN is the wire form, APPLICATION 1 wrapped.
type ticketASN struct {
	TktVno  int           `asn1:"explicit,tag:0"`
	Realm   string        `asn1:"generalstring,explicit,tag:1"`
	SName   PrincipalName `asn1:"explicit,tag:2"`
	EncPart EncryptedData `asn1:"explicit,tag:3"`
}

// Marshal encodes the ticket to APPLICATION 1 wrapped DER, or returns
// the original bytes if the ticket was parsed from DER.
func (t *Ticket) Marshal() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	b, err := asn1.Marshal(ticketASN{
		TktVno:  t.TktVno,
		Realm:   t.Realm,
		SName:   t.SName,
		EncPart: t.EncPart,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket: %w", err)
	}
	return asn1tools.AddASNAppTag(b, asnAppTag.Ticket), nil
}

// UnmarshalTicket parses one APPLICATION 1 wrapped ticket from the
// front of data, returning the ticket and any remaining bytes.
func UnmarshalTicket(data []byte) (*Ticket, []byte, error) {
	var ta ticketASN
	rest, err := asn1.UnmarshalWithParams(data, &ta,
		fmt.Sprintf("application,explicit,tag:%d", asnAppTag.Ticket))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse ticket: %w", err)
	}
	t := &Ticket{
		TktVno:  ta.TktVno,
		Realm:   ta.Realm,
		SName:   ta.SName,
		EncPart: ta.EncPart,
		Raw:     append([]byte(nil), data[:len(data)-len(rest)]...),
	}
	return t, rest, nil
}

// NewTicket builds a ticket from parts. Marshal will produce fresh DER
// since there are no original bytes to preserve.
func NewTicket(realm string, sname PrincipalName, encPart EncryptedData) *Ticket {
	return &Ticket{
		TktVno:  PVNO,
		Realm:   realm,
		SName:   sname,
		EncPart: encPart,
	}
}
