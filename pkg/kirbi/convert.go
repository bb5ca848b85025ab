package kirbi

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/jcmturner/gofork/encoding/asn1"

	"github.com/krbcred/krbcred/pkg/ccache"
	"github.com/krbcred/krbcred/pkg/krbasn1"
)

// FromCCache converts a credential cache into a KRB-CRED. Every cached
// credential becomes one ticket with matching credential info, in cache
// order. The credential's Ticket blob must be a DER-encoded Kerberos
// ticket, which is what KDCs put there.
func FromCCache(cc *ccache.CCache) (*Kirbi, error) {
	creds, err := cc.Credentials()
	if err != nil {
		return nil, err
	}
	if len(creds) == 0 {
		return nil, ErrNoTickets
	}

	tickets := make([]krbasn1.Ticket, 0, len(creds))
	infos := make([]krbasn1.KRBCredInfo, 0, len(creds))
	for i := range creds {
		c := &creds[i]
		t, _, err := krbasn1.UnmarshalTicket(c.Ticket)
		if err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}
		tickets = append(tickets, *t)
		infos = append(infos, credInfo(c))
	}

	part := &krbasn1.EncKRBCredPart{TicketInfo: infos}
	partDER, err := part.Marshal()
	if err != nil {
		return nil, err
	}

	return &Kirbi{
		Cred:     krbasn1.NewKRBCred(tickets, partDER),
		CredInfo: part,
	}, nil
}

// ToCCache converts the KRB-CRED into a version-4 credential cache. The
// first ticket's client becomes the default principal. Fields the
// KRB-CRED format has no slot for come back zero: authorization data,
// is_skey, and the second ticket.
func (k *Kirbi) ToCCache() (*ccache.CCache, error) {
	if k.Cred == nil || len(k.Cred.Tickets) == 0 {
		return nil, ErrNoTickets
	}

	creds := make([]ccache.Credential, 0, len(k.Cred.Tickets))
	for i := range k.Cred.Tickets {
		t := &k.Cred.Tickets[i]
		der, err := t.Marshal()
		if err != nil {
			return nil, err
		}
		c := ccache.Credential{
			Server: principalFromASN(t.Realm, t.SName),
			Ticket: der,
		}
		if k.CredInfo != nil && i < len(k.CredInfo.TicketInfo) {
			applyCredInfo(&c, &k.CredInfo.TicketInfo[i])
		}
		creds = append(creds, c)
	}

	cc := ccache.New(creds[0].Client)
	if err := cc.SetCredentials(creds); err != nil {
		return nil, err
	}
	return cc, nil
}

// credInfo maps one cache credential to its KRB-CRED info entry.
func credInfo(c *ccache.Credential) krbasn1.KRBCredInfo {
	info := krbasn1.KRBCredInfo{
		Key: krbasn1.EncryptionKey{
			KeyType:  int32(c.Key.EncType),
			KeyValue: c.Key.Data,
		},
		PRealm:    c.Client.Realm,
		PName:     principalToASN(c.Client),
		Flags:     flagsToBitString(c.TicketFlags),
		AuthTime:  unixOrZero(c.AuthTime),
		StartTime: unixOrZero(c.StartTime),
		EndTime:   unixOrZero(c.EndTime),
		RenewTill: unixOrZero(c.RenewTill),
		SRealm:    c.Server.Realm,
		SName:     principalToASN(c.Server),
	}
	for _, a := range c.Addresses {
		info.CAddr = append(info.CAddr, krbasn1.HostAddress{
			AddrType: int32(a.AddrType),
			Address:  a.Data,
		})
	}
	return info
}

// applyCredInfo fills the cache credential from a KRB-CRED info entry.
func applyCredInfo(c *ccache.Credential, info *krbasn1.KRBCredInfo) {
	c.Client = ccache.Principal{
		NameType:   uint32(info.PName.NameType),
		Realm:      info.PRealm,
		Components: info.PName.NameString,
	}
	if info.SRealm != "" || len(info.SName.NameString) > 0 {
		c.Server = principalFromASN(info.SRealm, info.SName)
	}
	c.Key = ccache.KeyBlock{
		EncType: uint16(info.Key.KeyType),
		Data:    info.Key.KeyValue,
	}
	c.AuthTime = zeroOrUnix(info.AuthTime)
	c.StartTime = zeroOrUnix(info.StartTime)
	c.EndTime = zeroOrUnix(info.EndTime)
	c.RenewTill = zeroOrUnix(info.RenewTill)
	c.TicketFlags = bitStringToFlags(info.Flags)
	for _, a := range info.CAddr {
		c.Addresses = append(c.Addresses, ccache.Address{
			AddrType: uint16(a.AddrType),
			Data:     a.Address,
		})
	}
}

func principalToASN(p ccache.Principal) krbasn1.PrincipalName {
	return krbasn1.PrincipalName{
		NameType:   int32(p.NameType),
		NameString: p.Components,
	}
}

func principalFromASN(realm string, name krbasn1.PrincipalName) ccache.Principal {
	return ccache.Principal{
		NameType:   uint32(name.NameType),
		Realm:      realm,
		Components: name.NameString,
	}
}

// flagsToBitString renders the ticket-flags word as the 32-bit
// KerberosFlags BIT STRING, bit 0 first.
func flagsToBitString(flags uint32) asn1.BitString {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, flags)
	return asn1.BitString{Bytes: b, BitLength: 32}
}

func bitStringToFlags(bs asn1.BitString) uint32 {
	b := make([]byte, 4)
	copy(b, bs.Bytes)
	return binary.BigEndian.Uint32(b)
}

// unixOrZero leaves the zero timestamp as the zero time so the
// corresponding optional field is omitted on the wire.
func unixOrZero(t uint32) time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t), 0).UTC()
}

func zeroOrUnix(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	return uint32(t.Unix())
}
