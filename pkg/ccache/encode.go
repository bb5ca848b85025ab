package ccache

import "encoding/binary"

// encoder builds a cache image by appending big-endian fields to a
// growable buffer. Encoding cannot fail: counts are derived from the
// slices being written, never supplied separately.
type encoder struct {
	buf []byte
}

func (e *encoder) writeUint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *encoder) writeUint16(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *encoder) writeUint32(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

func (e *encoder) writeInt32(v int32) {
	e.writeUint32(uint32(v))
}

func (e *encoder) writeBlob(b []byte) {
	e.writeUint32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) writeString(s string) {
	e.writeUint32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *encoder) writePrincipal(p *Principal) {
	e.writeUint32(p.NameType)
	e.writeUint32(uint32(len(p.Components)))
	e.writeString(p.Realm)
	for _, c := range p.Components {
		e.writeString(c)
	}
}

func (e *encoder) writeKeyBlock(k *KeyBlock) {
	e.writeUint16(k.EncType)
	e.writeBlob(k.Data)
}

// writeCredential mirrors readCredential field for field; the order is
// the wire contract.
func (e *encoder) writeCredential(c *Credential) {
	e.writePrincipal(&c.Client)
	e.writePrincipal(&c.Server)
	e.writeKeyBlock(&c.Key)
	e.writeUint32(c.AuthTime)
	e.writeUint32(c.StartTime)
	e.writeUint32(c.EndTime)
	e.writeUint32(c.RenewTill)
	e.writeUint8(c.IsSKey)
	e.writeUint32(c.TicketFlags)
	e.writeUint32(uint32(len(c.Addresses)))
	for i := range c.Addresses {
		e.writeUint16(c.Addresses[i].AddrType)
		e.writeBlob(c.Addresses[i].Data)
	}
	e.writeUint32(uint32(len(c.AuthData)))
	for i := range c.AuthData {
		e.writeUint16(c.AuthData[i].ADType)
		e.writeBlob(c.AuthData[i].Data)
	}
	e.writeBlob(c.Ticket)
	e.writeBlob(c.SecondTicket)
}

func (e *encoder) writeV4Header(h *V4Header) {
	e.writeUint16(uint16(deltatimeTagSize + len(h.FurtherTags)))
	e.writeUint16(tagDeltatime)
	e.writeUint16(deltatimeTagSize - 4)
	e.writeInt32(h.KDCSecOffset)
	e.writeInt32(h.KDCUsecOffset)
	e.buf = append(e.buf, h.FurtherTags...)
}

// Marshal encodes the cache to its wire form. Version must be Version3
// or Version4 (New produces Version4); the v4 header is written only
// for version 4. FurtherCreds bytes are appended unmodified.
func (cc *CCache) Marshal() []byte {
	e := &encoder{}
	e.writeUint8(PVNO)
	e.writeUint8(cc.Version)
	if cc.Version == Version4 {
		e.writeV4Header(&cc.Header)
	}
	e.writePrincipal(&cc.DefaultPrincipal)
	e.writeCredential(&cc.Credential)
	e.buf = append(e.buf, cc.FurtherCreds...)
	return e.buf
}

// MarshalCredentials encodes a headerless credential sequence: each
// record's encoding concatenated in order, with no separators or count
// prefix. Record boundaries stay unambiguous because every credential
// is self-delimiting through its internal length prefixes.
func MarshalCredentials(creds []Credential) []byte {
	e := &encoder{}
	for i := range creds {
		e.writeCredential(&creds[i])
	}
	return e.buf
}
