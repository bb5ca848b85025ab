package ccache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// The deltatime tag is the only version-4 header tag this package
// models: tag (2) + length (2) + two 32-bit clock offsets.
const (
	tagDeltatime     = 1
	deltatimeTagSize = 12
)

// Wire sizes used to sanity-check declared element counts before
// allocating: a string needs at least its length prefix, an address or
// auth datum at least a type field plus a length prefix.
const (
	minStringSize = 4
	minTaggedSize = 6
)

// decoder is a bounds-checked cursor over a cache image. max caps every
// length-prefixed field and element count before allocation; length
// fields are untrusted input.
type decoder struct {
	buf []byte
	off int
	max uint32
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) failAt(off int, field string, err error) error {
	return &DecodeError{Field: field, Offset: off, Err: err}
}

func (d *decoder) readUint8(field string) (uint8, error) {
	if d.remaining() < 1 {
		return 0, d.failAt(d.off, field, ErrUnexpectedEnd)
	}
	v := d.buf[d.off]
	d.off++
	return v, nil
}

func (d *decoder) readUint16(field string) (uint16, error) {
	if d.remaining() < 2 {
		return 0, d.failAt(d.off, field, ErrUnexpectedEnd)
	}
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v, nil
}

func (d *decoder) readUint32(field string) (uint32, error) {
	if d.remaining() < 4 {
		return 0, d.failAt(d.off, field, ErrUnexpectedEnd)
	}
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) readInt32(field string) (int32, error) {
	v, err := d.readUint32(field)
	return int32(v), err
}

// readBlob reads a u32 length prefix followed by that many bytes. The
// result is an independent copy, never an alias into the input buffer.
func (d *decoder) readBlob(field string) ([]byte, error) {
	start := d.off
	n, err := d.readUint32(field)
	if err != nil {
		return nil, err
	}
	if n > d.max {
		return nil, d.failAt(start, field,
			fmt.Errorf("%w: %d bytes, limit %d", ErrLengthTooLarge, n, d.max))
	}
	if int(n) > d.remaining() {
		return nil, d.failAt(start, field, ErrUnexpectedEnd)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:])
	d.off += int(n)
	return out, nil
}

// readString is readBlob plus UTF-8 validation. There is no terminator
// on the wire.
func (d *decoder) readString(field string) (string, error) {
	start := d.off
	b, err := d.readBlob(field)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", d.failAt(start, field, ErrInvalidUTF8)
	}
	return string(b), nil
}

// readCount reads a u32 element count and rejects counts that exceed
// the limit or that could not possibly fit in the remaining input given
// a minimum encoded element size.
func (d *decoder) readCount(field string, minElemSize int) (uint32, error) {
	start := d.off
	n, err := d.readUint32(field)
	if err != nil {
		return 0, err
	}
	if n > d.max {
		return 0, d.failAt(start, field,
			fmt.Errorf("%w: %d elements, limit %d", ErrLengthTooLarge, n, d.max))
	}
	if int64(n)*int64(minElemSize) > int64(d.remaining()) {
		return 0, d.failAt(start, field, ErrUnexpectedEnd)
	}
	return n, nil
}

func (d *decoder) readPrincipal(prefix string, p *Principal) error {
	var err error
	if p.NameType, err = d.readUint32(prefix + ".name_type"); err != nil {
		return err
	}
	count, err := d.readCount(prefix+".component_count", minStringSize)
	if err != nil {
		return err
	}
	if p.Realm, err = d.readString(prefix + ".realm"); err != nil {
		return err
	}
	if count > 0 {
		p.Components = make([]string, 0, count)
	}
	for i := uint32(0); i < count; i++ {
		c, err := d.readString(fmt.Sprintf("%s.component[%d]", prefix, i))
		if err != nil {
			return err
		}
		p.Components = append(p.Components, c)
	}
	// Unreachable given the loop above, but the invariant is cheap to
	// state and a decoded principal must never disagree with its count.
	if uint32(len(p.Components)) != count {
		return d.failAt(d.off, prefix+".components", ErrArrayCountMismatch)
	}
	return nil
}

func (d *decoder) readKeyBlock(prefix string, k *KeyBlock) error {
	var err error
	if k.EncType, err = d.readUint16(prefix + ".enctype"); err != nil {
		return err
	}
	k.Data, err = d.readBlob(prefix + ".data")
	return err
}

func (d *decoder) readAddresses(prefix string) ([]Address, error) {
	count, err := d.readCount(prefix+".count", minTaggedSize)
	if err != nil {
		return nil, err
	}
	var addrs []Address
	if count > 0 {
		addrs = make([]Address, 0, count)
	}
	for i := uint32(0); i < count; i++ {
		var a Address
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if a.AddrType, err = d.readUint16(field + ".addrtype"); err != nil {
			return nil, err
		}
		if a.Data, err = d.readBlob(field + ".data"); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	if uint32(len(addrs)) != count {
		return nil, d.failAt(d.off, prefix, ErrArrayCountMismatch)
	}
	return addrs, nil
}

func (d *decoder) readAuthData(prefix string) ([]AuthDatum, error) {
	count, err := d.readCount(prefix+".count", minTaggedSize)
	if err != nil {
		return nil, err
	}
	var data []AuthDatum
	if count > 0 {
		data = make([]AuthDatum, 0, count)
	}
	for i := uint32(0); i < count; i++ {
		var ad AuthDatum
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if ad.ADType, err = d.readUint16(field + ".ad_type"); err != nil {
			return nil, err
		}
		if ad.Data, err = d.readBlob(field + ".data"); err != nil {
			return nil, err
		}
		data = append(data, ad)
	}
	if uint32(len(data)) != count {
		return nil, d.failAt(d.off, prefix, ErrArrayCountMismatch)
	}
	return data, nil
}

// readCredential decodes one full ticket record. The field order is the
// wire contract and must match writeCredential exactly.
func (d *decoder) readCredential(prefix string, c *Credential) error {
	var err error
	if err = d.readPrincipal(prefix+".client", &c.Client); err != nil {
		return err
	}
	if err = d.readPrincipal(prefix+".server", &c.Server); err != nil {
		return err
	}
	if err = d.readKeyBlock(prefix+".keyblock", &c.Key); err != nil {
		return err
	}
	if c.AuthTime, err = d.readUint32(prefix + ".authtime"); err != nil {
		return err
	}
	if c.StartTime, err = d.readUint32(prefix + ".starttime"); err != nil {
		return err
	}
	if c.EndTime, err = d.readUint32(prefix + ".endtime"); err != nil {
		return err
	}
	if c.RenewTill, err = d.readUint32(prefix + ".renew_till"); err != nil {
		return err
	}
	if c.IsSKey, err = d.readUint8(prefix + ".is_skey"); err != nil {
		return err
	}
	if c.TicketFlags, err = d.readUint32(prefix + ".ticket_flags"); err != nil {
		return err
	}
	if c.Addresses, err = d.readAddresses(prefix + ".addresses"); err != nil {
		return err
	}
	if c.AuthData, err = d.readAuthData(prefix + ".authdata"); err != nil {
		return err
	}
	if c.Ticket, err = d.readBlob(prefix + ".ticket"); err != nil {
		return err
	}
	c.SecondTicket, err = d.readBlob(prefix + ".second_ticket")
	return err
}

// readV4Header decodes the tagged header of a version-4 cache: a u16
// length covering the tag area, the mandatory deltatime tag, then any
// remaining tag bytes kept opaque.
func (d *decoder) readV4Header(h *V4Header) error {
	start := d.off
	hlen, err := d.readUint16("header.length")
	if err != nil {
		return err
	}
	if int(hlen) > d.remaining() {
		return d.failAt(start, "header.length", ErrUnexpectedEnd)
	}
	if hlen < deltatimeTagSize {
		return d.failAt(start, "header.deltatime", ErrUnexpectedEnd)
	}
	end := d.off + int(hlen)

	tagStart := d.off
	tag, err := d.readUint16("header.tag")
	if err != nil {
		return err
	}
	if tag != tagDeltatime {
		return d.failAt(tagStart, "header.tag",
			fmt.Errorf("%w: 0x%04x", ErrInvalidHeaderTag, tag))
	}
	taglen, err := d.readUint16("header.taglen")
	if err != nil {
		return err
	}
	if taglen != deltatimeTagSize-4 {
		return d.failAt(tagStart, "header.taglen",
			fmt.Errorf("%w: deltatime length %d", ErrInvalidHeaderTag, taglen))
	}
	if h.KDCSecOffset, err = d.readInt32("header.kdc_sec_offset"); err != nil {
		return err
	}
	if h.KDCUsecOffset, err = d.readInt32("header.kdc_usec_offset"); err != nil {
		return err
	}

	if d.off < end {
		h.FurtherTags = make([]byte, end-d.off)
		copy(h.FurtherTags, d.buf[d.off:])
		d.off = end
	}
	return nil
}

func decodeCache(data []byte, max uint32) (*CCache, error) {
	d := &decoder{buf: data, max: max}
	cc := &CCache{}

	pvno, err := d.readUint8("pvno")
	if err != nil {
		return nil, err
	}
	if pvno != PVNO {
		return nil, d.failAt(0, "pvno",
			fmt.Errorf("%w: 0x%02x", ErrInvalidPreamble, pvno))
	}
	if cc.Version, err = d.readUint8("version"); err != nil {
		return nil, err
	}
	switch cc.Version {
	case Version3:
		// No header.
	case Version4:
		if err := d.readV4Header(&cc.Header); err != nil {
			return nil, err
		}
	default:
		return nil, d.failAt(1, "version",
			fmt.Errorf("%w: %d", ErrUnsupportedVersion, cc.Version))
	}

	if err := d.readPrincipal("default_principal", &cc.DefaultPrincipal); err != nil {
		return nil, err
	}
	if err := d.readCredential("credential", &cc.Credential); err != nil {
		return nil, err
	}

	// Whatever follows the primary credential is more credential
	// records; keep them verbatim for the caller to split.
	if d.remaining() > 0 {
		cc.FurtherCreds = make([]byte, d.remaining())
		copy(cc.FurtherCreds, d.buf[d.off:])
	}
	return cc, nil
}

// decodeCredentials consumes a headerless sequence of credential
// records until the input is exhausted exactly. A record that starts
// but does not finish is an error, never a silently shorter result.
func decodeCredentials(data []byte, max uint32) ([]Credential, error) {
	d := &decoder{buf: data, max: max}
	var creds []Credential
	for d.remaining() > 0 {
		start := d.off
		var c Credential
		err := d.readCredential(fmt.Sprintf("credential[%d]", len(creds)), &c)
		if err != nil {
			if errors.Is(err, ErrUnexpectedEnd) {
				return nil, fmt.Errorf("%w: %w", ErrTrailingData, err)
			}
			return nil, err
		}
		// A successful record always advances the cursor; anything
		// else would loop forever.
		if d.off == start {
			return nil, d.failAt(start, "credential sequence", ErrUnexpectedEnd)
		}
		creds = append(creds, c)
	}
	return creds, nil
}
