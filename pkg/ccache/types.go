package ccache

import "strings"

// Version constants. A cache file starts with the Kerberos protocol
// number (always 5) followed by one of these format versions. Versions 1
// and 2 used native byte order and are not supported.
const (
	// PVNO is the Kerberos protocol version number carried in the
	// first byte of every cache file.
	PVNO = 5

	// Version3 is format version 3: big-endian, no header.
	Version3 = 3

	// Version4 is format version 4: big-endian, with a tagged header.
	// This is what current MIT Kerberos writes.
	Version4 = 4
)

// Ticket flag masks as stored in a credential's TicketFlags word.
const (
	FlagForwardable      uint32 = 0x40000000
	FlagForwarded        uint32 = 0x20000000
	FlagProxiable        uint32 = 0x10000000
	FlagProxy            uint32 = 0x08000000
	FlagMayPostdate      uint32 = 0x04000000
	FlagPostdated        uint32 = 0x02000000
	FlagInvalid          uint32 = 0x01000000
	FlagRenewable        uint32 = 0x00800000
	FlagInitial          uint32 = 0x00400000
	FlagPreAuthent       uint32 = 0x00200000
	FlagHWAuthent        uint32 = 0x00100000
	FlagTransitedChecked uint32 = 0x00080000
	FlagOKAsDelegate     uint32 = 0x00040000
	FlagAnonymous        uint32 = 0x00020000
)

// CCache is a decoded credential cache.
//
// The cache holds exactly one parsed credential (the primary one); any
// additional records are kept verbatim in FurtherCreds. They follow the
// same self-delimiting credential layout, so UnmarshalCredentials (or
// the Credentials method) can split them when needed. Keeping the tail
// opaque means a cache with records this package never inspected can be
// re-encoded byte for byte.
type CCache struct {
	Version          uint8
	Header           V4Header // meaningful only when Version == Version4
	DefaultPrincipal Principal
	Credential       Credential
	FurtherCreds     []byte
}

// V4Header is the tagged header of a version-4 cache.
//
// The only tag this package models is the deltatime tag carrying the
// KDC clock offsets; MIT writes it with both offsets zero and so does
// New. Any other tags a file carries are preserved as opaque bytes in
// FurtherTags and written back unchanged.
type V4Header struct {
	KDCSecOffset  int32
	KDCUsecOffset int32
	FurtherTags   []byte
}

// Principal is a Kerberos identity: a realm plus an ordered list of name
// components. The component count on the wire is always derived from
// len(Components) when encoding.
type Principal struct {
	NameType   uint32
	Realm      string
	Components []string
}

// String renders the principal in the usual comp1/comp2@REALM form.
func (p Principal) String() string {
	if p.Realm == "" && len(p.Components) == 0 {
		return ""
	}
	return strings.Join(p.Components, "/") + "@" + p.Realm
}

// KeyBlock is an opaque encryption key tagged with its enctype. The key
// bytes are carried as-is and never interpreted.
type KeyBlock struct {
	EncType uint16
	Data    []byte
}

// Address is a host address restriction attached to a credential.
type Address struct {
	AddrType uint16
	Data     []byte
}

// AuthDatum is one opaque authorization-data element.
type AuthDatum struct {
	ADType uint16
	Data   []byte
}

// Credential is a single ticket record: who it is for, which service it
// grants, the session key, validity times, and the encrypted ticket
// blobs themselves.
//
// IsSKey is kept as the raw wire byte rather than a bool so re-encoding
// a parsed cache reproduces it exactly; any nonzero value means the
// ticket is encrypted in a session key.
type Credential struct {
	Client       Principal
	Server       Principal
	Key          KeyBlock
	AuthTime     uint32
	StartTime    uint32
	EndTime      uint32
	RenewTill    uint32
	IsSKey       uint8
	TicketFlags  uint32
	Addresses    []Address
	AuthData     []AuthDatum
	Ticket       []byte
	SecondTicket []byte
}

// IsTGT reports whether the credential's server principal names the
// ticket-granting service.
func (c *Credential) IsTGT() bool {
	return len(c.Server.Components) > 0 &&
		strings.EqualFold(c.Server.Components[0], "krbtgt")
}

// New creates an empty version-4 cache for the given default principal,
// with a zeroed deltatime header.
func New(principal Principal) *CCache {
	return &CCache{
		Version:          Version4,
		DefaultPrincipal: principal,
	}
}
