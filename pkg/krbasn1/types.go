package krbasn1

// Kerberos protocol constants used by KRB-CRED messages.
const (
	// PVNO is the Kerberos protocol version number.
	PVNO = 5

	// MsgTypeKRBCred is the message type of a KRB-CRED (RFC 4120
	// section 5.8.1), the payload of a .kirbi file.
	MsgTypeKRBCred = 22
)

// PrincipalName is a Kerberos principal name: a name type and the
// ordered name components. The realm always travels in a separate
// field of the enclosing structure.
type PrincipalName struct {
	NameType   int32    `asn1:"explicit,tag:0"`
	NameString []string `asn1:"generalstring,explicit,tag:1"`
}

// EncryptionKey is a session or long-term key with its enctype.
type EncryptionKey struct {
	KeyType  int32  `asn1:"explicit,tag:0"`
	KeyValue []byte `asn1:"explicit,tag:1"`
}

// EncryptedData carries an encrypted payload. EType 0 means NULL
// encryption, in which case Cipher is the plaintext DER.
type EncryptedData struct {
	EType  int32  `asn1:"explicit,tag:0"`
	KVNO   int    `asn1:"optional,explicit,tag:1"`
	Cipher []byte `asn1:"explicit,tag:2"`
}

// HostAddress is a single host address.
type HostAddress struct {
	AddrType int32  `asn1:"explicit,tag:0"`
	Address  []byte `asn1:"explicit,tag:1"`
}

// HostAddresses is a sequence of host addresses.
type HostAddresses []HostAddress
