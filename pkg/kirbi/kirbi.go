package kirbi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/krbcred/krbcred/pkg/krbasn1"
)

// ErrNoTickets is returned when a KRB-CRED carries no tickets.
var ErrNoTickets = errors.New("kirbi: no tickets in KRB-CRED")

// Kirbi wraps a KRB-CRED message together with its parsed credential
// info, when the enc-part was NULL encrypted and could be read.
type Kirbi struct {
	Cred     *krbasn1.KRBCred
	CredInfo *krbasn1.EncKRBCredPart
}

// Load reads a .kirbi file from disk. Both raw DER and base64-encoded
// files are accepted.
func Load(path string) (*Kirbi, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read kirbi file: %w", err)
	}
	return Parse(data)
}

// Parse parses .kirbi bytes, autodetecting base64 encoding.
func Parse(data []byte) (*Kirbi, error) {
	if isBase64(data) {
		decoded, err := base64.StdEncoding.DecodeString(string(data))
		if err != nil {
			return nil, fmt.Errorf("base64 decode failed: %w", err)
		}
		data = decoded
	}

	cred, err := krbasn1.UnmarshalKRBCred(data)
	if err != nil {
		return nil, err
	}

	k := &Kirbi{Cred: cred}

	// With NULL encryption (etype 0) the cipher is the DER of the
	// EncKRBCredPart itself. Anything else stays opaque.
	if cred.EncPart.EType == 0 && len(cred.EncPart.Cipher) > 0 {
		if info, err := krbasn1.UnmarshalEncKRBCredPart(cred.EncPart.Cipher); err == nil {
			k.CredInfo = info
		}
	}

	return k, nil
}

// Save writes the .kirbi to disk, owner-readable only.
func (k *Kirbi) Save(path string) error {
	data, err := k.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write kirbi file: %w", err)
	}
	return nil
}

// Marshal encodes the .kirbi to DER bytes.
func (k *Kirbi) Marshal() ([]byte, error) {
	return k.Cred.Marshal()
}

// ToBase64 encodes the .kirbi to a base64 string, for command-line
// passing and copy-paste between systems.
func (k *Kirbi) ToBase64() (string, error) {
	data, err := k.Marshal()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// FromBase64 decodes a base64-encoded .kirbi.
func FromBase64(b64 string) (*Kirbi, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("base64 decode failed: %w", err)
	}
	return Parse(data)
}

// Ticket returns the first ticket of the KRB-CRED. Most .kirbi files
// carry exactly one.
func (k *Kirbi) Ticket() *krbasn1.Ticket {
	if k.Cred == nil || len(k.Cred.Tickets) == 0 {
		return nil
	}
	return &k.Cred.Tickets[0]
}

// SessionKey returns the first ticket's session key, if the credential
// info was readable.
func (k *Kirbi) SessionKey() *krbasn1.EncryptionKey {
	if k.CredInfo == nil || len(k.CredInfo.TicketInfo) == 0 {
		return nil
	}
	return &k.CredInfo.TicketInfo[0].Key
}

// isBase64 reports whether data looks base64 encoded. The DER check
// comes first: 0x76 (APPLICATION 22) is also ASCII 'v', so an
// alphanumeric test alone would misread every raw KRB-CRED.
func isBase64(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	first := data[0]
	if first == 0x30 || first == 0x76 {
		return false
	}
	return first >= 'A' && first <= 'Z' ||
		first >= 'a' && first <= 'z' ||
		first >= '0' && first <= '9'
}
