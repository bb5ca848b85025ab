package ccache

import (
	"fmt"

	"github.com/jcmturner/gokrb5/v8/messages"
	"github.com/jcmturner/gokrb5/v8/types"
)

// Krb5Name converts the principal to a gokrb5 PrincipalName. The realm
// travels separately in gokrb5's types, so it is not part of the result.
func (p Principal) Krb5Name() types.PrincipalName {
	return types.PrincipalName{
		NameType:   int32(p.NameType),
		NameString: append([]string(nil), p.Components...),
	}
}

// PrincipalFromKrb5 builds a Principal from a gokrb5 name and realm.
func PrincipalFromKrb5(name types.PrincipalName, realm string) Principal {
	return Principal{
		NameType:   uint32(name.NameType),
		Realm:      realm,
		Components: append([]string(nil), name.NameString...),
	}
}

// Krb5Ticket parses the credential's raw ticket blob as an ASN.1
// Kerberos ticket. The blob stays opaque to the codec itself; this is
// for callers that want to look inside (the encrypted part remains
// encrypted, of course).
func (c *Credential) Krb5Ticket() (messages.Ticket, error) {
	var t messages.Ticket
	if err := t.Unmarshal(c.Ticket); err != nil {
		return t, fmt.Errorf("failed to parse ticket: %w", err)
	}
	return t, nil
}
