package ccache

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jcmturner/gokrb5/v8/iana/addrtype"
	"github.com/jcmturner/gokrb5/v8/iana/etypeID"
	"github.com/jcmturner/gokrb5/v8/iana/nametype"
)

// CacheView is a human-readable summary of a decoded cache.
type CacheView struct {
	Version          uint8
	DefaultPrincipal string
	Credentials      []CredentialView

	// Err is set when the FurtherCreds region failed to split; the
	// views then cover only the primary credential.
	Err error
}

// CredentialView summarizes one credential for display.
type CredentialView struct {
	Client    string
	Server    string
	IsTGT     bool
	EType     uint16
	ETypeName string
	Flags     []FlagInfo

	AuthTime  time.Time
	StartTime time.Time
	EndTime   time.Time
	RenewTill time.Time

	Addresses []string
	TicketLen int
}

// FlagInfo describes one ticket flag and whether it is set.
type FlagInfo struct {
	Name        string
	Set         bool
	Description string
}

// View builds a display summary of the cache, splitting the additional
// credential records if any are present.
func (cc *CCache) View() *CacheView {
	v := &CacheView{
		Version:          cc.Version,
		DefaultPrincipal: cc.DefaultPrincipal.String(),
	}
	creds, err := cc.Credentials()
	if err != nil {
		v.Err = err
		creds = []Credential{cc.Credential}
	}
	for i := range creds {
		v.Credentials = append(v.Credentials, viewCredential(&creds[i]))
	}
	return v
}

func viewCredential(c *Credential) CredentialView {
	cv := CredentialView{
		Client:    c.Client.String(),
		Server:    c.Server.String(),
		IsTGT:     c.IsTGT(),
		EType:     c.Key.EncType,
		ETypeName: ETypeName(c.Key.EncType),
		Flags:     parseFlags(c.TicketFlags),
		AuthTime:  unixTime(c.AuthTime),
		StartTime: unixTime(c.StartTime),
		EndTime:   unixTime(c.EndTime),
		RenewTill: unixTime(c.RenewTill),
		TicketLen: len(c.Ticket),
	}
	for i := range c.Addresses {
		cv.Addresses = append(cv.Addresses, addressString(&c.Addresses[i]))
	}
	return cv
}

// String renders the view in a klist-like layout.
func (v *CacheView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Credential cache (format version %d)\n", v.Version)
	fmt.Fprintf(&sb, "Default principal: %s\n", v.DefaultPrincipal)
	if v.Err != nil {
		fmt.Fprintf(&sb, "Warning: additional credentials unreadable: %v\n", v.Err)
	}
	for i, cv := range v.Credentials {
		fmt.Fprintf(&sb, "\nCredential %d:\n", i+1)
		fmt.Fprintf(&sb, "  Client    : %s\n", cv.Client)
		if cv.IsTGT {
			fmt.Fprintf(&sb, "  Service   : %s (TGT)\n", cv.Server)
		} else {
			fmt.Fprintf(&sb, "  Service   : %s\n", cv.Server)
		}
		fmt.Fprintf(&sb, "  EType     : %d (%s)\n", cv.EType, cv.ETypeName)
		fmt.Fprintf(&sb, "  Auth Time : %s\n", formatTime(cv.AuthTime))
		fmt.Fprintf(&sb, "  Start Time: %s\n", formatTime(cv.StartTime))
		fmt.Fprintf(&sb, "  End Time  : %s%s\n", formatTime(cv.EndTime), expiredNote(cv.EndTime))
		fmt.Fprintf(&sb, "  Renew Till: %s\n", formatTime(cv.RenewTill))
		fmt.Fprintf(&sb, "  Flags     : %s\n", flagNames(cv.Flags))
		if len(cv.Addresses) > 0 {
			fmt.Fprintf(&sb, "  Addresses : %s\n", strings.Join(cv.Addresses, ", "))
		}
		fmt.Fprintf(&sb, "  Ticket    : %d bytes\n", cv.TicketLen)
	}
	return sb.String()
}

// ETypeName returns the registered name for an encryption type number,
// or a numeric fallback for unknown types.
func ETypeName(etype uint16) string {
	if name, ok := etypeNames[int32(etype)]; ok {
		return name
	}
	return fmt.Sprintf("etype-%d", etype)
}

// NameTypeName returns a label for a principal name type.
func NameTypeName(nt uint32) string {
	switch int32(nt) {
	case nametype.KRB_NT_UNKNOWN:
		return "unknown"
	case nametype.KRB_NT_PRINCIPAL:
		return "principal"
	case nametype.KRB_NT_SRV_INST:
		return "service-instance"
	case nametype.KRB_NT_SRV_HST:
		return "service-host"
	case nametype.KRB_NT_SRV_XHST:
		return "service-xhost"
	case nametype.KRB_NT_UID:
		return "uid"
	case nametype.KRB_NT_ENTERPRISE:
		return "enterprise"
	default:
		return fmt.Sprintf("nametype-%d", nt)
	}
}

// etypeNames inverts the IANA registry map carried by gokrb5. Aliases
// share a number; whichever name wins is fine for display.
var etypeNames = func() map[int32]string {
	m := make(map[int32]string, len(etypeID.ETypesByName))
	for name, id := range etypeID.ETypesByName {
		m[id] = name
	}
	return m
}()

func addressString(a *Address) string {
	switch int32(a.AddrType) {
	case addrtype.IPv4:
		if len(a.Data) == net.IPv4len {
			return net.IP(a.Data).String()
		}
	case addrtype.IPv6:
		if len(a.Data) == net.IPv6len {
			return net.IP(a.Data).String()
		}
	case addrtype.NetBios:
		return "netbios:" + strings.TrimRight(string(a.Data), " ")
	}
	return fmt.Sprintf("addrtype-%d(%x)", a.AddrType, a.Data)
}

func parseFlags(flags uint32) []FlagInfo {
	defs := []struct {
		mask uint32
		name string
		desc string
	}{
		{FlagForwardable, "FORWARDABLE", "can be delegated to another host"},
		{FlagForwarded, "FORWARDED", "has been forwarded"},
		{FlagProxiable, "PROXIABLE", "can be used to obtain proxy tickets"},
		{FlagProxy, "PROXY", "is a proxy ticket"},
		{FlagMayPostdate, "MAY-POSTDATE", "can be postdated"},
		{FlagPostdated, "POSTDATED", "has been postdated"},
		{FlagInvalid, "INVALID", "not valid until validated by the KDC"},
		{FlagRenewable, "RENEWABLE", "lifetime can be extended by renewal"},
		{FlagInitial, "INITIAL", "obtained directly via the AS exchange"},
		{FlagPreAuthent, "PRE-AUTHENT", "client pre-authenticated"},
		{FlagHWAuthent, "HW-AUTHENT", "hardware authentication was used"},
		{FlagTransitedChecked, "TRANSITED-CHECKED", "transit path checked by KDC"},
		{FlagOKAsDelegate, "OK-AS-DELEGATE", "service is trusted for delegation"},
		{FlagAnonymous, "ANONYMOUS", "issued to an anonymous principal"},
	}
	out := make([]FlagInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, FlagInfo{
			Name:        def.name,
			Set:         flags&def.mask != 0,
			Description: def.desc,
		})
	}
	return out
}

func flagNames(flags []FlagInfo) string {
	var set []string
	for _, f := range flags {
		if f.Set {
			set = append(set, f.Name)
		}
	}
	if len(set) == 0 {
		return "(none)"
	}
	return strings.Join(set, " ")
}

func unixTime(t uint32) time.Time {
	if t == 0 {
		return time.Time{}
	}
	return time.Unix(int64(t), 0).UTC()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "(not set)"
	}
	return t.Format("2006-01-02 15:04:05 MST")
}

func expiredNote(end time.Time) string {
	if !end.IsZero() && end.Before(time.Now()) {
		return "  (EXPIRED)"
	}
	return ""
}
