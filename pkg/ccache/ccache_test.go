package ccache

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrincipal() Principal {
	return Principal{
		NameType:   1,
		Realm:      "EXAMPLE.COM",
		Components: []string{"host", "srv.example.com"},
	}
}

// testPrincipalBytes is the wire form of testPrincipal: name_type,
// component count, then the length-prefixed realm and components.
func testPrincipalBytes() []byte {
	var b []byte
	b = binary.BigEndian.AppendUint32(b, 1)
	b = binary.BigEndian.AppendUint32(b, 2)
	b = binary.BigEndian.AppendUint32(b, 11)
	b = append(b, "EXAMPLE.COM"...)
	b = binary.BigEndian.AppendUint32(b, 4)
	b = append(b, "host"...)
	b = binary.BigEndian.AppendUint32(b, 15)
	b = append(b, "srv.example.com"...)
	return b
}

func emptyCredential() Credential {
	return Credential{
		Client: testPrincipal(),
		Server: testPrincipal(),
	}
}

func fullCredential() Credential {
	return Credential{
		Client: testPrincipal(),
		Server: Principal{
			NameType:   2,
			Realm:      "EXAMPLE.COM",
			Components: []string{"krbtgt", "EXAMPLE.COM"},
		},
		Key:         KeyBlock{EncType: 18, Data: []byte{0xde, 0xad, 0xbe, 0xef}},
		AuthTime:    1700000000,
		StartTime:   1700000000,
		EndTime:     1700036000,
		RenewTill:   1700604800,
		TicketFlags: FlagForwardable | FlagRenewable | FlagInitial | FlagPreAuthent,
		Addresses: []Address{
			{AddrType: 2, Data: []byte{192, 0, 2, 1}},
		},
		AuthData: []AuthDatum{
			{ADType: 1, Data: []byte{0x01, 0x02}},
		},
		Ticket:       []byte{0x61, 0x81, 0x99, 0x00},
		SecondTicket: nil,
	}
}

func TestRoundTripContainer(t *testing.T) {
	t.Run("version 3", func(t *testing.T) {
		cc := &CCache{
			Version:          Version3,
			DefaultPrincipal: testPrincipal(),
			Credential:       fullCredential(),
		}
		got, err := Unmarshal(cc.Marshal())
		require.NoError(t, err)
		assert.Equal(t, cc, got)
	})

	t.Run("version 4", func(t *testing.T) {
		cc := New(testPrincipal())
		cc.Credential = fullCredential()
		got, err := Unmarshal(cc.Marshal())
		require.NoError(t, err)
		assert.Equal(t, cc, got)
	})

	t.Run("version 4 with nonzero offsets and further tags", func(t *testing.T) {
		cc := &CCache{
			Version: Version4,
			Header: V4Header{
				KDCSecOffset:  -300,
				KDCUsecOffset: 125000,
				FurtherTags:   []byte{0x00, 0x02, 0x00, 0x01, 0xaa},
			},
			DefaultPrincipal: testPrincipal(),
			Credential:       emptyCredential(),
		}
		got, err := Unmarshal(cc.Marshal())
		require.NoError(t, err)
		assert.Equal(t, cc, got)
	})

	t.Run("further creds survive verbatim", func(t *testing.T) {
		cc := New(testPrincipal())
		cc.Credential = fullCredential()
		cc.FurtherCreds = MarshalCredentials([]Credential{emptyCredential()})
		got, err := Unmarshal(cc.Marshal())
		require.NoError(t, err)
		assert.Equal(t, cc.FurtherCreds, got.FurtherCreds)
	})
}

func TestEncodeVersion3Layout(t *testing.T) {
	cc := &CCache{
		Version:          Version3,
		DefaultPrincipal: testPrincipal(),
		Credential:       emptyCredential(),
	}
	data := cc.Marshal()

	princ := testPrincipalBytes()
	require.Len(t, princ, 50)

	// Preamble, principal, credential, nothing else. The credential is
	// two principals, an empty keyblock (2+4), four timestamps, is_skey,
	// flags, two empty array counts and two empty blobs.
	credLen := 2*len(princ) + 6 + 16 + 1 + 4 + 4 + 4 + 4 + 4
	assert.Len(t, data, 2+len(princ)+credLen)

	assert.Equal(t, []byte{0x05, 0x03}, data[:2])
	assert.Equal(t, princ, data[2:2+len(princ)])
	// Client principal of the credential follows immediately.
	assert.Equal(t, princ, data[2+len(princ):2+2*len(princ)])

	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, cc, got)
}

func TestEncodeVersion4Header(t *testing.T) {
	cc := New(testPrincipal())
	cc.Credential = emptyCredential()
	data := cc.Marshal()

	// Header directly after the preamble: length 12, deltatime tag 1,
	// tag length 8, two zero clock offsets, no further tags.
	wantHeader := []byte{
		0x00, 0x0c,
		0x00, 0x01,
		0x00, 0x08,
		0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	require.True(t, len(data) > 2+len(wantHeader))
	assert.Equal(t, []byte{0x05, 0x04}, data[:2])
	assert.Equal(t, wantHeader, data[2:2+len(wantHeader)])
	assert.Equal(t, testPrincipalBytes(), data[16:66])
}

func TestRoundTripCredentialSequence(t *testing.T) {
	creds := []Credential{fullCredential(), emptyCredential()}
	got, err := UnmarshalCredentials(MarshalCredentials(creds))
	require.NoError(t, err)
	assert.Equal(t, creds, got)
}

func TestCredentialsSplit(t *testing.T) {
	t.Run("primary only", func(t *testing.T) {
		cc := New(testPrincipal())
		cc.Credential = fullCredential()
		creds, err := cc.Credentials()
		require.NoError(t, err)
		require.Len(t, creds, 1)
		assert.Equal(t, cc.Credential, creds[0])
	})

	t.Run("set and get", func(t *testing.T) {
		cc := New(testPrincipal())
		want := []Credential{fullCredential(), emptyCredential(), fullCredential()}
		require.NoError(t, cc.SetCredentials(want))
		got, err := cc.Credentials()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("set requires a credential", func(t *testing.T) {
		cc := New(testPrincipal())
		assert.Error(t, cc.SetCredentials(nil))
	})

	t.Run("set single clears tail", func(t *testing.T) {
		cc := New(testPrincipal())
		require.NoError(t, cc.SetCredentials([]Credential{fullCredential(), emptyCredential()}))
		require.NoError(t, cc.SetCredentials([]Credential{fullCredential()}))
		assert.Nil(t, cc.FurtherCreds)
	})
}

func TestLoadSave(t *testing.T) {
	cc := New(testPrincipal())
	cc.Credential = fullCredential()

	path := filepath.Join(t.TempDir(), "krb5cc_test")
	require.NoError(t, cc.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cc, got)
}

func TestPrincipalString(t *testing.T) {
	assert.Equal(t, "host/srv.example.com@EXAMPLE.COM", testPrincipal().String())
	assert.Equal(t, "", Principal{}.String())
}
