package ccache

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePreambleGate(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := Unmarshal(nil)
		require.ErrorIs(t, err, ErrUnexpectedEnd)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "pvno", de.Field)
		assert.Equal(t, 0, de.Offset)
	})

	t.Run("wrong pvno", func(t *testing.T) {
		_, err := Unmarshal([]byte{0x04, 0x04})
		require.ErrorIs(t, err, ErrInvalidPreamble)
	})

	t.Run("version gate", func(t *testing.T) {
		for _, version := range []byte{0, 1, 2, 5, 6, 0xff} {
			_, err := Unmarshal([]byte{0x05, version})
			assert.ErrorIs(t, err, ErrUnsupportedVersion, "version %d", version)
		}
	})

	t.Run("missing version byte", func(t *testing.T) {
		_, err := Unmarshal([]byte{0x05})
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})
}

func TestDecodeTruncationSafety(t *testing.T) {
	// A cache with no further-credentials tail: every strict prefix of
	// its encoding must fail to decode, and must never panic.
	cc := New(testPrincipal())
	cc.Credential = fullCredential()
	data := cc.Marshal()

	for n := 0; n < len(data); n++ {
		_, err := Unmarshal(data[:n])
		assert.Error(t, err, "prefix of %d bytes decoded without error", n)
	}
}

func TestDecodeV4Header(t *testing.T) {
	t.Run("unknown leading tag", func(t *testing.T) {
		data := []byte{
			0x05, 0x04,
			0x00, 0x0c,
			0x00, 0x02, // not the deltatime tag
			0x00, 0x08,
			0, 0, 0, 0, 0, 0, 0, 0,
		}
		_, err := Unmarshal(data)
		require.ErrorIs(t, err, ErrInvalidHeaderTag)
	})

	t.Run("wrong deltatime length", func(t *testing.T) {
		data := []byte{
			0x05, 0x04,
			0x00, 0x0c,
			0x00, 0x01,
			0x00, 0x04, // deltatime payload is always 8
			0, 0, 0, 0, 0, 0, 0, 0,
		}
		_, err := Unmarshal(data)
		require.ErrorIs(t, err, ErrInvalidHeaderTag)
	})

	t.Run("header length past end of input", func(t *testing.T) {
		data := []byte{0x05, 0x04, 0xff, 0xff, 0x00, 0x01}
		_, err := Unmarshal(data)
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})

	t.Run("header too short for deltatime tag", func(t *testing.T) {
		data := []byte{0x05, 0x04, 0x00, 0x04, 0x00, 0x01, 0x00, 0x08}
		_, err := Unmarshal(data)
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})
}

func TestDecodeCountInvariants(t *testing.T) {
	t.Run("component count inflated", func(t *testing.T) {
		cc := &CCache{
			Version:          Version3,
			DefaultPrincipal: testPrincipal(),
			Credential:       emptyCredential(),
		}
		data := cc.Marshal()

		// The default principal's component count sits right after the
		// preamble and name_type. Claim one more component than the
		// buffer holds; decoding must fail, not shift fields.
		binary.BigEndian.PutUint32(data[6:10], 3)
		_, err := Unmarshal(data)
		require.Error(t, err)
	})

	t.Run("component count impossible for remaining input", func(t *testing.T) {
		data := []byte{0x05, 0x03}
		data = binary.BigEndian.AppendUint32(data, 1)          // name_type
		data = binary.BigEndian.AppendUint32(data, 0xffffff)   // components
		data = binary.BigEndian.AppendUint32(data, 0)          // empty realm
		_, err := Unmarshal(data)
		require.ErrorIs(t, err, ErrUnexpectedEnd)
	})

	t.Run("address count inflated", func(t *testing.T) {
		cc := &CCache{
			Version:          Version3,
			DefaultPrincipal: testPrincipal(),
			Credential:       fullCredential(),
		}
		data := cc.Marshal()

		// One address is encoded; claim four. The count field sits
		// after the preamble (2), default principal (50), client (50),
		// server (48), keyblock (10), timestamps (16), is_skey (1) and
		// ticket flags (4).
		off := 2 + 50 + 50 + 48 + 10 + 16 + 1 + 4
		require.Equal(t, uint32(1), binary.BigEndian.Uint32(data[off:off+4]))
		binary.BigEndian.PutUint32(data[off:off+4], 4)
		_, err := Unmarshal(data)
		require.Error(t, err)
	})
}

func TestDecodeLimits(t *testing.T) {
	cc := &CCache{
		Version:          Version3,
		DefaultPrincipal: testPrincipal(),
		Credential:       emptyCredential(),
	}
	data := cc.Marshal()

	t.Run("realm over limit", func(t *testing.T) {
		_, err := UnmarshalWithLimit(data, 8) // realm is 11 bytes
		require.ErrorIs(t, err, ErrLengthTooLarge)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "default_principal.realm", de.Field)
	})

	t.Run("generous limit passes", func(t *testing.T) {
		_, err := UnmarshalWithLimit(data, 64)
		require.NoError(t, err)
	})

	t.Run("hostile blob length rejected before allocation", func(t *testing.T) {
		// A ticket blob claiming 2 GiB in a tiny buffer. The empty
		// credential ends with the ticket and second-ticket length
		// prefixes.
		mut := append([]byte(nil), data...)
		binary.BigEndian.PutUint32(mut[len(mut)-8:], 0x80000000)
		_, err := Unmarshal(mut)
		require.ErrorIs(t, err, ErrLengthTooLarge)
	})
}

func TestDecodeInvalidUTF8(t *testing.T) {
	data := []byte{0x05, 0x03}
	data = binary.BigEndian.AppendUint32(data, 1) // name_type
	data = binary.BigEndian.AppendUint32(data, 0) // no components
	data = binary.BigEndian.AppendUint32(data, 2) // realm length
	data = append(data, 0xff, 0xfe)               // not UTF-8

	_, err := Unmarshal(data)
	require.ErrorIs(t, err, ErrInvalidUTF8)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "default_principal.realm", de.Field)
	assert.Equal(t, 10, de.Offset)
}

func TestCredentialSequenceDecode(t *testing.T) {
	t.Run("empty input is an empty sequence", func(t *testing.T) {
		creds, err := UnmarshalCredentials(nil)
		require.NoError(t, err)
		assert.Empty(t, creds)
	})

	t.Run("two records in order", func(t *testing.T) {
		a, b := fullCredential(), emptyCredential()
		data := append(MarshalCredentials([]Credential{a}), MarshalCredentials([]Credential{b})...)
		got, err := UnmarshalCredentials(data)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a, got[0])
		assert.Equal(t, b, got[1])
	})

	t.Run("truncated trailing record", func(t *testing.T) {
		data := MarshalCredentials([]Credential{fullCredential(), emptyCredential(), fullCredential()})
		_, err := UnmarshalCredentials(data[:len(data)-1])
		require.ErrorIs(t, err, ErrUnexpectedEnd)
		require.ErrorIs(t, err, ErrTrailingData)
	})

	t.Run("error names the failing record", func(t *testing.T) {
		data := MarshalCredentials([]Credential{fullCredential(), fullCredential()})
		_, err := UnmarshalCredentials(data[:len(data)-1])
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Contains(t, de.Field, "credential[1]")
	})
}

func TestDecodeErrorMessage(t *testing.T) {
	err := &DecodeError{Field: "credential.ticket", Offset: 42, Err: ErrUnexpectedEnd}
	assert.Equal(t, "ccache: credential.ticket at offset 42: unexpected end of input", err.Error())
	assert.ErrorIs(t, err, ErrUnexpectedEnd)
}
