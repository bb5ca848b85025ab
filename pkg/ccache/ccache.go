package ccache

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultMaxFieldLen is the default cap on any single length-prefixed
// field or element count in a cache being decoded. Real caches are a
// few kilobytes; anything near this limit is corrupt or hostile.
const DefaultMaxFieldLen = 16 * 1024 * 1024

// Unmarshal decodes a credential cache image using the default field
// limit.
func Unmarshal(data []byte) (*CCache, error) {
	return UnmarshalWithLimit(data, DefaultMaxFieldLen)
}

// UnmarshalWithLimit decodes a credential cache image. maxFieldLen caps
// every declared length and element count before allocation, guarding
// against corrupted or hostile length fields. The limit is threaded
// through the call; there is no package-level configuration.
func UnmarshalWithLimit(data []byte, maxFieldLen uint32) (*CCache, error) {
	return decodeCache(data, maxFieldLen)
}

// UnmarshalCredentials decodes a headerless sequence of credential
// records, such as a cache's FurtherCreds region, using the default
// field limit.
func UnmarshalCredentials(data []byte) ([]Credential, error) {
	return UnmarshalCredentialsWithLimit(data, DefaultMaxFieldLen)
}

// UnmarshalCredentialsWithLimit decodes a headerless credential
// sequence with an explicit field limit. The input must be consumed
// exactly; a trailing partial record is an error.
func UnmarshalCredentialsWithLimit(data []byte, maxFieldLen uint32) ([]Credential, error) {
	return decodeCredentials(data, maxFieldLen)
}

// Load reads and decodes a credential cache file.
func Load(path string) (*CCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ccache: %w", err)
	}
	return Unmarshal(data)
}

// Save writes the cache to disk, owner-readable only.
func (cc *CCache) Save(path string) error {
	if err := os.WriteFile(path, cc.Marshal(), 0600); err != nil {
		return fmt.Errorf("failed to write ccache: %w", err)
	}
	return nil
}

// Write writes the encoded cache to w.
func (cc *CCache) Write(w io.Writer) error {
	_, err := w.Write(cc.Marshal())
	return err
}

// Credentials returns every credential in the cache: the primary one
// followed by the decoded contents of the FurtherCreds region.
func (cc *CCache) Credentials() ([]Credential, error) {
	creds := []Credential{cc.Credential}
	if len(cc.FurtherCreds) > 0 {
		rest, err := UnmarshalCredentials(cc.FurtherCreds)
		if err != nil {
			return nil, err
		}
		creds = append(creds, rest...)
	}
	return creds, nil
}

// SetCredentials replaces the cache's credentials. The first becomes
// the primary credential; the rest are re-encoded into FurtherCreds.
func (cc *CCache) SetCredentials(creds []Credential) error {
	if len(creds) == 0 {
		return errors.New("ccache: a cache needs at least one credential")
	}
	cc.Credential = creds[0]
	if len(creds) > 1 {
		cc.FurtherCreds = MarshalCredentials(creds[1:])
	} else {
		cc.FurtherCreds = nil
	}
	return nil
}
