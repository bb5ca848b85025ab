package main

import (
	"fmt"
	"os"

	"github.com/krbcred/krbcred/pkg/ccache"
	"github.com/krbcred/krbcred/pkg/kirbi"
)

// fieldLimit returns the decode limit from flags, falling back to the
// package default.
func fieldLimit() uint32 {
	if flags.limit > 0 {
		return uint32(flags.limit)
	}
	return ccache.DefaultMaxFieldLen
}

// loadCache loads a credential file as a cache regardless of its
// on-disk format. Cache files start with the protocol byte 0x05;
// anything else is treated as .kirbi (DER or base64) and converted.
func loadCache(path string) (*ccache.CCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > 0 && data[0] == ccache.PVNO {
		log.Debug().Str("path", path).Msg("parsing as ccache")
		return ccache.UnmarshalWithLimit(data, fieldLimit())
	}
	log.Debug().Str("path", path).Msg("parsing as kirbi")
	k, err := kirbi.Parse(data)
	if err != nil {
		return nil, err
	}
	return k.ToCCache()
}

// writeOutput writes data to the -o file, or stdout when unset.
func writeOutput(data []byte) error {
	if flags.outfile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flags.outfile, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", flags.outfile, err)
	}
	log.Debug().Str("path", flags.outfile).Int("bytes", len(data)).Msg("wrote output")
	return nil
}

// cmdDescribe handles the describe command.
func cmdDescribe(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cache or kirbi file required")
	}

	for _, path := range args {
		cc, err := loadCache(path)
		if err != nil {
			return err
		}
		view := cc.View()
		if view.Err != nil {
			log.Warn().Err(view.Err).Str("path", path).
				Msg("additional records could not be decoded")
		}
		fmt.Printf("Ticket cache: FILE:%s\n%s", path, view.String())
	}
	return nil
}

// cmdConvert handles the convert command.
func cmdConvert(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("input file required")
	}
	if flags.cacheV != ccache.Version3 && flags.cacheV != ccache.Version4 {
		return fmt.Errorf("unsupported cache version %d", flags.cacheV)
	}

	cc, err := loadCache(args[0])
	if err != nil {
		return err
	}

	switch flags.format {
	case "", "ccache":
		cc.Version = uint8(flags.cacheV)
		return writeOutput(cc.Marshal())
	case "kirbi":
		k, err := kirbi.FromCCache(cc)
		if err != nil {
			return err
		}
		data, err := k.Marshal()
		if err != nil {
			return err
		}
		return writeOutput(data)
	case "base64":
		k, err := kirbi.FromCCache(cc)
		if err != nil {
			return err
		}
		b64, err := k.ToBase64()
		if err != nil {
			return err
		}
		return writeOutput([]byte(b64 + "\n"))
	default:
		return fmt.Errorf("unknown format %q (want ccache, kirbi, or base64)", flags.format)
	}
}

// cmdExport handles the export command: the cache's credentials as a
// headerless record sequence, suitable for import into another cache.
func cmdExport(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cache file required")
	}

	cc, err := loadCache(args[0])
	if err != nil {
		return err
	}
	creds, err := cc.Credentials()
	if err != nil {
		return err
	}
	log.Debug().Int("credentials", len(creds)).Msg("exporting records")
	return writeOutput(ccache.MarshalCredentials(creds))
}

// cmdImport handles the import command: appends exported records to an
// existing cache.
func cmdImport(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: import <cache> <records>")
	}

	cc, err := loadCache(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	imported, err := ccache.UnmarshalCredentialsWithLimit(data, fieldLimit())
	if err != nil {
		return err
	}

	creds, err := cc.Credentials()
	if err != nil {
		return err
	}
	if err := cc.SetCredentials(append(creds, imported...)); err != nil {
		return err
	}
	log.Debug().Int("imported", len(imported)).Msg("records appended")

	if flags.outfile == "" {
		return cc.Save(args[0])
	}
	return writeOutput(cc.Marshal())
}

// cmdMerge handles the merge command: all credentials from every input,
// under the first cache's default principal and header.
func cmdMerge(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("at least two input files required")
	}

	base, err := loadCache(args[0])
	if err != nil {
		return err
	}
	creds, err := base.Credentials()
	if err != nil {
		return err
	}
	for _, path := range args[1:] {
		cc, err := loadCache(path)
		if err != nil {
			return err
		}
		more, err := cc.Credentials()
		if err != nil {
			return err
		}
		creds = append(creds, more...)
	}

	if err := base.SetCredentials(creds); err != nil {
		return err
	}
	log.Debug().Int("credentials", len(creds)).Msg("merged")
	return writeOutput(base.Marshal())
}
