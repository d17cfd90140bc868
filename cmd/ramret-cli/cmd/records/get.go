package records

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ramret/cli"
	"ramret/config"
	"ramret/ram"
	"ramret/store"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Dumps a record's value bytes and checksum state.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		home, cfg, err := cli.OpenHome(cmd)
		if err != nil {
			return err
		}
		geo := cfg.RAM.Geometry()
		if err := geo.Validate(); err != nil {
			return errors.Wrap(err, "invalid ram geometry")
		}
		db, err := store.OpenReadOnly(config.ExpandDBPath(home))
		if err != nil {
			return errors.Wrap(err, "error opening store")
		}
		defer db.Close()
		entry, err := store.GetManifestEntry(db, name)
		if err != nil {
			return err
		}
		img, err := os.ReadFile(config.ExpandImagePath(home))
		if err != nil {
			return errors.Wrap(err, "error reading ram image")
		}
		buf, err := sliceRecord(img, geo, entry)
		if err != nil {
			return err
		}
		if len(buf) <= ram.ChecksumSize {
			return errors.Errorf("record %q is too small to carry a checksum", name)
		}
		crcOff := len(buf) - ram.ChecksumSize

		fmt.Printf("Name:     %s\n", entry.Name)
		fmt.Printf("Address:  0x%08x\n", entry.Addr)
		fmt.Printf("Size:     %d\n", entry.Size)
		fmt.Printf("Checksum: 0x%08x\n", binary.LittleEndian.Uint32(buf[crcOff:]))
		fmt.Printf("Valid:    %v\n\n", ram.RegionValid(buf))
		fmt.Print(hex.Dump(buf[:crcOff]))
		return nil
	},
}

func init() {
	cmd.AddCommand(getCmd)
}
