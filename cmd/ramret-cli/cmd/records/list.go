package records

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ramret/cli"
	"ramret/config"
	"ramret/ram"
	"ramret/store"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every record with its current validity.",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		entries, err := store.GetManifest(db)
		if err != nil {
			return err
		}
		img, err := os.ReadFile(config.ExpandImagePath(home))
		if err != nil {
			return errors.Wrap(err, "error reading ram image")
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{
			"Name",
			"Address",
			"Size",
			"Valid",
		})
		for _, entry := range entries {
			buf, err := sliceRecord(img, geo, entry)
			if err != nil {
				return err
			}
			table.Append([]string{
				entry.Name,
				fmt.Sprintf("0x%08x", entry.Addr),
				strconv.Itoa(int(entry.Size)),
				strconv.FormatBool(ram.RegionValid(buf)),
			})
		}
		table.Render()
		return nil
	},
}

// sliceRecord cuts a record's bytes out of the raw image. Validity
// is judged on this copy so listing never zeroes anything.
func sliceRecord(img []byte, geo ram.Geometry, entry store.ManifestEntry) ([]byte, error) {
	if !geo.Contains(entry.Addr, entry.Size) {
		return nil, errors.Errorf("record %q lies outside the configured memory", entry.Name)
	}
	off := entry.Addr - geo.Base
	if uint64(off)+uint64(entry.Size) > uint64(len(img)) {
		return nil, errors.Errorf("record %q lies outside the image", entry.Name)
	}
	return img[off : off+entry.Size], nil
}

func init() {
	cmd.AddCommand(listCmd)
}
