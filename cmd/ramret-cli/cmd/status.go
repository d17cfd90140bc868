package cmd

import (
	"encoding/hex"
	"fmt"
	"math/bits"
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

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the image, snapshot and retention state.",
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

		imagePath := config.ExpandImagePath(home)
		imageSize := "not created"
		if info, err := os.Stat(imagePath); err == nil {
			imageSize = strconv.FormatInt(info.Size(), 10)
		}

		seal := "none"
		clean := "n/a"
		shutdownAt := "n/a"
		snapshot, err := store.GetSnapshot(db)
		if err != nil && !errors.Is(err, store.ErrNoSnapshot) {
			return err
		}
		if snapshot != nil {
			seal = hex.EncodeToString(snapshot.Seal[:])
			clean = strconv.FormatBool(snapshot.Clean)
			shutdownAt = snapshot.ShutdownAt.String()
		}

		masks, err := store.GetRetentionMasks(db)
		if err != nil {
			return err
		}
		retained := 0
		for _, mask := range masks {
			retained += bits.OnesCount32(mask >> ram.RetentionPos)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.Append([]string{
			"Image", imagePath,
		})
		table.Append([]string{
			"Image Size", imageSize,
		})
		table.Append([]string{
			"Base Address", fmt.Sprintf("0x%08x", geo.Base),
		})
		table.Append([]string{
			"Memory Size", strconv.Itoa(int(geo.Size)),
		})
		table.Append([]string{
			"Blocks", strconv.Itoa(int(geo.BlockCount())),
		})
		table.Append([]string{
			"Sections", strconv.Itoa(len(geo.Spans())),
		})
		table.Append([]string{
			"Retained Sections", strconv.Itoa(retained),
		})
		table.Append([]string{
			"Snapshot Seal", seal,
		})
		table.Append([]string{
			"Clean Shutdown", clean,
		})
		table.Append([]string{
			"Shutdown At", shutdownAt,
		})
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
