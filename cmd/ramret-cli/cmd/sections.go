package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"ramret/cli"
	"ramret/config"
	"ramret/store"
)

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Lists every memory section and its stored retention bit.",
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
		masks, err := store.GetRetentionMasks(db)
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{
			"Block",
			"Section",
			"Address",
			"Size",
			"Mask",
			"Retained",
		})
		for _, span := range geo.Spans() {
			retained := false
			if span.Block < uint32(len(masks)) {
				retained = masks[span.Block]&span.Mask == span.Mask
			}
			table.Append([]string{
				strconv.Itoa(int(span.Block)),
				strconv.Itoa(int(span.Section)),
				fmt.Sprintf("0x%08x", span.Addr),
				strconv.Itoa(int(span.Size)),
				fmt.Sprintf("0x%08x", span.Mask),
				strconv.FormatBool(retained),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sectionsCmd)
}
