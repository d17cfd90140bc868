package unsafe

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/syndtr/goleveldb/leveldb"

	"ramret/cli"
	"ramret/config"
	"ramret/store"
)

var clearRetentionCmd = &cobra.Command{
	Use:   "clear-retention",
	Short: "Zeroes all stored retention bits, so the next wake scrambles everything",
	RunE: func(cmd *cobra.Command, args []string) error {
		home := cli.GetHomeDir(cmd)
		if err := config.EnsureHomeDir(home); err != nil {
			return err
		}
		if !confirm("This drops retention for every section. Retained records will not survive the next wake.") {
			fmt.Println("Aborted.")
			return nil
		}
		db, err := store.Open(config.ExpandDBPath(home))
		if err != nil {
			return errors.Wrap(err, "error opening store")
		}

		masks, err := store.GetRetentionMasks(db)
		if err != nil {
			return err
		}
		if len(masks) > 0 {
			if err := store.WithTx(db, func(tx *leveldb.Transaction) error {
				return store.SetRetentionMasksTx(tx, make([]uint32, len(masks)))
			}); err != nil {
				return errors.Wrap(err, "error clearing retention masks")
			}
		}
		if err := db.Close(); err != nil {
			return errors.Wrap(err, "error closing DB")
		}
		fmt.Println("Retention masks cleared.")
		return nil
	},
}

func init() {
	cmd.AddCommand(clearRetentionCmd)
}
