package unsafe

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/syndtr/goleveldb/leveldb"

	"ramret/cli"
	"ramret/config"
	"ramret/store"
)

var resetRAMCmd = &cobra.Command{
	Use:   "reset-ram",
	Short: "Wipes ramretd's RAM image and snapshot directly on disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		home := cli.GetHomeDir(cmd)
		if err := config.EnsureHomeDir(home); err != nil {
			return err
		}
		if !confirm("This permanently destroys the RAM image, its snapshot and the record manifest.") {
			fmt.Println("Aborted.")
			return nil
		}
		db, err := store.Open(config.ExpandDBPath(home))
		if err != nil {
			return errors.Wrap(err, "error opening store")
		}

		if err := os.Remove(config.ExpandImagePath(home)); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "error erasing ram image")
		}
		if err := store.WithTx(db, func(tx *leveldb.Transaction) error {
			return store.TruncateSnapshotTx(tx)
		}); err != nil {
			return errors.Wrap(err, "error truncating snapshot")
		}
		if err := db.Close(); err != nil {
			return errors.Wrap(err, "error closing DB")
		}
		fmt.Println("RAM image and snapshot wiped.")
		return nil
	},
}

func init() {
	cmd.AddCommand(resetRAMCmd)
}
