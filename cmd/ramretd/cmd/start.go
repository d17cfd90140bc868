package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/syndtr/goleveldb/leveldb"

	"ramret/arena"
	"ramret/boot"
	"ramret/config"
	"ramret/log"
	"ramret/ram"
	"ramret/ramsim"
	"ramret/service"
	"ramret/store"
	"ramret/version"
	"ramret/workload"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Starts the daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.ReadConfigFile(configuredHomeDir)
		if err != nil {
			return errors.Wrap(err, "error reading config file")
		}
		logLevel, err := log.NewLevel(cfg.LogLevel)
		if err != nil {
			return errors.Wrap(err, "error parsing log level")
		}
		log.SetLevel(logLevel)
		lgr := log.WithModule("main")

		lgr.Info("starting ramretd", "git_commit", version.GitCommit, "git_tag", version.GitTag)
		geo := cfg.RAM.Geometry()
		if err := geo.Validate(); err != nil {
			return errors.Wrap(err, "invalid ram geometry")
		}

		dbPath := config.ExpandDBPath(configuredHomeDir)
		lgr.Info("opening db", "path", dbPath)
		db, err := store.Open(dbPath)
		if err != nil {
			return err
		}

		imagePath := config.ExpandImagePath(configuredHomeDir)
		lgr.Info("opening ram image", "path", imagePath, "size", geo.Size)
		sram, err := ramsim.OpenSRAM(imagePath, geo)
		if err != nil {
			return errors.Wrap(err, "error opening ram image")
		}
		sram.SetFlushLimit(float64(cfg.Tuning.SRAM.FlushPerSec), cfg.Tuning.SRAM.FlushBurst)

		power := ramsim.NewPower(geo)
		rt := ram.NewRetainer(geo, power)

		res, err := ramsim.Wake(db, sram, power, cfg.Sim.ScrambleSeed)
		if err != nil {
			return errors.Wrap(err, "error waking from snapshot")
		}
		if res.Cold {
			lgr.Warn("cold boot", "reason", res.Reason)
		} else {
			lgr.Info("warm wake", "scrambled_sections", res.Scrambled)
		}

		a, err := arena.New(geo, sram.Bytes())
		if err != nil {
			return errors.Wrap(err, "error building arena")
		}
		counterRec, err := arena.NewRecord[uint32](a, "boot-counter", rt)
		if err != nil {
			return errors.Wrap(err, "error allocating boot counter record")
		}
		uptimeRec, err := arena.NewRecord[int64](a, "uptime", rt)
		if err != nil {
			return errors.Wrap(err, "error allocating uptime record")
		}
		statsRec, err := arena.NewRecord[workload.SessionStats](a, "stats", rt)
		if err != nil {
			return errors.Wrap(err, "error allocating stats record")
		}

		validateStep := func(name string, g ramsim.Guarded) func() error {
			return func() error {
				valid, err := g.Validate()
				if err != nil {
					return err
				}
				lgr.Info("validated record", "name", name, "valid", valid)
				return nil
			}
		}
		seq := boot.NewSequence(lgr)
		seq.Register(10, "store-manifest", func() error {
			var entries []store.ManifestEntry
			for _, info := range a.Manifest() {
				entries = append(entries, store.ManifestEntry{
					Name: info.Name,
					Addr: info.Addr,
					Size: info.Size,
				})
			}
			return store.WithTx(db, func(tx *leveldb.Transaction) error {
				return store.SetManifestTx(tx, entries)
			})
		})
		seq.Register(20, "validate-boot-counter", validateStep("boot-counter", counterRec))
		seq.Register(30, "validate-uptime", validateStep("uptime", uptimeRec))
		seq.Register(40, "validate-stats", validateStep("stats", statsRec))
		if err := seq.Run(); err != nil {
			return errors.Wrap(err, "error running boot sequence")
		}

		counter := workload.NewCounter(counterRec, sram)
		counter.Interval = config.ConvertDuration(cfg.Tuning.Counter.IntervalMS, time.Millisecond)
		uptime := workload.NewUptime(uptimeRec, sram)
		uptime.Interval = config.ConvertDuration(cfg.Tuning.Uptime.IntervalMS, time.Millisecond)
		fault := res.Cold && res.Snapshot != nil
		stats := workload.NewStats(statsRec, sram, fault)

		scrubber := ramsim.NewScrubber()
		scrubber.Interval = config.ConvertDuration(cfg.Tuning.Scrubber.IntervalMS, time.Millisecond)
		scrubber.Workers = cfg.Tuning.Scrubber.Workers
		scrubber.Register("boot-counter", counterRec)
		scrubber.Register("uptime", uptimeRec)
		scrubber.Register("stats", statsRec)

		persister := ramsim.NewPersister(sram)
		persister.Interval = config.ConvertDuration(cfg.Tuning.Persister.FlushIntervalMS, time.Millisecond)

		services := []service.Service{
			counter,
			uptime,
			stats,
			scrubber,
			persister,
		}
		lgr.Info("starting services")
		var wg sync.WaitGroup
		for _, s := range services {
			wg.Add(1)
			go func(s service.Service) {
				defer wg.Done()
				if err := s.Start(); err != nil {
					lgr.Error("failed to start service", "err", err)
				}
			}(s)
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

		sig := <-sigs
		lgr.Info("shutting down", "signal", sig)
		for _, s := range services {
			if err := s.Stop(); err != nil {
				lgr.Error("failed to stop service", "err", err)
			}
		}
		wg.Wait()

		if err := ramsim.SystemOff(db, sram, power); err != nil {
			return errors.Wrap(err, "error storing snapshot")
		}
		lgr.Info("snapshot stored, powering off")
		if err := sram.Close(); err != nil {
			return errors.Wrap(err, "error closing ram image")
		}
		return errors.Wrap(db.Close(), "error closing db")
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
