package ramsim

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"ramret/log"
	"ramret/store"
)

// SystemOff takes the snapshot an orderly power-down leaves behind:
// the image is flushed, and the current retention masks are sealed
// together with the retained payloads and stored as a clean
// snapshot.
func SystemOff(db *leveldb.DB, sram *SRAM, power *Power) error {
	masks := power.Masks()
	seal := Seal(sram.Geometry(), masks, sram.Bytes())
	if err := sram.Flush(); err != nil {
		return errors.Wrap(err, "error flushing image at system off")
	}
	err := store.WithTx(db, func(tx *leveldb.Transaction) error {
		if err := store.SetRetentionMasksTx(tx, masks); err != nil {
			return err
		}
		return store.SetSnapshotTx(tx, &store.Snapshot{
			Seal:       seal,
			Clean:      true,
			ShutdownAt: time.Now(),
			Geometry:   sram.Geometry(),
		})
	})
	return errors.Wrap(err, "error storing snapshot")
}

// WakeResult reports what Wake did to the image.
type WakeResult struct {
	// Cold means nothing survived: no usable snapshot existed and
	// the whole image was scrambled.
	Cold      bool
	Reason    string
	Scrambled int
	Snapshot  *store.Snapshot
}

// Wake replays what waking from System OFF does to memory. Sections
// whose stored retention bit was clear fill with garbage; retained
// sections keep their payload, verified against the snapshot seal.
// A missing snapshot, an unclean shutdown, a geometry change or a
// seal mismatch degrades to a cold boot that scrambles everything.
// The live retention registers reset either way, so callers must
// re-assert retention as part of boot.
//
// seed fixes the garbage for tests; zero seeds from the clock.
func Wake(db *leveldb.DB, sram *SRAM, power *Power, seed int64) (*WakeResult, error) {
	lgr := log.WithModule("ramsim")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	power.Reset()

	snapshot, err := store.GetSnapshot(db)
	if errors.Is(err, store.ErrNoSnapshot) {
		return coldBoot(lgr, sram, rng, "no snapshot", nil)
	}
	if err != nil {
		return nil, err
	}
	if !snapshot.Clean {
		return coldBoot(lgr, sram, rng, "unclean shutdown", snapshot)
	}
	if snapshot.Geometry != sram.Geometry() {
		return coldBoot(lgr, sram, rng, "geometry changed", snapshot)
	}
	masks, err := store.GetRetentionMasks(db)
	if err != nil {
		return nil, err
	}

	// Consume the snapshot before touching memory: if this run dies
	// before its own SystemOff, the next wake must not trust it.
	if err := store.WithTx(db, func(tx *leveldb.Transaction) error {
		return store.SetSnapshotCleanTx(tx, false)
	}); err != nil {
		return nil, err
	}

	scrambled := 0
	geo := sram.Geometry()
	img := sram.Bytes()
	for _, span := range geo.Spans() {
		if maskRetained(masks, span.SectionRef) {
			continue
		}
		off := span.Addr - geo.Base
		rng.Read(img[off : off+span.Size])
		scrambled++
	}
	sram.MarkDirty()

	if got := Seal(geo, masks, img); got != snapshot.Seal {
		return coldBoot(lgr, sram, rng, "seal mismatch", snapshot)
	}

	lgr.Info("woke from snapshot",
		"scrambled_sections", scrambled,
		"shutdown_at", snapshot.ShutdownAt,
	)
	return &WakeResult{
		Scrambled: scrambled,
		Snapshot:  snapshot,
	}, nil
}

func coldBoot(lgr log.Logger, sram *SRAM, rng *rand.Rand, reason string, snapshot *store.Snapshot) (*WakeResult, error) {
	lgr.Warn("cold boot, scrambling memory", "reason", reason)
	img := sram.Bytes()
	rng.Read(img)
	sram.MarkDirty()
	return &WakeResult{
		Cold:      true,
		Reason:    reason,
		Scrambled: len(sram.Geometry().Spans()),
		Snapshot:  snapshot,
	}, nil
}
