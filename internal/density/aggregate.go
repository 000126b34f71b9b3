package density

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/basinworks/roaddensity/internal/geometry"
	"github.com/basinworks/roaddensity/internal/model"
)

const (
	metersPerKM         = 1000.0
	squareMetersPerKM2  = 1_000_000.0
	defaultMinAreaM2    = 1.0
	defaultWorkersLimit = 1
)

// AggregateOptions tunes the per-watershed aggregation.
type AggregateOptions struct {
	// MinAreaM2 excludes degenerate sliver watersheds. Excluded watersheds
	// are reported as skipped, not failed.
	MinAreaM2 float64
	// Workers bounds the parallel watershed computations. Each worker gets
	// its own Engine from the factory because native engines are not
	// goroutine-safe. 0 or 1 runs sequentially.
	Workers int
}

// Aggregate computes one DensityRecord per watershed. Each watershed's
// aggregate depends only on itself and the read-only classified road set,
// so watersheds are independent; output ordering follows input order
// regardless of worker count.
func Aggregate(ctx context.Context, factory geometry.Factory, crs model.CRS, watersheds []model.Watershed, roads []model.ClassifiedRoad, opts AggregateOptions) ([]model.DensityRecord, error) {
	log := zap.L().With(zap.String("component", "aggregator"))

	minArea := opts.MinAreaM2
	if minArea <= 0 {
		minArea = defaultMinAreaM2
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkersLimit
	}
	if workers > len(watersheds) && len(watersheds) > 0 {
		workers = len(watersheds)
	}

	// Slots keep input order; skipped watersheds leave a nil behind.
	slots := make([]*model.DensityRecord, len(watersheds))

	if workers <= 1 {
		eng, err := factory(crs)
		if err != nil {
			return nil, eris.Wrap(err, "aggregator: create engine")
		}
		for i, w := range watersheds {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "aggregator: cancelled")
			}
			rec, err := aggregateOne(eng, w, roads, minArea)
			if err != nil {
				return nil, err
			}
			slots[i] = rec
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, w := range watersheds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return eris.Wrap(err, "aggregator: cancelled")
				}
				eng, err := factory(crs)
				if err != nil {
					return eris.Wrap(err, "aggregator: create engine")
				}
				rec, err := aggregateOne(eng, w, roads, minArea)
				if err != nil {
					return err
				}
				slots[i] = rec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	records := make([]model.DensityRecord, 0, len(watersheds))
	var skipped int
	for _, rec := range slots {
		if rec == nil {
			skipped++
			continue
		}
		records = append(records, *rec)
	}

	if skipped > 0 {
		log.Warn("skipped degenerate-area watersheds", zap.Int("skipped", skipped))
	}
	log.Info("watersheds aggregated", zap.Int("records", len(records)))

	return records, nil
}

// aggregateOne clips every classified road (and its near portion) against
// one watershed and folds the lengths into a DensityRecord. Returns nil
// for a watershed below the area threshold.
func aggregateOne(eng geometry.Engine, w model.Watershed, roads []model.ClassifiedRoad, minAreaM2 float64) (*model.DensityRecord, error) {
	area, err := eng.Area(w.Geom)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregator: watershed %s area", w.ID)
	}
	if area < minAreaM2 {
		zap.L().Warn("aggregator: watershed below minimum area",
			zap.String("watershed", w.ID),
			zap.Float64("area_m2", area),
			zap.Float64("min_area_m2", minAreaM2),
		)
		return nil, nil
	}

	var existingNear, existingTotal, proposedNear, proposedTotal float64

	for _, road := range roads {
		// A road may cross several watershed boundaries; only its
		// in-watershed portion counts here.
		inside, err := eng.Clip(road.Geom, w.Geom)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregator: clip road in watershed %s", w.ID)
		}
		if inside == nil {
			continue
		}
		total, err := eng.Length(inside)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregator: road length in watershed %s", w.ID)
		}

		var near float64
		if road.NearGeom != nil {
			nearInside, err := eng.Clip(road.NearGeom, w.Geom)
			if err != nil {
				return nil, eris.Wrapf(err, "aggregator: clip near portion in watershed %s", w.ID)
			}
			if nearInside != nil {
				near, err = eng.Length(nearInside)
				if err != nil {
					return nil, eris.Wrapf(err, "aggregator: near length in watershed %s", w.ID)
				}
			}
		}

		switch road.Category {
		case model.RoadProposed:
			proposedNear += near
			proposedTotal += total
		default:
			existingNear += near
			existingTotal += total
		}
	}

	areaKM2 := area / squareMetersPerKM2
	rec := &model.DensityRecord{
		WatershedID:     w.ID,
		AreaKM2:         areaKM2,
		ExistingNearKM:  existingNear / metersPerKM,
		ExistingTotalKM: existingTotal / metersPerKM,
		ProposedNearKM:  proposedNear / metersPerKM,
		ProposedTotalKM: proposedTotal / metersPerKM,
	}
	rec.ExistingNearDensity = rec.ExistingNearKM / areaKM2
	rec.ExistingTotalDensity = rec.ExistingTotalKM / areaKM2
	rec.ProposedNearDensity = rec.ProposedNearKM / areaKM2
	rec.ProposedTotalDensity = rec.ProposedTotalKM / areaKM2

	return rec, nil
}
