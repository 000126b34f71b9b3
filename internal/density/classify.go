// Package density implements the road-density computation: proximity
// classification against buffered streams, per-watershed aggregation, and
// the orchestration of one run.
package density

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/basinworks/roaddensity/internal/geometry"
	"github.com/basinworks/roaddensity/internal/model"
	"github.com/basinworks/roaddensity/internal/reader"
)

// Classification is the output of the proximity step: every road with its
// near/far split, plus the composite near-stream zone the split was made
// against. The zone is owned by the run and never persisted.
type Classification struct {
	Roads []model.ClassifiedRoad
	Zone  geom.T
}

// Classify buffers the streams by distance (meters), unions the buffers
// into one near-stream zone, and partitions every road into near and far
// lengths. Streams are treated collectively, so overlapping buffers from
// adjacent reaches do not double count.
//
// Only streams that intersect at least one watershed participate; distant
// streams cannot affect any aggregate. A distance of zero yields an empty
// zone and near length zero everywhere.
func Classify(ctx context.Context, eng geometry.Engine, ds *reader.Dataset, distance float64) (*Classification, error) {
	log := zap.L().With(zap.String("component", "classifier"))

	zone, err := buildZone(ctx, eng, ds, distance)
	if err != nil {
		return nil, err
	}

	var (
		classified []model.ClassifiedRoad
		skipped    int
	)
	for _, road := range ds.Roads {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "classifier: cancelled")
		}

		total, err := eng.Length(road.Geom)
		if err != nil {
			return nil, eris.Wrap(err, "classifier: road length")
		}
		if total <= 0 {
			skipped++
			continue
		}

		nearGeom, err := eng.Clip(road.Geom, zone)
		if err != nil {
			return nil, eris.Wrap(err, "classifier: clip road against near-stream zone")
		}

		var near float64
		if nearGeom != nil {
			near, err = eng.Length(nearGeom)
			if err != nil {
				return nil, eris.Wrap(err, "classifier: near-portion length")
			}
		}

		// The far portion is the remainder. Deriving it by subtraction keeps
		// near+far equal to the original length even when the clip rounds at
		// boundary crossings; clamp guards the subtraction itself.
		far := total - near
		if far < 0 {
			far = 0
		}

		classified = append(classified, model.ClassifiedRoad{
			RoadSegment: road,
			NearGeom:    nearGeom,
			NearLength:  near,
			FarLength:   far,
			TotalLength: total,
		})
	}

	if skipped > 0 {
		log.Warn("skipped zero-length roads", zap.Int("skipped", skipped))
	}
	log.Info("roads classified",
		zap.Int("roads", len(classified)),
		zap.Float64("distance_m", distance),
	)

	return &Classification{Roads: classified, Zone: zone}, nil
}

// buildZone buffers the watershed-intersecting streams and unions the
// buffers. Returns nil for an empty stream set or a zero distance.
func buildZone(ctx context.Context, eng geometry.Engine, ds *reader.Dataset, distance float64) (geom.T, error) {
	if distance == 0 {
		return nil, nil
	}
	if distance < 0 {
		return nil, eris.Wrapf(model.ErrInvalidGeometry, "classifier: negative buffer distance %v", distance)
	}

	buffers := make([]geom.T, 0, len(ds.Streams))
	for _, stream := range ds.Streams {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "classifier: cancelled")
		}

		relevant, err := streamInAnyWatershed(eng, stream, ds.Watersheds)
		if err != nil {
			return nil, err
		}
		if !relevant {
			continue
		}

		buf, err := eng.Buffer(stream.Geom, distance)
		if err != nil {
			return nil, eris.Wrap(err, "classifier: buffer stream")
		}
		buffers = append(buffers, buf)
	}

	zone, err := eng.Union(buffers)
	if err != nil {
		return nil, eris.Wrap(err, "classifier: union stream buffers")
	}
	return zone, nil
}

func streamInAnyWatershed(eng geometry.Engine, stream model.StreamSegment, watersheds []model.Watershed) (bool, error) {
	for _, w := range watersheds {
		hit, err := eng.Intersects(stream.Geom, w.Geom)
		if err != nil {
			return false, eris.Wrap(err, "classifier: stream/watershed intersection test")
		}
		if hit {
			return true, nil
		}
	}
	return false, nil
}
