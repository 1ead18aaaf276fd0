package bench

import (
	"math"
	"time"

	quadtree "github.com/bmharper/quadtree-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Observer is called after every frame with a snapshot of the tree statistics
type Observer func(frame int, stats quadtree.Stats)

// Run builds the scene tree and plays cfg.Frames frames
func Run(cfg Config, log *logrus.Entry, observers ...Observer) (*Report, error) {
	scene, err := NewScene(cfg)
	if err != nil {
		return nil, err
	}
	qt, err := quadtree.New[float64, uuid.UUID](scene.Bounds, cfg.MaxLevel, cfg.MaxLeafPerBranch)
	if err != nil {
		return nil, errors.Wrap(err, "creating tree")
	}
	qt.SetLogger(log.WithField("component", "quadtree"))
	qt.CullingDistance = cfg.CullingDistance
	if cfg.Truncate {
		qt.RegionCullMode = quadtree.CullTruncate
	}

	report := &Report{Objects: cfg.Objects, Frames: cfg.Frames, Region: scene.Bounds}
	start := time.Now()
	report.Inserted = scene.Fill(qt, cfg.Bulk)
	report.BuildMillis = millis(time.Since(start))
	log.WithFields(logrus.Fields{
		"objects":  report.Inserted,
		"region":   scene.Bounds.String(),
		"build_ms": report.BuildMillis,
	}).Info("tree built")

	var (
		results []uuid.UUID
		regions = make([]quadtree.AABB[float64], cfg.ViewRegions)
		frames  Summary
		visible Summary
	)
	for f := 0; f < cfg.Frames; f++ {
		viewer, heading := viewerAt(scene.Bounds, f, cfg.Frames)
		viewRegions(regions, viewer, heading, cfg.ViewSize)

		start = time.Now()
		results = qt.SelectRegionsFromFast(regions, viewer, cfg.Precise, results)
		frames.add(millis(time.Since(start)))
		visible.add(float64(len(results)))

		if log.Logger.IsLevelEnabled(logrus.TraceLevel) {
			log.WithFields(logrus.Fields{"frame": f, "visible": len(results)}).Trace("frame")
		}

		if cfg.Rebuild {
			start = time.Now()
			qt.Clear()
			if n := scene.Fill(qt, cfg.Bulk); n != report.Inserted {
				return nil, errors.Errorf("rebuild in frame %d inserted %d objects, expected %d", f, n, report.Inserted)
			}
			report.RebuildMillis += millis(time.Since(start))
		}

		stats := qt.Stats()
		for _, o := range observers {
			o(f, stats)
		}
	}

	report.FrameMillis = frames
	report.Visible = visible
	report.Stats = qt.Stats()
	log.WithFields(logrus.Fields{
		"frames":       cfg.Frames,
		"visible_mean": visible.Mean,
		"frame_ms":     frames.Mean,
		"culled":       report.Stats.Culled,
	}).Info("run finished")
	qt.Dispose()
	return report, nil
}

// viewerAt walks a circle around the center of bounds, one lap per run.
// The heading is the direction of travel.
func viewerAt(bounds quadtree.AABB[float64], frame, frames int) (quadtree.Point[float64], quadtree.Point[float64]) {
	angle := 2 * math.Pi * float64(frame) / float64(max(frames, 1))
	radius := 0.35 * min(bounds.W, bounds.H)
	sin, cos := math.Sincos(angle)
	c := bounds.Center()
	return quadtree.Point[float64]{X: c.X + radius*cos, Y: c.Y + radius*sin},
		quadtree.Point[float64]{X: -sin, Y: cos}
}

// viewRegions lays boxes out ahead of the viewer, each one wider than the one
// before it, roughly covering a view frustum.
func viewRegions(regions []quadtree.AABB[float64], viewer, heading quadtree.Point[float64], size float64) {
	for i := range regions {
		dist := (float64(i) + 0.5) * size
		extent := 0.5 * size * float64(i+1)
		cx := viewer.X + heading.X*dist
		cy := viewer.Y + heading.Y*dist
		regions[i] = quadtree.FromEdges(cx-extent, cy-extent, cx+extent, cy+extent)
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
