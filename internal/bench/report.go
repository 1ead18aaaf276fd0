package bench

import (
	"math"

	quadtree "github.com/bmharper/quadtree-go"
	"github.com/segmentio/encoding/json"
)

type Summary struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
	sum   float64
}

func (s *Summary) add(v float64) {
	if s.Count == 0 {
		s.Min, s.Max = v, v
	} else {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count++
	s.sum += v
	s.Mean = s.sum / float64(s.Count)
}

type Report struct {
	Objects       int                    `json:"objects"`
	Inserted      int                    `json:"inserted"`
	Frames        int                    `json:"frames"`
	Region        quadtree.AABB[float64] `json:"region"`
	BuildMillis   float64                `json:"buildMillis"`
	RebuildMillis float64                `json:"rebuildMillis,omitempty"`
	FrameMillis   Summary                `json:"frameMillis"`
	Visible       Summary                `json:"visible"`
	Stats         quadtree.Stats         `json:"stats"`
}

func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
