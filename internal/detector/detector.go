// Package detector locates HUD regions in gameplay frames.
//
// Three backends share the Detector interface:
//   - Layout cuts fixed HUD regions out of every frame and keeps those
//     that show text-like edge structure.
//   - Worker sends frames to an external detector process over a
//     length-prefixed msgpack pipe.
//   - ONNX runs a YOLO model in process with onnxruntime.
package detector

import (
	"context"
	"image"
	"sort"

	"github.com/arnab-maity007/Advanced-Valo/internal/region"
)

// Detector finds labelled regions in a frame.
type Detector interface {
	Detect(ctx context.Context, frame image.Image) ([]region.Detection, error)
	Close() error
}

// AssignIndices numbers unindexed detections of slot kinds (buy slots and
// agent cards) in reading order: rows top to bottom, then left to right.
// Detections that already carry an index, and other kinds, are left alone.
func AssignIndices(dets []region.Detection) []region.Detection {
	groups := map[region.Kind][]int{}
	for i, d := range dets {
		l, err := region.ParseLabel(d.Label)
		if err != nil || l.Indexed() {
			continue
		}
		if l.Kind == region.KindBuySlot || l.Kind == region.KindAgentCard {
			groups[l.Kind] = append(groups[l.Kind], i)
		}
	}

	for kind, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			ba, bb := dets[idx[a]].Box, dets[idx[b]].Box
			if !sameRow(ba, bb) {
				return ba.Y < bb.Y
			}
			return ba.X < bb.X
		})
		for n, i := range idx {
			dets[i].Label = region.Label{Kind: kind, Index: n + 1}.String()
		}
	}
	return dets
}

// sameRow reports whether two boxes overlap vertically by at least half
// the smaller height.
func sameRow(a, b region.BoundingBox) bool {
	top := max(a.Y, b.Y)
	bottom := min(a.Y+a.H, b.Y+b.H)
	return bottom-top >= min(a.H, b.H)/2
}
