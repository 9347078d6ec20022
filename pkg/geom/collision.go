package geom

import (
	"fmt"
	"math"
)

// SegmentEpsilon is the minimum segment length accepted by
// CollisionFreeDistance. Shorter segments are degenerate: the direction of
// travel is numerically meaningless.
const SegmentEpsilon = 1e-10

// InvalidGeometryError reports a degenerate or ill-conditioned geometric
// query.
type InvalidGeometryError struct {
	Reason string
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

// CollisionFreeDistance computes where a circular robot of the given radius,
// sweeping along the straight segment from pStart to pEnd, first touches the
// point obstacle. Coordinates are metres in a common frame.
//
// It returns collides=false when the swept disc never reaches the obstacle.
// When collides=true, dist is the arc length along the segment at the first
// contact, in [0, |pEnd-pStart|]; an obstacle already in contact at pStart
// reports dist=0.
//
// Segments shorter than SegmentEpsilon fail with *InvalidGeometryError.
func CollisionFreeDistance(pStart, pEnd Point2D, robotRadius float64, obstacle Point2D) (collides bool, dist float64, err error) {
	seg := pEnd.Sub(pStart)
	segLen := seg.Norm()
	if segLen < SegmentEpsilon {
		return false, 0, &InvalidGeometryError{Reason: "segment start and end points are (almost) the same"}
	}

	// Obstacle in the segment frame: x along the direction of travel,
	// y the signed lateral offset.
	ux, uy := seg.X/segLen, seg.Y/segLen
	rel := obstacle.Sub(pStart)
	ox := rel.X*ux + rel.Y*uy
	oy := -rel.X*uy + rel.Y*ux

	if math.Abs(oy) >= robotRadius {
		return false, 0, nil
	}

	// Half-chord of the inflated obstacle circle at lateral offset oy.
	halfChord := math.Sqrt(robotRadius*robotRadius - oy*oy)

	// Obstacle entirely behind the start, out of the disc's reach there.
	if ox+halfChord < 0 {
		return false, 0, nil
	}
	// First contact beyond the end of the segment.
	if ox-halfChord > segLen {
		return false, 0, nil
	}

	return true, math.Max(0, ox-halfChord), nil
}
