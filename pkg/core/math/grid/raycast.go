package grid

import (
	gomath "github.com/NCSUhardware/high-level/pkg/core/math"
	"github.com/chewxy/math32"
)

// RayCast traces a ray from world point (x, y) in direction theta (radians)
// through the map using a cell digital-differential-analyzer traversal,
// stepping exactly one grid line crossing at a time. It returns the world
// coordinates of the center of the first wall cell hit and ok = true, or
// ok = false if the ray leaves the map (or exceeds maxRange) without
// hitting a wall.
//
// The traversal is deterministic and monotone in maxRange: shortening or
// lengthening maxRange never changes which cell is reported as the hit,
// only whether it is reached in time. Ties where the ray crosses a cell
// corner exactly (stepping x and y the same instant) resolve by stepping
// x first.
func (m *Map) RayCast(x, y, theta, maxRange float32) (hitX, hitY float32, ok bool) {
	dirX := math32.Cos(theta)
	dirY := math32.Sin(theta)

	cx, cy := m.WorldToCell(x, y)
	if !m.InBounds(cx, cy) {
		return 0, 0, false
	}
	if m.IsWall(cx, cy) {
		hx, hy := m.CellToWorld(cx, cy)
		return hx, hy, true
	}

	stepX, stepY := 1, 1
	if dirX < 0 {
		stepX = -1
	}
	if dirY < 0 {
		stepY = -1
	}

	// tMaxX/tMaxY: distance along the ray to the first vertical/horizontal
	// grid line; tDeltaX/tDeltaY: distance between successive such lines.
	var tMaxX, tMaxY, tDeltaX, tDeltaY float32
	if dirX == 0 {
		tMaxX = math32.Inf(1)
		tDeltaX = math32.Inf(1)
	} else {
		nextBoundaryX := float32(cx) * m.scale
		if stepX > 0 {
			nextBoundaryX = float32(cx+1) * m.scale
		}
		tMaxX = (nextBoundaryX - x) / dirX
		tDeltaX = m.scale / math32.Abs(dirX)
	}
	if dirY == 0 {
		tMaxY = math32.Inf(1)
		tDeltaY = math32.Inf(1)
	} else {
		nextBoundaryY := float32(cy) * m.scale
		if stepY > 0 {
			nextBoundaryY = float32(cy+1) * m.scale
		}
		tMaxY = (nextBoundaryY - y) / dirY
		tDeltaY = m.scale / math32.Abs(dirY)
	}

	for {
		if tMaxX <= tMaxY {
			if tMaxX > maxRange {
				return 0, 0, false
			}
			cx += stepX
			tMaxX += tDeltaX
		} else {
			if tMaxY > maxRange {
				return 0, 0, false
			}
			cy += stepY
			tMaxY += tDeltaY
		}

		if !m.InBounds(cx, cy) {
			return 0, 0, false
		}
		if m.IsWall(cx, cy) {
			hx, hy := m.CellToWorld(cx, cy)
			return hx, hy, true
		}
	}
}

// RayCastDistance is a convenience wrapper returning the Euclidean distance
// to the hit point, or the map's diagonal (the sentinel max reading, per
// the glossary) if the ray misses every wall within maxRange.
func (m *Map) RayCastDistance(x, y, theta, maxRange float32) float32 {
	hx, hy, ok := m.RayCast(x, y, theta, maxRange)
	if !ok {
		return m.Diagonal()
	}
	return gomath.Pytag(hx-x, hy-y)
}
