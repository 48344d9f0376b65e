package geo

import (
	"math"
)

// NearPolyline returns true if given point is within tolerance distance (in metres) from the polyline.
func NearPolyline(point Coordinate, polyline []Coordinate, tolerance float64) bool {
	d, err := DistanceToPolyline(point, polyline)
	if err != nil {
		return false
	}
	return d <= tolerance
}

// DistanceToPolyline returns the minimum distance (in metres) from point to any segment of the polyline.
func DistanceToPolyline(point Coordinate, polyline []Coordinate) (float64, error) {
	if len(polyline) == 0 {
		return 0, ErrEmptyGeometry
	}
	if len(polyline) == 1 {
		return Distance(point, polyline[0]), nil
	}

	minDistance := math.Inf(1)
	for i := 0; i < len(polyline)-1; i++ {
		if d := distanceToSegment(point, polyline[i], polyline[i+1]); d < minDistance {
			minDistance = d
		}
	}
	return minDistance, nil
}

// distanceToSegment calculates the minimum distance (in metres) from point P to the segment [A, B].
func distanceToSegment(P, A, B Coordinate) float64 {
	lat1 := A.Lat * degToRad
	lon1 := A.Lon * degToRad
	lat2 := B.Lat * degToRad
	lon2 := B.Lon * degToRad
	latP := P.Lat * degToRad
	lonP := P.Lon * degToRad

	// Equirectangular projection around the segment's mean latitude.
	// Good enough at incident radius scale, see https://www.movable-type.co.uk/scripts/latlong.html
	latRef := (lat1 + lat2) / 2
	cosLatRef := math.Cos(latRef)

	xA, yA := lon1*EarthRadius*cosLatRef, lat1*EarthRadius
	xB, yB := lon2*EarthRadius*cosLatRef, lat2*EarthRadius
	xP, yP := lonP*EarthRadius*cosLatRef, latP*EarthRadius

	dx, dy := xB-xA, yB-yA

	// Degenerate segment case (A == B)
	if dx == 0 && dy == 0 {
		return math.Hypot(xP-xA, yP-yA)
	}

	// Orthogonal projection of P onto AB, clamped to the segment
	t := ((xP-xA)*dx + (yP-yA)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))
	xProj := xA + t*dx
	yProj := yA + t*dy

	return math.Hypot(xP-xProj, yP-yProj)
}
