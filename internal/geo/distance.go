// Package geo holds great-circle helpers for nearby issue lookups.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two lng/lat points in kilometres.
func DistanceKm(lng1, lat1, lng2, lat2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// BoundingBox is a lat/lng rectangle enclosing a circle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoxAround returns a box that contains every point within radiusKm of the centre.
// Near the poles the longitude span widens to the full range. Near the antimeridian
// MinLng or MaxLng may fall outside [-180, 180]; use LngRanges or Contains to query it.
func BoxAround(lng, lat, radiusKm float64) BoundingBox {
	angular := radiusKm / EarthRadiusKm
	dLat := angular * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	// widest longitude offset of the circle, reached away from the centre latitude
	ratio := math.Sin(angular) / math.Cos(toRadians(lat))
	if box.MinLat > -90 && box.MaxLat < 90 && ratio < 1 {
		dLng := math.Asin(ratio) * 180 / math.Pi
		box.MinLng = lng - dLng
		box.MaxLng = lng + dLng
	}
	return box
}

// LngRanges returns the longitude spans the box covers. A box crossing the antimeridian
// is split in two; otherwise both spans are the same.
func (b BoundingBox) LngRanges() (first, second [2]float64) {
	switch {
	case b.MaxLng-b.MinLng >= 360:
		full := [2]float64{-180, 180}
		return full, full
	case b.MinLng < -180:
		return [2]float64{-180, b.MaxLng}, [2]float64{b.MinLng + 360, 180}
	case b.MaxLng > 180:
		return [2]float64{b.MinLng, 180}, [2]float64{-180, b.MaxLng - 360}
	}
	span := [2]float64{b.MinLng, b.MaxLng}
	return span, span
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lng, lat float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	first, second := b.LngRanges()
	return (lng >= first[0] && lng <= first[1]) || (lng >= second[0] && lng <= second[1])
}

// ValidPoint reports whether lng/lat are inside WGS84 ranges.
func ValidPoint(lng, lat float64) bool {
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90 &&
		!math.IsNaN(lng) && !math.IsNaN(lat)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
