package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmZero(t *testing.T) {
	assert.InDelta(t, 0, DistanceKm(77.59, 12.97, 77.59, 12.97), 1e-9)
}

func TestDistanceKmKnownPair(t *testing.T) {
	// London to Paris, roughly 343 km.
	d := DistanceKm(-0.1278, 51.5074, 2.3522, 48.8566)
	assert.InDelta(t, 343.5, d, 1.0)
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(10, 20, 30, 40)
	b := DistanceKm(30, 40, 10, 20)
	assert.InDelta(t, a, b, 1e-9)
}

func TestBoxAroundContainsRadius(t *testing.T) {
	lng, lat := 77.5946, 12.9716
	box := BoxAround(lng, lat, 5)

	// 5 km due north and due east lie on or inside the box.
	assert.LessOrEqual(t, box.MinLat, lat-0.04)
	assert.GreaterOrEqual(t, box.MaxLat, lat+0.04)
	assert.Less(t, box.MinLng, lng)
	assert.Greater(t, box.MaxLng, lng)
}

func TestBoxAroundPole(t *testing.T) {
	box := BoxAround(0, 89.9999, 50)
	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
	assert.Equal(t, 90.0, box.MaxLat)
}

func TestValidPoint(t *testing.T) {
	assert.True(t, ValidPoint(-73.98, 40.75))
	assert.False(t, ValidPoint(200, 0))
	assert.False(t, ValidPoint(0, -91))
}

func TestBoxAroundEnclosesCircle(t *testing.T) {
	lng, lat := 2.3522, 48.8566
	box := BoxAround(lng, lat, 5)

	// walk a grid around the box and make sure nothing within range falls outside it
	for dx := -0.2; dx <= 0.2; dx += 0.002 {
		for dy := -0.1; dy <= 0.1; dy += 0.001 {
			pLng, pLat := lng+dx, lat+dy
			if DistanceKm(lng, lat, pLng, pLat) > 5 {
				continue
			}
			assert.True(t, box.Contains(pLng, pLat), "point %f,%f within radius but outside box", pLng, pLat)
		}
	}
}

func TestBoxAroundAntimeridian(t *testing.T) {
	box := BoxAround(-179.99, -17.0, 5)
	first, second := box.LngRanges()

	assert.Equal(t, [2]float64{-180, box.MaxLng}, first)
	assert.Equal(t, 180.0, second[1])
	assert.InDelta(t, box.MinLng+360, second[0], 1e-9)

	// 2 km west, on the far side of the line
	assert.Less(t, DistanceKm(-179.99, -17.0, 179.99, -17.0), 5.0)
	assert.True(t, box.Contains(179.99, -17.0))
	assert.True(t, box.Contains(-179.99, -17.0))
	assert.False(t, box.Contains(179.5, -17.0))
	assert.False(t, box.Contains(0, -17.0))
}

func TestBoxAroundAntimeridianEast(t *testing.T) {
	box := BoxAround(179.99, 65.0, 5)
	assert.Greater(t, box.MaxLng, 180.0)
	assert.True(t, box.Contains(-179.99, 65.0))
	assert.False(t, box.Contains(-179.0, 65.0))
}

func TestLngRangesWithoutWrap(t *testing.T) {
	box := BoxAround(2.35, 48.85, 5)
	first, second := box.LngRanges()
	assert.Equal(t, first, second)
	assert.Equal(t, [2]float64{box.MinLng, box.MaxLng}, first)
}
