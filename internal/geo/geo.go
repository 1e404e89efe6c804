package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return fmt.Errorf("coordinates must be numbers")
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %.4f out of range", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %.4f out of range", p.Lon)
	}
	return nil
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h slightly outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

type bucket struct {
	maxKm float64
	score float64
}

var proximityBuckets = []bucket{
	{maxKm: 10, score: 1.0},
	{maxKm: 50, score: 0.8},
	{maxKm: 200, score: 0.6},
}

const farScore = 0.4

// ProximityScore buckets the distance between a and b into a score in [0.4, 1].
func ProximityScore(a, b Point) float64 {
	return ScoreDistance(Distance(a, b))
}

func ScoreDistance(km float64) float64 {
	for _, b := range proximityBuckets {
		if km <= b.maxKm {
			return b.score
		}
	}
	return farScore
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
