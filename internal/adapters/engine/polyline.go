package engine

import (
	"errors"
	"math"
	"route-coordinator-service/internal/domain"
)

var errTruncatedPolyline = errors.New("truncated polyline")

// decodePolyline decodes an encoded polyline (lat,lon pairs of zig-zag varints)
// at the given precision. Valhalla encodes shapes at precision 6.
func decodePolyline(encoded string, precision int) ([]domain.Coordinates, error) {
	if encoded == "" {
		return nil, nil
	}

	factor := math.Pow10(precision)
	out := make([]domain.Coordinates, 0, len(encoded)/4)

	lat, lon := 0, 0
	index := 0

	next := func() (int, error) {
		shift, result := 0, 0
		for {
			if index >= len(encoded) {
				return 0, errTruncatedPolyline
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return ^(result >> 1), nil
		}
		return result >> 1, nil
	}

	for index < len(encoded) {
		dlat, err := next()
		if err != nil {
			return nil, err
		}
		dlon, err := next()
		if err != nil {
			return nil, err
		}
		lat += dlat
		lon += dlon

		out = append(out, domain.Coordinates{
			Lat: float64(lat) / factor,
			Lon: float64(lon) / factor,
		})
	}

	return out, nil
}
