package trip

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/telematics/core/model"
)

func TestDistance(t *testing.T) {
	nyc := &model.Position{Lat: 40.7128, Lon: -74.0060}
	la := &model.Position{Lat: 34.0522, Lon: -118.2437}

	assert.InDelta(t, 3935.75, Distance(nyc, la), 1)
	assert.Equal(t, Distance(nyc, la), Distance(la, nyc))
	assert.Equal(t, 0.0, Distance(nyc, nyc))
	assert.Equal(t, 0.0, Distance(nil, la))
	assert.Equal(t, 0.0, Distance(nyc, nil))

	d := Distance(nyc, la)
	assert.Equal(t, d, math.Round(d*100)/100, "rounded to two decimals")
}

func TestDistance_OutOfRangeIsFinite(t *testing.T) {
	d := Distance(&model.Position{Lat: 200, Lon: 400}, &model.Position{Lat: -200, Lon: -400})
	assert.False(t, math.IsNaN(d))
	assert.GreaterOrEqual(t, d, 0.0)
}

func TestDistance_HugeCoordinatesAreFinite(t *testing.T) {
	origin := &model.Position{Lat: 40.7, Lon: -74}
	cases := []*model.Position{
		{Lat: 1e308, Lon: -74},
		{Lat: 40.7, Lon: -1e308},
		{Lat: -1e308, Lon: 1e308},
	}
	for _, p := range cases {
		for _, d := range []float64{Distance(origin, p), Distance(p, origin)} {
			assert.False(t, math.IsNaN(d), "%+v", *p)
			assert.False(t, math.IsInf(d, 0), "%+v", *p)
			assert.GreaterOrEqual(t, d, 0.0)
		}
	}
}
