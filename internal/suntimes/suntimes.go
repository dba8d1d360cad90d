// Package suntimes computes the named solar instants of a calendar day.
package suntimes

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// GoldenHourElevation is the solar elevation in degrees that bounds golden hour.
const GoldenHourElevation = 6.0

// ErrInvalidCoordinates is returned for a latitude outside [-90,90] or a
// longitude outside [-180,180].
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// SunTimes holds the solar instants of one solar day at one location.
// A zero Sunrise, Sunset, GoldenHour or GoldenHourEnd means the sun never
// crosses that elevation on that day (polar day or night). SolarNoon is always
// set.
type SunTimes struct {
	Sunrise       time.Time `json:"sunrise"`
	Sunset        time.Time `json:"sunset"`
	SolarNoon     time.Time `json:"solarNoon"`
	GoldenHour    time.Time `json:"goldenHour"`    // evening: sun descends through +6°
	GoldenHourEnd time.Time `json:"goldenHourEnd"` // morning: sun ascends through +6°
}

// Provider computes SunTimes. It exists so callers can substitute fixed
// times in tests.
type Provider interface {
	Compute(date time.Time, lat, lng float64) (SunTimes, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(date time.Time, lat, lng float64) (SunTimes, error)

// Compute calls f.
func (f ProviderFunc) Compute(date time.Time, lat, lng float64) (SunTimes, error) {
	return f(date, lat, lng)
}

// Default is the go-sunrise backed provider.
var Default Provider = ProviderFunc(Compute)

// ValidateCoordinates reports ErrInvalidCoordinates for out-of-range values.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lng)
	}
	return nil
}

// Compute returns the sun times of the solar day containing date at the given
// coordinates. The day is the calendar date in mean local solar time at lng,
// so it does not depend on date's time zone. Returned instants are expressed
// in date's location.
func Compute(date time.Time, lat, lng float64) (SunTimes, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return SunTimes{}, err
	}
	y, m, d := SolarDate(date, lng)
	loc := date.Location()

	rise, set := sunrise.SunriseSunset(lat, lng, y, m, d)
	morning, evening := sunrise.TimeOfElevation(lat, lng, GoldenHourElevation, y, m, d)

	return SunTimes{
		Sunrise:       in(rise, loc),
		Sunset:        in(set, loc),
		SolarNoon:     transit(lng, y, m, d).In(loc),
		GoldenHourEnd: in(morning, loc),
		GoldenHour:    in(evening, loc),
	}, nil
}

// SolarDate returns the calendar date of t in mean local solar time at lng.
func SolarDate(t time.Time, lng float64) (int, time.Month, int) {
	offset := time.Duration(lng / 15 * float64(time.Hour))
	return t.UTC().Add(offset).Date()
}

// transit is the instant of the sun's meridian crossing. It exists even when
// the sun never rises or never sets.
func transit(lng float64, y int, m time.Month, d int) time.Time {
	var (
		day               = sunrise.MeanSolarNoon(lng, y, m, d)
		solarAnomaly      = sunrise.SolarMeanAnomaly(day)
		equationOfCenter  = sunrise.EquationOfCenter(solarAnomaly)
		eclipticLongitude = sunrise.EclipticLongitude(solarAnomaly, equationOfCenter, day)
	)
	return sunrise.JulianDayToTime(sunrise.SolarTransit(day, solarAnomaly, eclipticLongitude))
}

// Tomorrow returns date advanced by one calendar day.
func Tomorrow(date time.Time) time.Time {
	return date.AddDate(0, 0, 1)
}

func in(t time.Time, loc *time.Location) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(loc)
}
