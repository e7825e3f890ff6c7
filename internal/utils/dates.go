package utils

import (
	"time"

	"github.com/jwaldner/optionlab/internal/models"
)

const (
	DateLayout  = "2006-01-02"
	DaysPerYear = 365.0
)

// ThirdFriday returns the monthly options expiration of the given month
func ThirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	firstDay := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	firstFriday := firstDay.AddDate(0, 0, (int(time.Friday)-int(firstDay.Weekday())+7)%7)
	return firstFriday.AddDate(0, 0, 14)
}

// NextOptionsExpiration returns the next third Friday for options expiration:
// this month's if we haven't reached the expiration week yet, otherwise next
// month's
func NextOptionsExpiration(today time.Time) time.Time {
	y, m, d := today.Date()
	today = time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	thirdFriday := ThirdFriday(y, m, today.Location())
	weekStart := thirdFriday.AddDate(0, 0, -7)
	if today.Before(weekStart) {
		return thirdFriday
	}
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, today.Location())
	return ThirdFriday(next.Year(), next.Month(), today.Location())
}

// ParseExpirationDate parses a YYYY-MM-DD expiration date
func ParseExpirationDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, models.NewInvalidInputError("expiration_date", s, "must be YYYY-MM-DD")
	}
	return t, nil
}

// YearsToExpiration counts whole calendar days from today to expiry on an
// ACT/365 basis
func YearsToExpiration(today, expiry time.Time) float64 {
	y, m, d := today.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	y, m, d = expiry.Date()
	to := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return to.Sub(from).Hours() / 24 / DaysPerYear
}
