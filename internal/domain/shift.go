package domain

import (
	"fmt"
	"time"
)

// Unit codes used by the roster. Shifts may carry codes outside this list;
// the criticality table in the configuration decides which ones escalate.
const (
	UnitICU           = "ICU"
	UnitNICU          = "NICU"
	UnitEmergency     = "GAWAT_DARURAT"
	UnitInpatient     = "RAWAT_INAP"
	UnitOutpatient    = "RAWAT_JALAN"
	UnitLaboratory    = "LABORATORIUM"
	UnitPharmacy      = "FARMASI"
	UnitRadiology     = "RADIOLOGI"
	UnitNutrition     = "GIZI"
	UnitAdministration = "GEDUNG_ADMINISTRASI"
)

type Shift struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"ownerID"`
	UnitCode  string    `json:"unitCode"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"` // "15:04:05"
	EndTime   string    `json:"endTime"`   // "15:04:05"
	CreatedAt time.Time `json:"createdAt"`
	Version   int32     `json:"-"`
}

// StartsAt combines the shift date with its start-of-window clock time.
func (s *Shift) StartsAt() (time.Time, error) {
	clock, err := time.Parse("15:04:05", s.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("shift %d has a malformed start time: %w", s.ID, err)
	}
	return time.Date(
		s.Date.Year(), s.Date.Month(), s.Date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(),
		0, s.Date.Location(),
	), nil
}
