// Package fleet holds the pure domain model: vehicles with derived
// contractual attributes, route assignments, the symmetric distance table
// and the per-period solution snapshot. Nothing in this package touches a
// clock, the network or storage; every time-dependent derivation takes the
// reference instant as an argument so score and cost computations stay
// reproducible.
package fleet

import "time"

// Vehicle is a leased fleet truck. Fields mirror the external vehicle
// record plus the accumulated and governance state threaded between
// optimization periods.
type Vehicle struct {
	ID           int
	Registration string
	Brand        string

	CurrentOdometerKm int
	CurrentLocationID int // LocationUnknown when unconstrained

	AnnualLimitKm int
	LeaseStart    time.Time // zero when unknown

	CurrentYearKm int

	LastSwap           time.Time // zero when never swapped
	ServiceBlockedTill time.Time // zero when not blocked
	LastServiceKm      int
}

// LongTermLease reports whether the vehicle is on a 3-year high-mileage
// contract rather than a standard 12-month one.
func (v *Vehicle) LongTermLease() bool {
	return v.AnnualLimitKm > HighMileageThresholdKm
}

// ProportionalLimit is the share of the annual limit earned by elapsed
// lease time at now. Long-term leases accrue linearly over 36 months;
// standard leases over 12, restarting each completed 12-month cycle.
// Zero before lease start, the full limit once the cycle completes.
func (v *Vehicle) ProportionalLimit(now time.Time) int {
	if v.LeaseStart.IsZero() {
		return v.AnnualLimitKm
	}
	months := monthsBetween(v.LeaseStart, now)
	if months <= 0 {
		return 0
	}
	if v.LongTermLease() {
		if months >= longLeaseMonths {
			return v.AnnualLimitKm
		}
		return int(float64(v.AnnualLimitKm) / longLeaseMonths * float64(months))
	}
	if months >= standardLeaseMonths {
		inCycle := months % standardLeaseMonths
		if inCycle == 0 {
			return v.AnnualLimitKm
		}
		return int(float64(v.AnnualLimitKm) / standardLeaseMonths * float64(inCycle))
	}
	return int(float64(v.AnnualLimitKm) / standardLeaseMonths * float64(months))
}

// MaxAllowedKm is the proportional limit plus the overmileage allowance.
func (v *Vehicle) MaxAllowedKm(now time.Time) int {
	return v.ProportionalLimit(now) + MaxOvermileageKm
}

// AvailableKm is the remaining slack before the vehicle hits its max
// allowed km, never negative.
func (v *Vehicle) AvailableKm(now time.Time) int {
	if avail := v.MaxAllowedKm(now) - v.CurrentYearKm; avail > 0 {
		return avail
	}
	return 0
}

// ServiceIntervalKm is the brand-dependent maintenance interval.
func (v *Vehicle) ServiceIntervalKm() int {
	switch v.Brand {
	case "DAF", "Scania":
		return 120000
	default:
		return 110000
	}
}

// KmSinceService is the odometer distance since the last recorded service.
func (v *Vehicle) KmSinceService() int {
	return v.CurrentOdometerKm - v.LastServiceKm
}

// NeedsService reports the vehicle is within tolerance of its service
// interval.
func (v *Vehicle) NeedsService() bool {
	return v.KmSinceService() >= v.ServiceIntervalKm()-ServiceToleranceKm
}

// CriticalService reports the vehicle is at or past its service interval.
func (v *Vehicle) CriticalService() bool {
	return v.KmSinceService() >= v.ServiceIntervalKm()
}

// CanSwap reports whether the vehicle may take part in a swap at now:
// the 90-day cooldown since the last swap must have elapsed and the
// vehicle must not sit inside a service block window.
func (v *Vehicle) CanSwap(now time.Time) bool {
	if !v.LastSwap.IsZero() {
		if now.Sub(v.LastSwap) < SwapCooldownDays*24*time.Hour {
			return false
		}
	}
	return v.ServiceBlockedTill.IsZero() || now.After(v.ServiceBlockedTill)
}

// monthsBetween counts whole calendar months from from to to, negative
// when to precedes from. Month-end starts clamp rather than roll over,
// so Jan 31 to Feb 28 is one whole month.
func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return -monthsBetween(to, from)
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months > 0 && addMonthsClamped(from, months).After(to) {
		months--
	}
	return months
}

// addMonthsClamped advances whole months, clamping the day to the target
// month's length. AddDate would normalize Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
