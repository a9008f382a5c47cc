package fleet

// Contractual and cost constants shared by the evaluator, the cost engine
// and the validation gate. Monetary values are PLN.
const (
	// MaxOvermileageKm is the universal allowance on top of the
	// proportional lease limit. Driving past limit+allowance is a hard
	// violation.
	MaxOvermileageKm = 300

	// OvermileageCostPerKm is charged for every km inside the allowance.
	OvermileageCostPerKm = 0.92

	// Repositioning cost components: flat relocation fee, per-km rate and
	// per-hour driver rate at the empty-truck reference speed.
	RepositionBaseCost    = 1000.0
	RepositionCostPerKm   = 1.0
	RepositionCostPerHour = 150.0
	EmptySpeedKmh         = 80.0

	// SwapCooldownDays is the minimum time between two swap events on the
	// same vehicle.
	SwapCooldownDays = 90

	// ServiceBlockHours is the length of a maintenance block window.
	ServiceBlockHours = 48

	// ServiceToleranceKm widens the service interval in both directions:
	// "needs service" starts tolerance km before the interval, and the
	// validation gate only errors tolerance km past it.
	ServiceToleranceKm = 1000

	// HighMileageThresholdKm separates standard 12-month leases from
	// 3-year high-mileage leases.
	HighMileageThresholdKm = 200000

	longLeaseMonths     = 36
	standardLeaseMonths = 12
)

// Fallback used when a location pair is missing from the distance table.
const (
	DefaultDistanceKm = 300.0
	DefaultTimeHours  = 5.0 / 60.0
)

// LocationUnknown marks a vehicle whose current position is unconstrained;
// such vehicles never incur repositioning.
const LocationUnknown = -1
