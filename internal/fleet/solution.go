package fleet

import (
	"sort"
	"time"
)

// VehicleRef is the assignment→vehicle relation: either unassigned or
// bound to exactly one vehicle id. The zero value is unassigned.
type VehicleRef struct {
	id    int
	bound bool
}

// Unassigned returns the empty relation.
func Unassigned() VehicleRef { return VehicleRef{} }

// AssignedTo binds the relation to a vehicle id.
func AssignedTo(id int) VehicleRef { return VehicleRef{id: id, bound: true} }

// ID returns the bound vehicle id, ok=false when unassigned.
func (r VehicleRef) ID() (int, bool) { return r.id, r.bound }

// Assigned reports whether the relation is bound.
func (r VehicleRef) Assigned() bool { return r.bound }

// RouteAssignment is one route to be driven in the period together with
// its mutable vehicle relation. The optimizer rebinds Vehicle in place
// during search; everything else is fixed trip data.
type RouteAssignment struct {
	RouteID         int
	StartLocationID int
	EndLocationID   int
	DistanceKm      float64
	StartTime       time.Time
	EndTime         time.Time

	Vehicle VehicleRef
}

// Overlaps reports whether two assignments collide on the half-open
// [start, end) interval.
func (a *RouteAssignment) Overlaps(b *RouteAssignment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// LocationDistance is one symmetric location-pair entry.
type LocationDistance struct {
	DistanceKm float64
	TimeHours  float64
}

type pairKey struct{ a, b int }

func normPair(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// DistanceTable maps unordered location pairs to distance and travel time.
type DistanceTable struct {
	pairs map[pairKey]LocationDistance
}

func NewDistanceTable() DistanceTable {
	return DistanceTable{pairs: map[pairKey]LocationDistance{}}
}

// Add inserts a pair; lookup is unordered so A-B and B-A share one entry.
func (t DistanceTable) Add(a, b int, d LocationDistance) {
	t.pairs[normPair(a, b)] = d
}

// Between resolves a pair, falling back to (300 km, 5 min) when absent.
func (t DistanceTable) Between(a, b int) LocationDistance {
	if d, ok := t.pairs[normPair(a, b)]; ok {
		return d
	}
	return LocationDistance{DistanceKm: DefaultDistanceKm, TimeHours: DefaultTimeHours}
}

// Len returns the number of stored pairs.
func (t DistanceTable) Len() int { return len(t.pairs) }

// Solution is one period's optimization snapshot: the vehicle value range,
// the route assignments with their mutable vehicle relations, and the
// distance table. A Solution is owned by exactly one period; Clone before
// handing it to anything that mutates.
type Solution struct {
	Vehicles    []Vehicle
	Assignments []RouteAssignment
	Distances   DistanceTable

	byID map[int]int // vehicle id -> index into Vehicles
}

func NewSolution(vehicles []Vehicle, assignments []RouteAssignment, distances DistanceTable) *Solution {
	s := &Solution{Vehicles: vehicles, Assignments: assignments, Distances: distances}
	s.reindex()
	return s
}

func (s *Solution) reindex() {
	s.byID = make(map[int]int, len(s.Vehicles))
	for i := range s.Vehicles {
		s.byID[s.Vehicles[i].ID] = i
	}
}

// VehicleByID looks up a vehicle by id; nil when absent.
func (s *Solution) VehicleByID(id int) *Vehicle {
	if i, ok := s.byID[id]; ok {
		return &s.Vehicles[i]
	}
	return nil
}

// Clone deep-copies vehicles and assignments so the optimizer can mutate
// relations without leaking state across periods. The distance table is
// immutable after load and is shared.
func (s *Solution) Clone() *Solution {
	vehicles := make([]Vehicle, len(s.Vehicles))
	copy(vehicles, s.Vehicles)
	assignments := make([]RouteAssignment, len(s.Assignments))
	copy(assignments, s.Assignments)
	return NewSolution(vehicles, assignments, s.Distances)
}

// UnassignedCount counts assignments with no vehicle.
func (s *Solution) UnassignedCount() int {
	n := 0
	for i := range s.Assignments {
		if !s.Assignments[i].Vehicle.Assigned() {
			n++
		}
	}
	return n
}

// AssignedKmByVehicle sums assigned route distance per vehicle id.
func (s *Solution) AssignedKmByVehicle() map[int]float64 {
	km := map[int]float64{}
	for i := range s.Assignments {
		if id, ok := s.Assignments[i].Vehicle.ID(); ok {
			km[id] += s.Assignments[i].DistanceKm
		}
	}
	return km
}

// AssignmentsByVehicle groups assignments per vehicle id, each group
// ordered chronologically by start time (route id as tie-breaker).
func (s *Solution) AssignmentsByVehicle() map[int][]*RouteAssignment {
	groups := map[int][]*RouteAssignment{}
	for i := range s.Assignments {
		if id, ok := s.Assignments[i].Vehicle.ID(); ok {
			groups[id] = append(groups[id], &s.Assignments[i])
		}
	}
	for _, g := range groups {
		sort.Slice(g, func(i, j int) bool {
			if g[i].StartTime.Equal(g[j].StartTime) {
				return g[i].RouteID < g[j].RouteID
			}
			return g[i].StartTime.Before(g[j].StartTime)
		})
	}
	return groups
}
