package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"fleetopt/internal/fleet"
	"fleetopt/internal/model"
)

// Postgres persists fleet data and result documents. The fleet tables are
// populated from operator spreadsheet exports, so numeric columns are text
// and may carry "N/A", blanks or free text; loaders parse tolerantly and
// skip records that are unusable, logging each skip.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS vehicles (
    id                   text PRIMARY KEY,
    registration         text NOT NULL,
    brand                text,
    current_odometer_km  text,
    current_location     text,
    annual_limit_km      text,
    lease_start          date,
    current_year_km      text,
    last_swap            date,
    service_blocked_till timestamptz,
    last_service_km      text
);
CREATE TABLE IF NOT EXISTS routes (
    id         text PRIMARY KEY,
    start_time timestamptz NOT NULL,
    end_time   timestamptz NOT NULL
);
CREATE TABLE IF NOT EXISTS segments (
    route_id       text NOT NULL REFERENCES routes(id),
    seq            int  NOT NULL,
    start_location text,
    end_location   text,
    distance_km    text,
    PRIMARY KEY (route_id, seq)
);
CREATE TABLE IF NOT EXISTS location_relations (
    location_a  text NOT NULL,
    location_b  text NOT NULL,
    distance_km text,
    time_hours  text,
    PRIMARY KEY (location_a, location_b)
);
CREATE TABLE IF NOT EXISTS optimization_results (
    month      text PRIMARY KEY,
    doc        jsonb NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
`

// Migrate creates the schema when absent.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) LoadVehicles(ctx context.Context) ([]fleet.Vehicle, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, registration, COALESCE(brand,''),
        current_odometer_km, current_location, annual_limit_km, lease_start,
        current_year_km, last_swap, service_blocked_till, last_service_km
        FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}
	defer rows.Close()

	out := []fleet.Vehicle{}
	for rows.Next() {
		var id, reg, brand string
		var odo, loc, limit, yearKm, svcKm sql.NullString
		var leaseStart, lastSwap, blockedTill sql.NullTime
		if err := rows.Scan(&id, &reg, &brand, &odo, &loc, &limit, &leaseStart, &yearKm, &lastSwap, &blockedTill, &svcKm); err != nil {
			return nil, err
		}
		vid := safeInt(id, -1)
		if vid < 0 || strings.TrimSpace(reg) == "" {
			log.Warn().Str("component", "store").Str("vehicle", id).Msg("skipping vehicle: bad id or registration")
			continue
		}
		v := fleet.Vehicle{
			ID:                vid,
			Registration:      strings.TrimSpace(reg),
			Brand:             strings.TrimSpace(brand),
			CurrentOdometerKm: safeInt(odo.String, 0),
			CurrentLocationID: safeInt(loc.String, fleet.LocationUnknown),
			AnnualLimitKm:     safeInt(limit.String, 0),
			CurrentYearKm:     safeInt(yearKm.String, 0),
			LastServiceKm:     safeInt(svcKm.String, 0),
		}
		if leaseStart.Valid {
			v.LeaseStart = leaseStart.Time
		}
		if lastSwap.Valid {
			v.LastSwap = lastSwap.Time
		}
		if blockedTill.Valid {
			v.ServiceBlockedTill = blockedTill.Time
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LoadRoutes aggregates segments per route: distance is the segment sum,
// start and end locations come from the first and last segment. Routes
// with no usable segments are skipped.
func (p *Postgres) LoadRoutes(ctx context.Context, start time.Time, days int) ([]fleet.RouteAssignment, error) {
	end := start.AddDate(0, 0, days)
	rows, err := p.db.QueryContext(ctx, `SELECT r.id, r.start_time, r.end_time,
        s.seq, s.start_location, s.end_location, s.distance_km
        FROM routes r JOIN segments s ON s.route_id = r.id
        WHERE r.start_time >= $1 AND r.start_time < $2
        ORDER BY r.id, s.seq`, start, end)
	if err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	defer rows.Close()

	byRoute := map[int]*fleet.RouteAssignment{}
	for rows.Next() {
		var id, startLoc, endLoc, dist sql.NullString
		var seq int
		var startTime, endTime time.Time
		if err := rows.Scan(&id, &startTime, &endTime, &seq, &startLoc, &endLoc, &dist); err != nil {
			return nil, err
		}
		rid := safeInt(id.String, -1)
		if rid < 0 {
			log.Warn().Str("component", "store").Str("route", id.String).Msg("skipping route: bad id")
			continue
		}
		km := safeFloat(dist.String, 0)
		if km <= 0 {
			log.Warn().Str("component", "store").Int("route", rid).Int("seq", seq).Msg("skipping segment: bad distance")
			continue
		}
		r, ok := byRoute[rid]
		if !ok {
			r = &fleet.RouteAssignment{
				RouteID:         rid,
				StartLocationID: safeInt(startLoc.String, fleet.LocationUnknown),
				StartTime:       startTime,
				EndTime:         endTime,
			}
			byRoute[rid] = r
		}
		r.DistanceKm += km
		r.EndLocationID = safeInt(endLoc.String, fleet.LocationUnknown)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]fleet.RouteAssignment, 0, len(byRoute))
	for _, r := range byRoute {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].RouteID < out[j].RouteID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (p *Postgres) LoadDistances(ctx context.Context) (fleet.DistanceTable, error) {
	table := fleet.NewDistanceTable()
	rows, err := p.db.QueryContext(ctx, `SELECT location_a, location_b, distance_km, time_hours FROM location_relations`)
	if err != nil {
		return table, fmt.Errorf("load distances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a, b, dist, hours sql.NullString
		if err := rows.Scan(&a, &b, &dist, &hours); err != nil {
			return table, err
		}
		la, lb := safeInt(a.String, -1), safeInt(b.String, -1)
		if la < 0 || lb < 0 {
			log.Warn().Str("component", "store").Str("a", a.String).Str("b", b.String).Msg("skipping relation: bad location")
			continue
		}
		table.Add(la, lb, fleet.LocationDistance{
			DistanceKm: safeFloat(dist.String, fleet.DefaultDistanceKm),
			TimeHours:  safeFloat(hours.String, fleet.DefaultTimeHours),
		})
	}
	return table, rows.Err()
}

func (p *Postgres) SavePeriodResult(ctx context.Context, res model.PeriodResult) error {
	doc, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO optimization_results (month, doc, created_at)
        VALUES ($1, $2, now())
        ON CONFLICT (month) DO UPDATE SET doc=$2, created_at=now()`, res.Month, doc)
	return err
}

func (p *Postgres) GetPeriodResult(ctx context.Context, month string) (model.PeriodResult, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM optimization_results WHERE month=$1`, month).Scan(&doc)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.PeriodResult{}, ErrNotFound
		}
		return model.PeriodResult{}, err
	}
	var res model.PeriodResult
	if err := json.Unmarshal(doc, &res); err != nil {
		return model.PeriodResult{}, err
	}
	return res, nil
}

func (p *Postgres) ListPeriodResults(ctx context.Context, year int) ([]model.PeriodResult, error) {
	q := `SELECT doc FROM optimization_results ORDER BY month`
	args := []any{}
	if year > 0 {
		q = `SELECT doc FROM optimization_results WHERE month LIKE $1 ORDER BY month`
		args = append(args, strconv.Itoa(year)+"-%")
	}
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.PeriodResult{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var res model.PeriodResult
		if err := json.Unmarshal(doc, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// safeInt parses a numeric text field that may carry blanks, "N/A" or a
// decimal rendering of an integer.
func safeInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return int(f)
	}
	return def
}

// safeFloat parses a numeric text field, accepting comma decimals.
func safeFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "n/a") {
		return def
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return f
	}
	return def
}
