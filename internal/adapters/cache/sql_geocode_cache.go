package cache

import (
	"context"
	"database/sql"
	"errors"
	"fleet-route-service/internal/domain"
	"fleet-route-service/internal/platform/obs"
	"fleet-route-service/internal/ports"
	"fmt"
	"time"
)

// SQLGeocodeCache keeps forward geocoding results in Postgres, keyed by the
// normalized address. Entries older than maxAge are treated as misses so
// moved or renamed addresses eventually get looked up again.
type SQLGeocodeCache struct {
	db     *sql.DB
	maxAge time.Duration
}

// NewSQLGeocodeCache returns a cache over db. maxAge <= 0 disables expiry.
func NewSQLGeocodeCache(db *sql.DB, maxAge time.Duration) *SQLGeocodeCache {
	return &SQLGeocodeCache{db: db, maxAge: maxAge}
}

func (s *SQLGeocodeCache) Lookup(ctx context.Context, address string) (_ ports.GeocodeResult, _ bool, err error) {
	defer obs.Time(ctx, "geocode.cache.Lookup")(&err)

	if s.db == nil {
		return ports.GeocodeResult{}, false, errors.New("geocode cache lookup: db is nil")
	}

	// A zero interval means "any age".
	var res ports.GeocodeResult
	err = s.db.QueryRowContext(ctx, `
	SELECT lat, lng, formatted_address
	FROM geocode_cache
	WHERE address = $1
	  AND ($2::bigint = 0 OR cached_at > now() - make_interval(secs => $2::bigint));
	`, address, int64(s.maxAge.Seconds())).Scan(&res.Point.Lat, &res.Point.Lng, &res.FormattedAddress)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ports.GeocodeResult{}, false, nil
	case err != nil:
		return ports.GeocodeResult{}, false, fmt.Errorf("geocode cache lookup %q: %w", address, err)
	}
	return res, true, nil
}

// Store upserts the result for address and refreshes its age.
func (s *SQLGeocodeCache) Store(ctx context.Context, address string, res ports.GeocodeResult) (err error) {
	defer obs.Time(ctx, "geocode.cache.Store")(&err)

	if s.db == nil {
		return errors.New("geocode cache store: db is nil")
	}
	if address == "" {
		return &domain.ValidationError{Field: "address", Reason: "must be non-empty"}
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lng, formatted_address, cached_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
	    lng = EXCLUDED.lng,
	    formatted_address = EXCLUDED.formatted_address,
	    cached_at = EXCLUDED.cached_at;
	`, address, res.Point.Lat, res.Point.Lng, res.FormattedAddress)
	if err != nil {
		return fmt.Errorf("geocode cache store %q: %w", address, err)
	}
	return nil
}
