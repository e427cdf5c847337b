package domain

import (
	"context"
	"log/slog"
)

// LocateStates attaches coordinates to every row, resolving each distinct
// state once. A nil geocoder returns t unchanged. Lookup failures are logged
// and leave the state's rows without coordinates (graceful degradation).
func LocateStates(ctx context.Context, t Table, geocoder Geocoder, logger *slog.Logger) Table {
	if geocoder == nil {
		return t
	}

	resolved := make(map[string]*Geo)
	for _, state := range t.States() {
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.ForwardGeocode(ctx, state)
		if err != nil {
			logger.Warn("state geocoding failed", "state", state, "error", err)
			continue
		}
		if result.Lat == 0 && result.Lon == 0 {
			logger.Warn("state not found by geocoder", "state", state)
			continue
		}
		resolved[state] = &Geo{Lat: result.Lat, Lon: result.Lon}
	}

	out := t.mapRecords(func(r Record) Record {
		if g, ok := resolved[r.State]; ok {
			geo := *g
			r.Geo = &geo
		}
		return r
	})
	out.located = true
	return out
}
