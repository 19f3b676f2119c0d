package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/infrabrasil/vazios/internal/scorer"
)

// Validate checks the fields a command needs. Section names match the
// cobra commands that call it: "store", "scoring", "recalc" and "serve".
// Unknown sections only get the store check.
func (c *Config) Validate(section string) error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres (got %q)", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}

	switch section {
	case "scoring":
		errs = append(errs, c.scoringErrors()...)
	case "recalc":
		errs = append(errs, c.scoringErrors()...)
		errs = append(errs, c.recalcErrors()...)
	case "serve":
		errs = append(errs, c.scoringErrors()...)
		errs = append(errs, c.recalcErrors()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst <= 0 {
			errs = append(errs, "server.rate_burst must be > 0 when rate_limit is set")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) scoringErrors() []string {
	if err := scorer.ValidateParameters(c.Scoring.Parameters()); err != nil {
		return []string{err.Error()}
	}
	return nil
}

func (c *Config) recalcErrors() []string {
	var errs []string
	if c.Recalc.AssignRadiusKM < 0 {
		errs = append(errs, "recalc.assign_radius_km must be >= 0")
	}
	if c.Recalc.Workers <= 0 {
		errs = append(errs, "recalc.workers must be > 0")
	}
	if c.Recalc.IntervalMins < 0 {
		errs = append(errs, "recalc.interval_mins must be >= 0")
	}
	return errs
}
