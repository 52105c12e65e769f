package httputil

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 50
	maxLimit     = 100
)

// ParsePagination safely parses and validates offset and limit query
// parameters. Offset defaults to 0, limit to 50 with a cap of 100.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		return 0, 0, fmt.Errorf("invalid offset parameter: must be a non-negative integer")
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, 0, fmt.Errorf("invalid limit parameter: must be between 1 and %d", maxLimit)
	}

	return offset, limit, nil
}

// ParseTimeWindow parses an optional pair of RFC3339 time-filter query
// parameters. Absent parameters yield nil bounds; present ones are converted
// to UTC. Both boundaries are inclusive, and the lower bound must not come
// after the upper one.
func ParseTimeWindow(c *gin.Context, fromParam, toParam string) (*time.Time, *time.Time, error) {
	parse := func(name string) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", name)
		}
		utcTime := parsed.UTC()
		return &utcTime, nil
	}

	from, err := parse(fromParam)
	if err != nil {
		return nil, nil, err
	}
	to, err := parse(toParam)
	if err != nil {
		return nil, nil, err
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%s must be before or equal to %s", fromParam, toParam)
	}

	return from, to, nil
}
