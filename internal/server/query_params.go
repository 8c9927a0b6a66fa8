package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	etadomain "github.com/smallbiznis/etabridge/internal/eta/domain"
)

const dateOnlyLayout = "2006-01-02"

func parseKind(c *gin.Context) (etadomain.DocumentKind, error) {
	kind, err := etadomain.ParseKind(c.Param("kind"))
	if err != nil {
		return "", newValidationError("kind", "invalid_document_kind", "kind must be invoice or receipt")
	}
	return kind, nil
}

func parseName(c *gin.Context) (string, error) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		return "", newValidationError("name", "invalid_name", "name is required")
	}
	return name, nil
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}
