package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// Reserved read parameters. Every other parameter is a field filter.
const (
	ParamLimit  = "limit"
	ParamCursor = "cursor"

	MaxLimit = 1000
)

// Cursor marks a position in a collection ordered by (createdAt, id).
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// After reports whether a row keyed (createdAt, id) sorts strictly after the cursor.
func (c Cursor) After(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id > c.ID
	}
	return createdAt.After(c.CreatedAt)
}

// EncodeCursor creates a base64 encoded token from a creation time and id.
func EncodeCursor(c Cursor) string {
	tokenStr := fmt.Sprintf("%s|%s", c.CreatedAt.Format(timeFormat), c.ID)
	return base64.URLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	decodedBytes, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid pagination token format (base64 decode): %v", apperrors.ErrValidation, err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Cursor{}, fmt.Errorf("%w: invalid pagination token format (split)", apperrors.ErrValidation)
	}
	createdAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: invalid pagination token format (created_at parse): %v", apperrors.ErrValidation, err)
	}
	return Cursor{CreatedAt: createdAt, ID: parts[1]}, nil
}

// Page is a parsed read request: an optional cursor, a limit (0 means unbounded) and filters.
type Page struct {
	Limit   int
	After   *Cursor
	Filters map[string]string
}

// PageFromParams splits read parameters into paging and field filters.
func PageFromParams(params map[string]string) (Page, error) {
	page := Page{Filters: make(map[string]string)}
	for key, value := range params {
		switch key {
		case ParamLimit:
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 0 {
				return Page{}, fmt.Errorf("%w: limit must be a non-negative integer", apperrors.ErrValidation)
			}
			if limit > MaxLimit {
				limit = MaxLimit
			}
			page.Limit = limit
		case ParamCursor:
			if value == "" {
				continue
			}
			cursor, err := DecodeCursor(value)
			if err != nil {
				return Page{}, err
			}
			page.After = &cursor
		default:
			page.Filters[key] = value
		}
	}
	return page, nil
}
