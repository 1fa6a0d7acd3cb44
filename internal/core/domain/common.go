package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/finance_sync/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

// AuditFields holds the timestamps shared by every entity.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetAudit returns the audit timestamps.
func (a AuditFields) GetAudit() AuditFields {
	return a
}

// SetAudit replaces the audit timestamps.
func (a *AuditFields) SetAudit(audit AuditFields) {
	*a = audit
}

// Stamp sets CreatedAt (when unset) and UpdatedAt on an entity.
func Stamp(e Entity, now time.Time) {
	audit := e.GetAudit()
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = now
	}
	audit.UpdatedAt = now
	e.SetAudit(audit)
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// entityValidator shares the "binding" tag with gin so HTTP binding and service validation agree.
func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
	})
	return validate
}

func validateStruct(s any) error {
	if err := entityValidator().Struct(s); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
