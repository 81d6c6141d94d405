// Package validation checks optional backing services at startup.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/maskapp/mask/internal/logger"
	"go.uber.org/zap"
)

const checkTimeout = 10 * time.Second

// Check probes one service
type Check func(ctx context.Context) error

// ServiceValidator runs registered checks. A failing required service aborts
// startup; a failing optional one only logs a warning.
type ServiceValidator struct {
	required map[string]bool
	checks   map[string]Check
}

func NewServiceValidator(required []string) *ServiceValidator {
	sv := &ServiceValidator{required: map[string]bool{}, checks: map[string]Check{}}
	for _, name := range required {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			sv.required[name] = true
		}
	}
	return sv
}

func (sv *ServiceValidator) Register(name string, check Check) {
	sv.checks[name] = check
}

// Status is the outcome of one check
type Status struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// ValidateServices runs every check and fails if a required one fails or a
// required service has no check registered.
func (sv *ServiceValidator) ValidateServices(ctx context.Context) ([]Status, error) {
	for name := range sv.required {
		if _, ok := sv.checks[name]; !ok {
			return nil, fmt.Errorf("required service %q is not configured", name)
		}
	}

	names := make([]string, 0, len(sv.checks))
	for name := range sv.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	out := make([]Status, 0, len(names))
	for _, name := range names {
		st := Status{Name: name, Required: sv.required[name], OK: true}

		timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := sv.checks[name](timeoutCtx)
		cancel()

		switch {
		case err == nil:
			logger.Log.Info("Service available", zap.String("service", name))
		case st.Required:
			st.OK, st.Error = false, err.Error()
			failed = append(failed, name)
			logger.Log.Error("Required service unavailable", zap.String("service", name), zap.Error(err))
		default:
			st.OK, st.Error = false, err.Error()
			logger.Log.Warn("Optional service unavailable, running degraded", zap.String("service", name), zap.Error(err))
		}
		out = append(out, st)
	}

	if len(failed) > 0 {
		return out, fmt.Errorf("required services unavailable: %s", strings.Join(failed, ", "))
	}
	return out, nil
}
