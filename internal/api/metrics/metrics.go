// Package metrics defines the custom Prometheus metrics of the task board
// API. Metrics register with the default registry on import and are exposed
// on /metrics by the router.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/taskboard/task-manager/internal/core/domain"
)

const namespace = "taskmanager"

// Operation label values.
const (
	OpRegister   = "register"
	OpLogin      = "login"
	OpCreateUser = "create_user"
	OpListUsers  = "list_users"
)

// HTTPMiddleware records request count, latency and sizes labelled by code,
// method, host and route (taskmanager_requests_total and friends). Its
// collectors register with the default registry on first use, so every
// router built in the process shares them.
var HTTPMiddleware = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware(namespace)
})

// AuthOperationsTotal counts auth operations.
// Labels:
//   - operation: register, login, create_user, list_users
//   - result: success, invalid_credentials, conflict, forbidden, throttled, invalid, not_found, error
var AuthOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_operations_total",
		Help:      "Total number of authentication and user management operations, by result.",
	},
	[]string{"operation", "result"},
)

// AuthOperationDuration is dominated by bcrypt for register, login and create_user.
var AuthOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_operation_duration_seconds",
		Help:      "Duration of authentication and user management operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"operation"},
)

// UsersCreatedTotal counts new accounts.
// Labels:
//   - role: admin, gestor, colaborador
//   - origin: "register" (self-service) or "admin"
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of user accounts created, by role and origin.",
	},
	[]string{"role", "origin"},
)

// ObserveAuth records the outcome and duration of one operation.
func ObserveAuth(operation string, start time.Time, err error) {
	AuthOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	AuthOperationsTotal.WithLabelValues(operation, Result(err)).Inc()
}

// Result maps an operation error to its result label.
func Result(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return "conflict"
	case errors.Is(err, domain.ErrAuthorization):
		return "forbidden"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}
