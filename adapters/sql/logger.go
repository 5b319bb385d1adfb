package sql

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SQLLogger logs statements with their duration and row counts at debug level
type SQLLogger struct {
	log     logrus.FieldLogger
	enabled bool
	mu      sync.RWMutex
}

// NewSQLLogger creates a new SQL logger
func NewSQLLogger(log logrus.FieldLogger, enabled bool) *SQLLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SQLLogger{
		log:     log.WithField("component", "sql"),
		enabled: enabled,
	}
}

// IsEnabled returns whether SQL logging is enabled
func (l *SQLLogger) IsEnabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

// SetEnabled enables or disables SQL logging
func (l *SQLLogger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *SQLLogger) entry(query string, args []any, duration time.Duration) *logrus.Entry {
	fields := logrus.Fields{"ms": fmt.Sprintf("%.2f", float64(duration.Nanoseconds())/1e6)}
	if len(args) > 0 {
		fields["args"] = l.formatArgs(args)
	}
	return l.log.WithFields(fields).WithField("query", l.formatQuery(query))
}

// LogQuery logs a SELECT query with execution time and row count
func (l *SQLLogger) LogQuery(query string, args []any, duration time.Duration, rowCount int) {
	if !l.IsEnabled() {
		return
	}
	l.entry(query, args, duration).WithField("rows", rowCount).Debug("query")
}

// LogExec logs an INSERT/UPDATE/DELETE query with execution time and affected rows
func (l *SQLLogger) LogExec(query string, args []any, duration time.Duration, result sql.Result) {
	if !l.IsEnabled() {
		return
	}
	entry := l.entry(query, args, duration)
	if result != nil {
		if affected, err := result.RowsAffected(); err == nil {
			entry = entry.WithField("rows", affected)
		}
	}
	entry.Debug("exec")
}

// LogError logs a query that resulted in an error
func (l *SQLLogger) LogError(query string, args []any, duration time.Duration, err error) {
	if !l.IsEnabled() {
		return
	}
	l.entry(query, args, duration).WithError(err).Warn("query failed")
}

// formatQuery collapses whitespace so multi-line statements log on one line
func (l *SQLLogger) formatQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// formatArgs formats the query arguments for logging
func (l *SQLLogger) formatArgs(args []any) string {
	formatted := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case string:
			formatted = append(formatted, fmt.Sprintf("%q", v))
		case nil:
			formatted = append(formatted, "NULL")
		case time.Time:
			formatted = append(formatted, v.Format(time.RFC3339))
		default:
			formatted = append(formatted, fmt.Sprintf("%v", v))
		}
	}
	return "[" + strings.Join(formatted, ", ") + "]"
}
