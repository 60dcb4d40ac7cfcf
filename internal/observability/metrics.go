// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// ValidationActionsTotal counts explicit approve/reject decisions.
	ValidationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veridoc_validation_actions_total",
		Help: "Total number of explicit validation actions by kind",
	}, []string{"action"})

	// FlowsCreatedTotal counts validation flows created.
	FlowsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veridoc_validation_flows_created_total",
		Help: "Total number of validation flows created",
	})

	// FlowsCompletedTotal counts flows that reached full approval.
	FlowsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veridoc_validation_flows_completed_total",
		Help: "Total number of validation flows completed with approval",
	})

	// FlowsRejectedTotal counts flows terminated by a rejection.
	FlowsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veridoc_validation_flows_rejected_total",
		Help: "Total number of validation flows terminated by rejection",
	})

	// StepsAutoApprovedTotal counts steps approved implicitly by a
	// higher-order approval.
	StepsAutoApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veridoc_validation_steps_auto_approved_total",
		Help: "Total number of steps auto-approved by the hierarchy rule",
	})

	// DocumentsRegisteredTotal counts document metadata records created.
	DocumentsRegisteredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "veridoc_documents_registered_total",
		Help: "Total number of documents registered",
	})

	// PresignedURLsTotal counts pre-signed URL grants by direction.
	PresignedURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "veridoc_presigned_urls_total",
		Help: "Total number of pre-signed storage URLs issued",
	}, []string{"direction"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "veridoc_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const gormStartKey = "observability:query_start"

// InstrumentGorm registers callbacks that record latency for every query.
func InstrumentGorm(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		db.InstanceSet(gormStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			v, ok := db.InstanceGet(gormStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := db.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	if err := db.Callback().Create().Before("gorm:create").Register("observability:before_create", before); err != nil {
		return err
	}
	if err := db.Callback().Create().After("gorm:create").Register("observability:after_create", after("create")); err != nil {
		return err
	}
	if err := db.Callback().Query().Before("gorm:query").Register("observability:before_query", before); err != nil {
		return err
	}
	if err := db.Callback().Query().After("gorm:query").Register("observability:after_query", after("query")); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("observability:before_update", before); err != nil {
		return err
	}
	if err := db.Callback().Update().After("gorm:update").Register("observability:after_update", after("update")); err != nil {
		return err
	}
	if err := db.Callback().Delete().Before("gorm:delete").Register("observability:before_delete", before); err != nil {
		return err
	}
	if err := db.Callback().Delete().After("gorm:delete").Register("observability:after_delete", after("delete")); err != nil {
		return err
	}
	return nil
}
