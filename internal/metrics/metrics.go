// Package metrics exposes Prometheus collectors for the budget engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	expensesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panier_expenses_recorded_total",
			Help: "Total number of expenses recorded",
		},
		[]string{"origin"},
	)

	budgetsProvisioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panier_budgets_provisioned_total",
			Help: "Total number of budgets created, by provisioning mode",
		},
		[]string{"mode"},
	)

	alertsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "panier_budget_alerts_fired_total",
			Help: "Total number of budget threshold alerts fired",
		},
		[]string{"kind"},
	)
)

// RecordExpense counts a recorded expense by origin ("manual" or "product").
func RecordExpense(origin string) {
	expensesRecorded.WithLabelValues(origin).Inc()
}

// RecordBudgetProvisioned counts a budget creation by mode ("explicit" or "rollover").
func RecordBudgetProvisioned(mode string) {
	budgetsProvisioned.WithLabelValues(mode).Inc()
}

// RecordAlertFired counts a fired threshold alert by kind.
func RecordAlertFired(kind string) {
	alertsFired.WithLabelValues(kind).Inc()
}
