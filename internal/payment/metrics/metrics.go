// Package metrics exposes Prometheus collectors for the payment flow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InitializationsTotal counts payment-initialize attempts by outcome.
	InitializationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verigate_payment_initializations_total",
		Help: "Payment initialization attempts by outcome.",
	}, []string{"outcome"})

	// VerificationsTotal counts verify-by-reference attempts by outcome.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verigate_payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})

	// AmountInitialized sums initialized amounts in the currency's smallest
	// unit, labelled by currency.
	AmountInitialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verigate_payment_amount_initialized_total",
		Help: "Sum of initialized payment amounts in smallest currency units.",
	}, []string{"currency"})
)
