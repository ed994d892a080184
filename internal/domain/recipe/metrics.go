package recipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gourmand_tool_invocations_total",
			Help: "Total number of transmit_recipe tool invocations by result status",
		},
		[]string{"tool", "status"},
	)

	transmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gourmand_transmit_duration_seconds",
			Help:    "Duration of a transmit_recipe invocation, image generation included",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		},
	)

	imagesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gourmand_images_generated_total",
			Help: "Total number of recipe images written to disk",
		},
	)
)
