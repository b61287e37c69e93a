package codec

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by the framing layer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	framesWritten         *prometheus.CounterVec
	framesRead            *prometheus.CounterVec
	framesSkipped         prometheus.Counter
	unknownDiscriminators *prometheus.CounterVec
	shortfalls            prometheus.Counter
	shortfallBytes        prometheus.Counter
}

// NewMetrics creates the codec collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		framesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cerberus_codec_frames_written_total",
				Help: "Total number of frames written, by discriminator",
			},
			[]string{"code"},
		),

		framesRead: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cerberus_codec_frames_read_total",
				Help: "Total number of frames materialized, by discriminator",
			},
			[]string{"code"},
		),

		framesSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cerberus_codec_frames_skipped_total",
				Help: "Total number of frames skipped without materializing",
			},
		),

		unknownDiscriminators: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cerberus_codec_unknown_discriminators_total",
				Help: "Total number of frames carrying an unbound discriminator",
			},
			[]string{"code"},
		),

		shortfalls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cerberus_codec_frame_shortfalls_total",
				Help: "Total number of frames whose builder consumed less than declared",
			},
		),

		shortfallBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cerberus_codec_frame_shortfall_bytes_total",
				Help: "Total number of trailing frame bytes skipped after a shortfall",
			},
		),
	}
}

func codeLabel(code Discriminator) string {
	return strconv.Itoa(int(code))
}

func (m *Metrics) recordWrite(code Discriminator) {
	if m == nil {
		return
	}
	m.framesWritten.WithLabelValues(codeLabel(code)).Inc()
}

func (m *Metrics) recordRead(code Discriminator) {
	if m == nil {
		return
	}
	m.framesRead.WithLabelValues(codeLabel(code)).Inc()
}

func (m *Metrics) recordSkip() {
	if m == nil {
		return
	}
	m.framesSkipped.Inc()
}

func (m *Metrics) recordUnknown(code Discriminator) {
	if m == nil {
		return
	}
	m.unknownDiscriminators.WithLabelValues(codeLabel(code)).Inc()
}

func (m *Metrics) recordShortfall(missing int64) {
	if m == nil {
		return
	}
	m.shortfalls.Inc()
	m.shortfallBytes.Add(float64(missing))
}
