// Package metrics exposes venue activity as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/uhyunpark/matchbook/pkg/book"
	"github.com/uhyunpark/matchbook/pkg/engine"
)

const namespace = "venue"

// Metrics implements engine.Observer and counts gateway requests.
type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced   *prometheus.CounterVec
	ordersAmended  prometheus.Counter
	ordersCanceled prometheus.Counter
	trades         prometheus.Counter
	tradedQuantity prometheus.Counter
	lastPrice      prometheus.Gauge
	requests       *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,

		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders accepted into the book, by side",
		}, []string{"side"}),

		ordersAmended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_amended_total",
			Help:      "Orders replaced by amend requests",
		}),

		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_canceled_total",
			Help:      "Orders removed by cancel requests",
		}),

		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Matches executed",
		}),

		tradedQuantity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Sum of executed quantity",
		}),

		lastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_trade_price",
			Help:      "Execution price of the most recent trade",
		}),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Wire requests served, by request and response type",
		}, []string{"request", "response"}),
	}

	registry.MustRegister(
		m.ordersPlaced,
		m.ordersAmended,
		m.ordersCanceled,
		m.trades,
		m.tradedQuantity,
		m.lastPrice,
		m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) OrderPlaced(o book.Order) {
	m.ordersPlaced.WithLabelValues(o.Side.String()).Inc()
}

func (m *Metrics) OrderAmended(book.Order) {
	m.ordersAmended.Inc()
}

func (m *Metrics) TradeExecuted(t engine.Trade) {
	m.trades.Inc()
	m.tradedQuantity.Add(float64(t.Quantity))
	m.lastPrice.Set(t.Price)
}

func (m *Metrics) OrderCanceled(uint64) {
	m.ordersCanceled.Inc()
}

// RequestServed counts one gateway round trip.
func (m *Metrics) RequestServed(request, response string) {
	m.requests.WithLabelValues(request, response).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ engine.Observer = (*Metrics)(nil)
