package monitor_market

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp        *prometheus.Desc
	UpForSeconds          *prometheus.Desc
	ListingsCreated       *prometheus.Desc
	ListingsSold          *prometheus.Desc
	ListingsCancelled     *prometheus.Desc
	ListingsExpired       *prometheus.Desc
	BoxesOpened           *prometheus.Desc
	PaymentsSettled       *prometheus.Desc
	EventsPublished       *prometheus.Desc
	AverageSalesPerMinute *prometheus.Desc

	DbErrors               *prometheus.Desc
	PaymentFailures        *prometheus.Desc
	PaymentReuseRejections *prometheus.Desc
	VerificationTimeouts   *prometheus.Desc
	RaceLost               *prometheus.Desc
	GenerationFailures     *prometheus.Desc
	EventPublishFailures   *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "marketplace",
	}

	return &Collector{
		StartTimestamp:        prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:          prometheus.NewDesc("up_for_seconds", "", nil, labels),
		ListingsCreated:       prometheus.NewDesc("listings_created", "", nil, labels),
		ListingsSold:          prometheus.NewDesc("listings_sold", "", nil, labels),
		ListingsCancelled:     prometheus.NewDesc("listings_cancelled", "", nil, labels),
		ListingsExpired:       prometheus.NewDesc("listings_expired", "", nil, labels),
		BoxesOpened:           prometheus.NewDesc("boxes_opened", "", nil, labels),
		PaymentsSettled:       prometheus.NewDesc("payments_settled", "", nil, labels),
		EventsPublished:       prometheus.NewDesc("events_published", "", nil, labels),
		AverageSalesPerMinute: prometheus.NewDesc("average_sales_per_minute", "", nil, labels),

		// Errors
		DbErrors:               prometheus.NewDesc("error_db", "", nil, labels),
		PaymentFailures:        prometheus.NewDesc("error_payment", "", nil, labels),
		PaymentReuseRejections: prometheus.NewDesc("error_payment_reuse", "", nil, labels),
		VerificationTimeouts:   prometheus.NewDesc("error_verification_timeout", "", nil, labels),
		RaceLost:               prometheus.NewDesc("error_race_lost", "", nil, labels),
		GenerationFailures:     prometheus.NewDesc("error_generation", "", nil, labels),
		EventPublishFailures:   prometheus.NewDesc("error_event_publish", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.ListingsCreated
	ch <- self.ListingsSold
	ch <- self.ListingsCancelled
	ch <- self.ListingsExpired
	ch <- self.BoxesOpened
	ch <- self.PaymentsSettled
	ch <- self.EventsPublished
	ch <- self.AverageSalesPerMinute
	ch <- self.DbErrors
	ch <- self.PaymentFailures
	ch <- self.PaymentReuseRejections
	ch <- self.VerificationTimeouts
	ch <- self.RaceLost
	ch <- self.GenerationFailures
	ch <- self.EventPublishFailures
}

func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	run := &self.monitor.Report.Run.State
	state := &self.monitor.Report.Market.State
	errors := &self.monitor.Report.Market.Errors

	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(run.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(run.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListingsCreated, prometheus.CounterValue, float64(state.ListingsCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListingsSold, prometheus.CounterValue, float64(state.ListingsSold.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListingsCancelled, prometheus.CounterValue, float64(state.ListingsCancelled.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListingsExpired, prometheus.CounterValue, float64(state.ListingsExpired.Load()))
	ch <- prometheus.MustNewConstMetric(self.BoxesOpened, prometheus.CounterValue, float64(state.BoxesOpened.Load()))
	ch <- prometheus.MustNewConstMetric(self.PaymentsSettled, prometheus.CounterValue, float64(state.PaymentsSettled.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsPublished, prometheus.CounterValue, float64(state.EventsPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageSalesPerMinute, prometheus.GaugeValue, state.AverageSalesPerMinute.Load())
	ch <- prometheus.MustNewConstMetric(self.DbErrors, prometheus.CounterValue, float64(errors.DbErrors.Load()))
	ch <- prometheus.MustNewConstMetric(self.PaymentFailures, prometheus.CounterValue, float64(errors.PaymentFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.PaymentReuseRejections, prometheus.CounterValue, float64(errors.PaymentReuseRejections.Load()))
	ch <- prometheus.MustNewConstMetric(self.VerificationTimeouts, prometheus.CounterValue, float64(errors.VerificationTimeouts.Load()))
	ch <- prometheus.MustNewConstMetric(self.RaceLost, prometheus.CounterValue, float64(errors.RaceLost.Load()))
	ch <- prometheus.MustNewConstMetric(self.GenerationFailures, prometheus.CounterValue, float64(errors.GenerationFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventPublishFailures, prometheus.CounterValue, float64(errors.EventPublishFailures.Load()))
}
