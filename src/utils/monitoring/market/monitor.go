package monitor_market

import (
	"math"
	"time"

	"github.com/gemtrade/marketplace/src/utils/monitoring/report"
	"github.com/gemtrade/marketplace/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/prometheus/client_golang/prometheus"
)

// Threshold of db errors per minute above which the component is
// reported unhealthy and gets restarted by the watchdog
const maxDbErrorsPerMinute = 30

// Stores and computes market counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Sales speed
	SaleCounts *deque.Deque[uint64]

	// Db error history for the health check
	DbErrorCounts *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:    &report.RunReport{},
		Market: &report.MarketReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorSales).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorDbErrors).
		WithPeriodicSubtaskFunc(time.Minute, self.monitorUptime)
	return
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.SaleCounts = deque.New[uint64](self.historySize)
	self.DbErrorCounts = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func (self *Monitor) IsOK() bool {
	if self.DbErrorCounts.Len() < 2 {
		return true
	}
	delta := self.DbErrorCounts.Back() - self.DbErrorCounts.Front()
	perMinute := float64(delta) / float64(self.DbErrorCounts.Len())
	return perMinute < maxDbErrorsPerMinute
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure sales speed
func (self *Monitor) monitorSales() (err error) {
	loaded := self.Report.Market.State.ListingsSold.Load() +
		self.Report.Market.State.BoxesOpened.Load()
	if loaded == 0 {
		// Neglect the first 0
		return
	}

	self.SaleCounts.PushBack(loaded)
	if self.SaleCounts.Len() > self.historySize {
		self.SaleCounts.PopFront()
	}
	value := float64(self.SaleCounts.Back()-self.SaleCounts.Front()) / float64(self.SaleCounts.Len())
	self.Report.Market.State.AverageSalesPerMinute.Store(round(value))
	return
}

func (self *Monitor) monitorDbErrors() (err error) {
	self.DbErrorCounts.PushBack(self.Report.Market.Errors.DbErrors.Load())
	if self.DbErrorCounts.Len() > self.historySize {
		self.DbErrorCounts.PopFront()
	}
	return
}

func (self *Monitor) monitorUptime() (err error) {
	up := time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()
	self.Report.Run.State.UpForSeconds.Store(up)
	return
}
