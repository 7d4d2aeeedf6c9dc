package market

import (
	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/monitoring"
	"github.com/gemtrade/marketplace/src/utils/task"
)

// Sweeper periodically expires overdue listings
type Sweeper struct {
	*task.Task

	manager *Manager
	monitor monitoring.Monitor
}

func NewSweeper(config *config.Config) (self *Sweeper) {
	self = new(Sweeper)

	self.Task = task.NewTask(config, "sweeper").
		WithPeriodicSubtaskFunc(config.Market.SweepInterval, self.sweep)

	return
}

func (self *Sweeper) WithManager(manager *Manager) *Sweeper {
	self.manager = manager
	return self
}

func (self *Sweeper) WithMonitor(monitor monitoring.Monitor) *Sweeper {
	self.monitor = monitor
	return self
}

func (self *Sweeper) sweep() (err error) {
	var count int
	err = task.NewRetry().
		WithContext(self.Ctx).
		WithMaxElapsedTime(self.Config.Market.SweepMaxElapsedTime).
		WithMaxInterval(self.Config.Market.SweepMaxInterval).
		Run(func() error {
			var sweepErr error
			count, sweepErr = self.manager.SweepExpired(self.Ctx)
			return sweepErr
		})
	if err != nil {
		self.Log.WithError(err).Error("Failed to sweep expired listings")
		return nil
	}

	if count > 0 {
		self.Log.WithField("count", count).Info("Expired overdue listings")
	}
	return nil
}
