package task

import (
	"time"

	"github.com/gemtrade/marketplace/src/utils/config"
)

// Watches over a task tree, restarts it when the isOK check fails
type Watchdog struct {
	*Task

	taskFunc func() *Task
	isOK     func() bool

	watched *Task
}

func NewWatchdog(config *config.Config) (self *Watchdog) {
	self = new(Watchdog)

	self.Task = NewTask(config, "watchdog").
		WithOnBeforeStart(self.startWatched).
		WithPeriodicSubtaskFunc(time.Minute, self.check).
		WithOnStop(func() {
			if self.watched != nil {
				self.watched.Stop()
			}
		})

	return
}

// Function that creates the task tree to be watched
func (self *Watchdog) WithTask(f func() *Task) *Watchdog {
	self.taskFunc = f
	return self
}

func (self *Watchdog) WithIsOK(f func() bool) *Watchdog {
	self.isOK = f
	return self
}

func (self *Watchdog) startWatched() (err error) {
	self.watched = self.taskFunc()
	return self.watched.Start()
}

func (self *Watchdog) check() (err error) {
	if self.isOK == nil || self.isOK() {
		return
	}

	self.Log.Warn("Health check failed, restarting watched task")

	self.watched.StopWait()

	return self.startWatched()
}
