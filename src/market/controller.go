package market

import (
	"github.com/gemtrade/marketplace/src/mysterybox"
	"github.com/gemtrade/marketplace/src/payment"
	"github.com/gemtrade/marketplace/src/utils/config"
	"github.com/gemtrade/marketplace/src/utils/currency"
	"github.com/gemtrade/marketplace/src/utils/currency/x402"
	"github.com/gemtrade/marketplace/src/utils/item"
	"github.com/gemtrade/marketplace/src/utils/model"
	"github.com/gemtrade/marketplace/src/utils/monitoring"
	monitor_market "github.com/gemtrade/marketplace/src/utils/monitoring/market"
	"github.com/gemtrade/marketplace/src/utils/publisher"
	"github.com/gemtrade/marketplace/src/utils/storage"
	"github.com/gemtrade/marketplace/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Main class that orchestrates the market core.
// Sets up storage, payment settlement and the REST surface.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)

	self.Task = task.NewTask(config, "controller")

	monitor := monitor_market.NewMonitor().
		WithMaxHistorySize(30)

	monitoringServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	watched := func() *task.Task {
		db, err := model.NewConnection(self.Ctx, self.Config, "market")
		if err != nil {
			panic(err)
		}

		store := storage.NewGorm(db)

		currencyAdapter := newCurrencyAdapter(config)

		itemAdapter := item.NewGem()

		settlement := payment.NewSettlement(config).
			WithStorage(store).
			WithCurrencyAdapter(currencyAdapter).
			WithMonitor(monitor)

		events := make(chan *model.MarketEvent, 100)

		manager := NewManager(config).
			WithStorage(store).
			WithSettlement(settlement).
			WithItemAdapter(itemAdapter).
			WithMonitor(monitor).
			WithEventChannel(events)

		engine := mysterybox.NewEngine(config).
			WithStorage(store).
			WithSettlement(settlement).
			WithItemAdapter(itemAdapter).
			WithMonitor(monitor).
			WithEventsChannel(events)

		gateway := NewServer(config).
			WithManager(manager).
			WithEngine(engine).
			WithCurrency(currencyAdapter).
			WithMonitor(monitor)

		sweeper := NewSweeper(config).
			WithManager(manager).
			WithMonitor(monitor)

		watched := task.NewTask(config, "watched").
			WithSubtask(gateway.Task).
			WithSubtask(sweeper.Task)

		if config.Redis.Enabled {
			redisPublisher := publisher.NewRedisPublisher[*model.MarketEvent](config, "event-publisher").
				WithInputChannel(events).
				WithMonitor(monitor)
			watched = watched.WithSubtask(redisPublisher.Task)
		}

		return watched
	}

	watchdog := task.NewWatchdog(config).
		WithTask(watched).
		WithIsOK(monitor.IsOK)

	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(monitoringServer.Task).
		WithSubtask(watchdog.Task)

	return
}

func newCurrencyAdapter(conf *config.Config) currency.Adapter {
	switch conf.Currency.Variant {
	case config.CurrencyVariantX402:
		return x402.NewClient(&conf.Currency)
	default:
		return currency.NewMock(&conf.Currency)
	}
}
