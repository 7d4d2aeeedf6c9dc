package cmd

import (
	"github.com/gemtrade/marketplace/src/market"
	"github.com/gemtrade/marketplace/src/utils/logger"
	"github.com/gemtrade/marketplace/src/utils/model"
	monitor_market "github.com/gemtrade/marketplace/src/utils/monitoring/market"
	"github.com/gemtrade/marketplace/src/utils/storage"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue listings once and exit",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("sweep-cmd")

		db, err := model.NewConnection(applicationCtx, conf, "market-sweep")
		if err != nil {
			return
		}

		monitor := monitor_market.NewMonitor().
			WithMaxHistorySize(30)

		manager := market.NewManager(conf).
			WithStorage(storage.NewGorm(db)).
			WithMonitor(monitor)

		total := 0
		for {
			count, sweepErr := manager.SweepExpired(applicationCtx)
			if sweepErr != nil {
				err = sweepErr
				return
			}
			total += count

			// Batches are capped, keep going until a batch comes back empty
			if count == 0 {
				break
			}
		}

		log.WithField("count", total).Info("Expired overdue listings")
		applicationCtxCancel()
		return
	},
}
