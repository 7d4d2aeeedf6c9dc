package cmd

import (
	"github.com/gemtrade/marketplace/src/market"
	"github.com/gemtrade/marketplace/src/utils/logger"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the market gateway, sweeper and event publisher",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := market.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished serve command")
		applicationCtxCancel()
		return
	},
}
