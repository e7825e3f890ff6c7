package signals

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// NotifySignals calls cancel on SIGINT or SIGTERM and returns once ctx is done
func NotifySignals(ctx context.Context, cancel context.CancelFunc) {
	signals := make(chan os.Signal, 1)
	defer signal.Stop(signals)

	signal.Notify(signals, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
	for {
		select {
		case <-ctx.Done():
			zap.L().Debug("end of system signal handling")
			return

		case sig := <-signals:
			zap.L().Info("signal received", zap.String("signal", sig.String()))
			if sig == syscall.SIGHUP {
				// nohup
				continue
			}
			cancel()
		}
	}
}
