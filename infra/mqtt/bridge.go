package mqtt

import (
	"context"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	"github.com/PercyRoc/CangFenBao-sub014/infra/logger"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

// StartEgress subscribes to the event bus and republishes package reports
// and connectivity transitions to the collaborator topics. It stops when
// the context is canceled.
func StartEgress(ctx context.Context, bus eventbus.EventBus, client *PahoClient, log logger.Logger) {
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.DispatchEvent:
					if err := client.PublishReport(e.Report); err != nil {
						log.Errorf("publish report %s: %v", e.Report.PackageID, err)
					}
				case events.ConnectionEvent:
					if err := client.PublishStatus(e); err != nil {
						log.Errorf("publish status %s: %v", e.Device, err)
					}
				}
			}
		}
	}()
}
