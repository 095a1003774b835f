package metrics

import (
	"context"

	"github.com/PercyRoc/CangFenBao-sub014/core/events"
	coremetrics "github.com/PercyRoc/CangFenBao-sub014/core/metrics"
	"github.com/PercyRoc/CangFenBao-sub014/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// dispatch, connectivity and calibration events. It stops when the
// context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
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
					_ = sink.RecordDispatch(coremetrics.DispatchRecord{
						PackageID: e.Report.PackageID,
						Outcome:   e.Report.Outcome,
						Chute:     e.Report.Chute,
						Latency:   e.Report.Latency,
						Time:      e.Report.Time,
					})
				case events.ConnectionEvent:
					if r, ok := sink.(coremetrics.ConnectionRecorder); ok {
						_ = r.RecordConnection(coremetrics.ConnectionRecord{
							Device:    e.Device,
							Connected: e.Connected,
							Time:      e.Time,
						})
					}
				case events.CalibrationEvent:
					if r, ok := sink.(coremetrics.CalibrationRecorder); ok {
						_ = r.RecordCalibration(coremetrics.CalibrationRecord{
							Trigger: e.Trigger,
							Sort:    e.Sort,
							Elapsed: e.Elapsed,
							Time:    e.Time,
						})
					}
				}
			}
		}
	}()
}
