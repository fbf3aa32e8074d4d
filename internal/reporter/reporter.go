package reporter

import (
	"context"
	"time"

	"github.com/cloudronix/deviceinfo/internal/client"
	"github.com/cloudronix/deviceinfo/internal/log"
	"github.com/cloudronix/deviceinfo/internal/panel"
	"github.com/cloudronix/deviceinfo/pkg/sysinfo"
)

// Sender delivers a report to a collector
type Sender interface {
	SendReport(ctx context.Context, report *client.Report) error
}

// Reporter sends panel reports to a collector
type Reporter struct {
	ctrl    *panel.Controller
	src     sysinfo.Source
	sender  Sender
	version string
	now     func() time.Time
}

// New creates a reporter
func New(ctrl *panel.Controller, src sysinfo.Source, sender Sender, version string) *Reporter {
	return &Reporter{
		ctrl:    ctrl,
		src:     src,
		sender:  sender,
		version: version,
		now:     time.Now,
	}
}

// SendOnce builds a fresh report and sends it
func (r *Reporter) SendOnce(ctx context.Context) error {
	return r.sender.SendReport(ctx, &client.Report{
		Panel:     r.ctrl.Display(),
		Build:     r.src.Build(),
		Version:   r.version,
		Timestamp: r.now().UTC(),
	})
}

// Run sends a report immediately and then every interval until ctx is done.
// Failed sends are logged and retried on the next tick.
func (r *Reporter) Run(ctx context.Context, interval time.Duration) error {
	if err := r.SendOnce(ctx); err != nil {
		log.Warn().Err(err).Msg("Report failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Reporter running")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Reporter stopped")
			return nil
		case <-ticker.C:
			if err := r.SendOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("Report failed")
			}
		}
	}
}
