package workflow

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/models"
)

const autoCloseLockKey = "worker:auto-close-campaigns"

// CampaignAutoCloser periodically sweeps open campaigns and closes the
// overdue ones. One failing campaign is logged and skipped; the sweep
// continues.
type CampaignAutoCloser struct {
	Interval time.Duration
	DryRun   bool
	logger   *logrus.Logger
}

func NewCampaignAutoCloser(interval time.Duration) *CampaignAutoCloser {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CampaignAutoCloser{
		Interval: interval,
		logger:   config.GetLogger(),
	}
}

// Run blocks until the context is cancelled, sweeping once per interval.
func (w *CampaignAutoCloser) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx, time.Now().UTC()); err != nil {
				config.LogError(w.logger, "workflow", "CampaignAutoCloser.Run", "sweep failed", nil, err)
			}
		}
	}
}

// Sweep closes every open campaign that is past due on the given date and
// returns how many were closed. With redis available, concurrent sweeps
// across replicas are single-flighted via a best-effort lock.
func (w *CampaignAutoCloser) Sweep(ctx context.Context, onDate time.Time) (int, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, autoCloseLockKey, w.Interval/2, nil)
		if err != nil {
			if err == redislock.ErrNotObtained {
				return 0, nil
			}
			return 0, err
		}
		defer lock.Release(ctx)
	}

	campaigns, err := models.ListRequestCampaigns(ctx, models.CampaignStatusOpen)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, campaign := range campaigns {
		if !campaign.ShouldAutoClose(onDate) {
			continue
		}
		if w.DryRun {
			w.logger.WithFields(logrus.Fields{
				"module":   "workflow",
				"campaign": campaign.ID,
				"name":     campaign.Name,
			}).Info("would auto-close campaign")
			closed++
			continue
		}
		if _, err := models.CloseRequestCampaign(ctx, campaign.ID, false); err != nil {
			config.LogError(w.logger, "workflow", "CampaignAutoCloser.Sweep",
				"failed to close campaign", map[string]interface{}{"campaign_id": campaign.ID}, err)
			continue
		}
		w.logger.WithFields(logrus.Fields{
			"module":   "workflow",
			"campaign": campaign.ID,
			"name":     campaign.Name,
		}).Info("auto-closed campaign")
		closed++
	}
	return closed, nil
}
