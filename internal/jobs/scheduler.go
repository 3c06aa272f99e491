package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"artboard/internal/config"
)

// BlobLister is the object-store surface the sweep needs.
type BlobLister interface {
	ListOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// ImageChecker reports whether an image row exists for an id.
type ImageChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Scheduler periodically deletes orphaned blobs: objects whose image row is
// gone, typically left behind by a crash between a blob upload and the
// compensating rollback. The grace period keeps it from racing in-flight
// uploads whose rows are committed moments before the blob lands.
type Scheduler struct {
	cron   *cron.Cron
	blobs  BlobLister
	images ImageChecker
	cfg    config.SweepConfig
	log    zerolog.Logger
}

func NewScheduler(blobs BlobLister, images ImageChecker, cfg config.SweepConfig, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		blobs:  blobs,
		images: images,
		cfg:    cfg,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.Schedule, s.sweepOrphans); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits briefly for a running sweep to finish.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("sweep still running at shutdown")
	}
}

func (s *Scheduler) sweepOrphans() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.cfg.GracePeriod)
	keys, err := s.blobs.ListOlderThan(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("orphan sweep list failed")
		return
	}

	removed := 0
	for _, key := range keys {
		id := key
		if dot := strings.LastIndexByte(key, '.'); dot > 0 {
			id = key[:dot]
		}

		exists, err := s.images.Exists(ctx, id)
		if err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("orphan sweep lookup failed")
			continue
		}
		if exists {
			continue
		}

		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("orphan sweep delete failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.log.Info().Int("removed", removed).Msg("orphan blobs swept")
	}
}
