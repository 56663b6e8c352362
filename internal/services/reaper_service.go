package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"streamvault/internal/checkpoint"
)

// ReaperService periodically evicts sessions whose buffers have gone idle.
// Sessions normally drain on a terminal fragment; the reaper only catches
// streams that died mid-flight and never sent one.
type ReaperService struct {
	scheduler  gocron.Scheduler
	buffer     *checkpoint.ChunkBuffer
	sessionTTL time.Duration
	interval   time.Duration
}

// NewReaperService creates the reaper. It does not start sweeping until
// Start is called.
func NewReaperService(buffer *checkpoint.ChunkBuffer, sessionTTL, interval time.Duration) (*ReaperService, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &ReaperService{
		scheduler:  scheduler,
		buffer:     buffer,
		sessionTTL: sessionTTL,
		interval:   interval,
	}, nil
}

// Start registers the sweep job and starts the scheduler
func (r *ReaperService) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.sweep),
		gocron.WithName("session-reaper"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}

	r.scheduler.Start()
	log.Printf("📦 Session reaper started (ttl=%s, interval=%s)", r.sessionTTL, r.interval)
	return nil
}

func (r *ReaperService) sweep() {
	evicted := r.buffer.EvictStale(r.sessionTTL)
	if evicted > 0 {
		log.Printf("📦 Session reaper evicted %d stale session(s)", evicted)
	}
}

// Shutdown stops the scheduler
func (r *ReaperService) Shutdown() error {
	log.Println("🔌 Shutting down session reaper...")
	return r.scheduler.Shutdown()
}
