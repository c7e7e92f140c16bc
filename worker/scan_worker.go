package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"linkedcrm/utils"
)

// ScanWorker periodically runs the full scoring pipeline: substantive flags,
// warmth scores, segment tags, then resurrection hooks. Order matters; each
// stage feeds the next.
type ScanWorker struct {
	DB        *gorm.DB
	Scorer    *utils.WarmthScorer
	Segmenter *utils.Segmenter
	Scanner   *utils.ResurrectionScanner
	Interval  time.Duration
	Logger    *log.Logger
}

func NewScanWorker(db *gorm.DB, scorer *utils.WarmthScorer, segmenter *utils.Segmenter, scanner *utils.ResurrectionScanner, interval time.Duration, logger *log.Logger) *ScanWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ScanWorker{
		DB:        db,
		Scorer:    scorer,
		Segmenter: segmenter,
		Scanner:   scanner,
		Interval:  interval,
		Logger:    logger,
	}
}

func (sw *ScanWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	sw.Logger.Println("Scan worker started")

	// First pass immediately so fresh deployments get scores without
	// waiting out a full interval.
	sw.runPipeline()

	ticker := time.NewTicker(sw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sw.Logger.Println("Scan worker shutting down...")
			return
		case <-ticker.C:
			sw.runPipeline()
		}
	}
}

func (sw *ScanWorker) runPipeline() {
	start := time.Now()

	flagged, err := sw.Scorer.UpdateSubstantiveFlags()
	if err != nil {
		sw.Logger.Printf("Error updating substantive flags: %v", err)
		utils.LogError("scan_worker_substantive", err, nil)
		return
	}
	if flagged > 0 {
		sw.Logger.Printf("Flagged %d messages", flagged)
	}

	warmth, err := sw.Scorer.RecalculateAll()
	if err != nil {
		sw.Logger.Printf("Error recalculating warmth: %v", err)
		utils.LogError("scan_worker_warmth", err, nil)
		return
	}

	segments, err := sw.Segmenter.SegmentAll()
	if err != nil {
		sw.Logger.Printf("Error segmenting contacts: %v", err)
		utils.LogError("scan_worker_segments", err, nil)
		return
	}

	hooks, err := sw.Scanner.ScanAll()
	if err != nil {
		sw.Logger.Printf("Error scanning for hooks: %v", err)
		utils.LogError("scan_worker_resurrection", err, nil)
		return
	}

	sw.Logger.Printf("Pipeline done in %s: %d scored, %d segmented, %d hooks active",
		time.Since(start).Round(time.Millisecond),
		warmth.ContactsProcessed, segments.ContactsProcessed, hooks.Found)

	utils.LogEvent("scan_pipeline_completed", map[string]interface{}{
		"messages_flagged":   flagged,
		"contacts_scored":    warmth.ContactsProcessed,
		"contacts_segmented": segments.ContactsProcessed,
		"hooks_found":        hooks.Found,
		"duration_ms":        time.Since(start).Milliseconds(),
	})
}
