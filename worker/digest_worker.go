package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"linkedcrm/utils"
)

// DigestWorker emails the day's top outreach recommendations every morning.
type DigestWorker struct {
	DB        *gorm.DB
	Ranker    *utils.Ranker
	Recipient string
	SendHour  int
	Logger    *log.Logger
}

func NewDigestWorker(db *gorm.DB, ranker *utils.Ranker, recipient string, logger *log.Logger) *DigestWorker {
	return &DigestWorker{
		DB:        db,
		Ranker:    ranker,
		Recipient: recipient,
		SendHour:  8,
		Logger:    logger,
	}
}

func (dw *DigestWorker) Start(ctx context.Context) {
	time.Sleep(15 * time.Second)

	dw.Logger.Println("Digest worker started")

	// Check hourly; send once when the local send hour rolls around.
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	var lastSent time.Time

	for {
		select {
		case <-ctx.Done():
			dw.Logger.Println("Digest worker shutting down...")
			return
		case <-ticker.C:
			now := time.Now()
			if now.Hour() != dw.SendHour {
				continue
			}
			if lastSent.Year() == now.Year() && lastSent.YearDay() == now.YearDay() {
				continue
			}
			if err := dw.sendDigest(); err != nil {
				dw.Logger.Printf("Error sending digest: %v", err)
				utils.LogError("digest_worker", err, map[string]interface{}{"recipient": dw.Recipient})
				continue
			}
			lastSent = now
		}
	}
}

func (dw *DigestWorker) sendDigest() error {
	recs, err := dw.Ranker.DailyRecommendations(10, "")
	if err != nil {
		return err
	}

	if err := utils.SendDailyDigest(dw.Recipient, recs); err != nil {
		return err
	}

	dw.Logger.Printf("Daily digest sent to %s with %d recommendations", dw.Recipient, len(recs.Recommendations))
	return nil
}
