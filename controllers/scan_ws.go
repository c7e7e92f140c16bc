package controller

import (
	"log"

	"github.com/gofiber/websocket/v2"

	"linkedcrm/utils"
)

type scanProgress struct {
	Stage   string      `json:"stage"`
	Message string      `json:"message"`
	Percent int         `json:"percent"`
	Status  string      `json:"status"`
	Detail  interface{} `json:"detail,omitempty"`
}

// ScanPipeline bundles the services the websocket rescan runs in order.
type ScanPipeline struct {
	Scorer    *utils.WarmthScorer
	Segmenter *utils.Segmenter
	Scanner   *utils.ResurrectionScanner
}

// HandleRescanWS runs the full scoring pipeline and streams progress frames.
// The client sends {"action": "rescan"} and receives one frame per stage.
func HandleRescanWS(pipeline *ScanPipeline) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		var input struct {
			Action string `json:"action"`
		}
		if err := c.ReadJSON(&input); err != nil {
			log.Printf("Error reading JSON: %v", err)
			return
		}
		if input.Action != "rescan" {
			_ = c.WriteJSON(scanProgress{
				Stage:   "error",
				Message: "Unknown action",
				Status:  "failed",
			})
			return
		}

		send := func(p scanProgress) bool {
			if err := c.WriteJSON(p); err != nil {
				log.Printf("Error writing JSON: %v", err)
				return false
			}
			return true
		}

		if !send(scanProgress{Stage: "substantive", Message: "Classifying message content...", Percent: 10, Status: "running"}) {
			return
		}
		flagged, err := pipeline.Scorer.UpdateSubstantiveFlags()
		if err != nil {
			send(scanProgress{Stage: "substantive", Message: err.Error(), Status: "failed"})
			return
		}

		if !send(scanProgress{Stage: "warmth", Message: "Recomputing warmth scores...", Percent: 30, Status: "running", Detail: map[string]int{"messages_flagged": flagged}}) {
			return
		}
		warmth, err := pipeline.Scorer.RecalculateAll()
		if err != nil {
			send(scanProgress{Stage: "warmth", Message: err.Error(), Status: "failed"})
			return
		}

		if !send(scanProgress{Stage: "segments", Message: "Re-tagging segments...", Percent: 60, Status: "running", Detail: warmth}) {
			return
		}
		segments, err := pipeline.Segmenter.SegmentAll()
		if err != nil {
			send(scanProgress{Stage: "segments", Message: err.Error(), Status: "failed"})
			return
		}

		if !send(scanProgress{Stage: "resurrection", Message: "Scanning for resurrection hooks...", Percent: 85, Status: "running", Detail: segments}) {
			return
		}
		hooks, err := pipeline.Scanner.ScanAll()
		if err != nil {
			send(scanProgress{Stage: "resurrection", Message: err.Error(), Status: "failed"})
			return
		}

		send(scanProgress{
			Stage:   "done",
			Message: "Rescan completed",
			Percent: 100,
			Status:  "completed",
			Detail: map[string]interface{}{
				"messages_flagged": flagged,
				"warmth":           warmth,
				"segments":         segments,
				"resurrection":     hooks,
			},
		})
	}
}
