package api

import (
	"chesstral/internal/analysis"
	"chesstral/internal/engine"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Time     int64  `json:"time"`
	Storage  string `json:"storage"`
	Sessions int    `json:"sessions"`
}

// RatingResponse echoes the rating forwarded to the engine service
type RatingResponse = engine.Rating

type AnalysisResponse = analysis.Report
