package events

import "time"

// EventType identifies a dashboard event.
type EventType string

const (
	EventTypeProgress   EventType = "ocr_progress"
	EventTypeDetections EventType = "detection_summary"
	EventTypeSystem     EventType = "system_status"
)

// Event is the envelope broadcast to dashboard clients. Payloads carry
// counts and percentages only; detected text never leaves the process.
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ProgressEvent reports extraction progress for one page.
type ProgressEvent struct {
	Page    int     `json:"page"`
	Percent float64 `json:"percent"`
	Status  string  `json:"status"`
}

// DetectionSummaryEvent reports per-type detection counts for one page.
type DetectionSummaryEvent struct {
	Page   int            `json:"page"`
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// SystemEvent reports pipeline state changes (e.g. manual-only fallback).
type SystemEvent struct {
	Message string `json:"message"`
}
