package telemetry

import "time"

// Report sources
const (
	SourceCollector = "collector"
	SourceSimulator = "simulator"
)

// Drop reasons
const (
	DropUntagged  = "untagged"
	DropMalformed = "malformed"
	DropDecode    = "decode"
)

// Recorder receives ingestion events from the observation store
type Recorder interface {
	ReportReceived(source string)
	ReportDropped(reason string)
	ReportApplied()
	QueueDepth(depth int)
	Records(count int)
}

// HTTPRecorder receives request events from the presentation layer
type HTTPRecorder interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}
