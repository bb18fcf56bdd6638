package utils

const (
	ChecksAccepted    = "checks accepted for ingestion"
	TimelineRetrieved = "timeline retrieved"
)
