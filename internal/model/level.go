package model

// CriticalityLevel buckets a 0-100 criticality score.
type CriticalityLevel string

const (
	LevelCritico  CriticalityLevel = "critico"
	LevelModerado CriticalityLevel = "moderado"
	LevelAdequado CriticalityLevel = "adequado"
)
