package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamMonitorChannel returns the Redis PubSub channel name for an exam monitor
func (r *CacheKeyStruct) ExamMonitorChannel(examID string) string {
	return fmt.Sprintf("exam:%s:monitor", examID)
}

// AttemptViolationCountKey returns the key holding the live strike count of an attempt
func (r *CacheKeyStruct) AttemptViolationCountKey(attemptID int64) string {
	return fmt.Sprintf("attempt:%d:violations", attemptID)
}

var CacheKey = NewCacheKeyStruct()
