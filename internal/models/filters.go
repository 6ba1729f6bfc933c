package models

import "strings"

const (
	ExperienceEntry  = "entry"
	ExperienceMid    = "mid"
	ExperienceSenior = "senior"
)

// vendor enum → JobType
var JobTypeMapping = map[string]JobType{
	"full_time":   JobTypeFullTime,
	"full-time":   JobTypeFullTime,
	"fulltime":    JobTypeFullTime,
	"permanent":   JobTypeFullTime,
	"part_time":   JobTypePartTime,
	"part-time":   JobTypePartTime,
	"parttime":    JobTypePartTime,
	"contract":    JobTypeContract,
	"contractor":  JobTypeContract,
	"temporary":   JobTypeContract,
	"freelance":   JobTypeContract,
	"internship":  JobTypeInternship,
	"intern":      JobTypeInternship,
	"remote":      JobTypeRemote,
	"telecommute": JobTypeRemote,
}

func JobTypeOptions() []JobType {
	return []JobType{
		JobTypeFullTime,
		JobTypePartTime,
		JobTypeContract,
		JobTypeInternship,
		JobTypeRemote,
	}
}

// MapJobType maps a vendor-specific employment type onto JobType, falling back
// to Full-time.
func MapJobType(raw string) JobType {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := JobTypeMapping[key]; ok {
		return t
	}
	for _, t := range JobTypeOptions() {
		if strings.EqualFold(string(t), key) {
			return t
		}
	}
	return JobTypeFullTime
}

func IsValidExperience(level string) bool {
	switch strings.ToLower(level) {
	case ExperienceEntry, ExperienceMid, ExperienceSenior:
		return true
	}
	return false
}
