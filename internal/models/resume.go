// internal/models/resume.go
package models

// ResumeFacts is the ground truth the Truth-Lock verifier checks generated
// content against. It is supplied by the resume service, never derived here.
type ResumeFacts struct {
	CandidateName   string           `json:"candidateName"`
	Skills          []string         `json:"skills"`
	TotalYears      float64          `json:"totalYears"`
	WorkExperience  []WorkExperience `json:"workExperience"`
	Education       []Education      `json:"education"`
}

type WorkExperience struct {
	Company   string `json:"company"`
	Title     string `json:"title"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
}

// Job is the target posting. MatchScore is precomputed upstream; this core
// only consumes it as a gating input.
type Job struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	URL             string   `json:"url"`
	RequiredSkills  []string `json:"requiredSkills,omitempty"`
	PreferredSkills []string `json:"preferredSkills,omitempty"`
	MatchScore      float64  `json:"matchScore"`
}

// Subscription carries the plan limits consulted by the plan gate.
type Subscription struct {
	UserID         string `json:"userId"`
	Tier           string `json:"tier"`
	DailyLimit     int    `json:"dailyLimit"`
	MaxConcurrent  int    `json:"maxConcurrent"`
}
