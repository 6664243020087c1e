// internal/truthlock/verifier.go

// Package truthlock verifies that generated application text (cover letters,
// screening answers) contains only claims supportable by the candidate's
// resume and the target job's stated requirements. Verification is pure: no
// I/O, no caching, identical inputs always yield identical verdicts.
package truthlock

import (
	"fmt"
	"strings"

	"applyflow/internal/common/errors"
	"applyflow/internal/common/metrics"
	"applyflow/internal/models"
)

// Verdict is the outcome of verifying one piece of generated text.
// Violations block submission; warnings never do. VerifiedClaims exists for
// explainability and lands in the audit record.
type Verdict struct {
	Passed         bool     `json:"passed"`
	Violations     []string `json:"violations,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
	VerifiedClaims []string `json:"verifiedClaims,omitempty"`
}

// Verify checks text against resume facts and the target job. It always
// returns the full verdict; callers that want a hard stop use VerifyOrReject.
//
// Fabricated factual claims (inflated years, unknown employer, unmatched
// degree) are violations. Skill claims are softer: a skill absent from the
// resume but present in the job's skill lists is a warning only.
func Verify(text string, facts *models.ResumeFacts, job *models.Job) Verdict {
	verdict := Verdict{}

	for _, claim := range extractYearsClaims(text) {
		if claim.Years > facts.TotalYears {
			metrics.TruthLockViolations.WithLabelValues("experience_years").Inc()
			verdict.Violations = append(verdict.Violations, fmt.Sprintf(
				"Claimed %g years vs resume-documented %g years (%q)",
				claim.Years, facts.TotalYears, claim.Text))
		} else {
			verdict.VerifiedClaims = append(verdict.VerifiedClaims, fmt.Sprintf(
				"experience duration %q within documented %g years", claim.Text, facts.TotalYears))
		}
	}

	resumeEmployers := employerSet(facts)
	for _, employer := range extractEmployerClaims(text) {
		if resumeEmployers[strings.ToLower(employer)] {
			verdict.VerifiedClaims = append(verdict.VerifiedClaims,
				fmt.Sprintf("employer %q matches work history", employer))
		} else {
			metrics.TruthLockViolations.WithLabelValues("employer").Inc()
			verdict.Violations = append(verdict.Violations,
				fmt.Sprintf("Claims employment at %q which does not appear in the resume work history", employer))
		}
	}

	resumeEducation := educationIndex(facts)
	for _, claim := range extractDegreeClaims(text) {
		if matchesEducation(claim, resumeEducation) {
			verdict.VerifiedClaims = append(verdict.VerifiedClaims,
				fmt.Sprintf("credential %q matches education history", claim.Text))
		} else {
			metrics.TruthLockViolations.WithLabelValues("degree").Inc()
			verdict.Violations = append(verdict.Violations,
				fmt.Sprintf("Claims credential %q which does not appear in the resume education entries", claim.Text))
		}
	}

	resumeSkills := lowerSet(facts.Skills)
	for _, skill := range extractSkillMentions(text, skillVocabulary(facts, job)) {
		if resumeSkills[strings.ToLower(skill)] {
			verdict.VerifiedClaims = append(verdict.VerifiedClaims,
				fmt.Sprintf("skill %q is resume-listed", skill))
		} else {
			// Job-relevant but not resume-backed: flagged for visibility,
			// never blocking.
			verdict.Warnings = append(verdict.Warnings,
				fmt.Sprintf("skill %q is not resume-listed but appears in the job's skill requirements", skill))
		}
	}

	verdict.Passed = len(verdict.Violations) == 0
	return verdict
}

// VerifyOrReject returns a content-rejected error carrying the violation
// list when the verdict fails. The verdict is returned either way so callers
// can persist warnings and verified claims.
func VerifyOrReject(text string, facts *models.ResumeFacts, job *models.Job) (Verdict, error) {
	verdict := Verify(text, facts, job)
	if !verdict.Passed {
		metrics.TruthLockRejections.Inc()
		return verdict, errors.NewContentRejectedError(verdict.Violations)
	}
	return verdict, nil
}

func employerSet(facts *models.ResumeFacts) map[string]bool {
	set := make(map[string]bool, len(facts.WorkExperience))
	for _, exp := range facts.WorkExperience {
		set[strings.ToLower(strings.TrimSpace(exp.Company))] = true
	}
	return set
}

type educationEntry struct {
	text  string // lowercased degree line plus field
	field string // lowercased explicit field, may be empty
}

// educationIndex maps each normalized degree level in the resume to its
// education entries, using the same extraction patterns applied to generated
// text so both sides normalize identically.
func educationIndex(facts *models.ResumeFacts) map[string][]educationEntry {
	index := make(map[string][]educationEntry, len(facts.Education))
	for _, edu := range facts.Education {
		entry := educationEntry{
			text:  strings.ToLower(strings.TrimSpace(edu.Degree + " " + edu.Field)),
			field: strings.ToLower(strings.TrimSpace(edu.Field)),
		}
		for _, claim := range extractDegreeClaims(edu.Degree) {
			index[claim.Level] = append(index[claim.Level], entry)
		}
	}
	return index
}

// matchesEducation requires the claimed degree level to appear in the resume
// and, when the claim names a field of study, that field to line up with one
// of the entries carrying the level. A level-only claim matches on level
// alone.
func matchesEducation(claim degreeClaim, index map[string][]educationEntry) bool {
	entries, ok := index[claim.Level]
	if !ok {
		return false
	}
	if claim.Field == "" {
		return true
	}
	field := strings.ToLower(strings.TrimSpace(claim.Field))
	for _, entry := range entries {
		if strings.Contains(entry.text, field) {
			return true
		}
		if entry.field != "" && strings.Contains(field, entry.field) {
			return true
		}
	}
	return false
}

func skillVocabulary(facts *models.ResumeFacts, job *models.Job) []string {
	vocab := make([]string, 0, len(facts.Skills)+len(job.RequiredSkills)+len(job.PreferredSkills))
	vocab = append(vocab, facts.Skills...)
	vocab = append(vocab, job.RequiredSkills...)
	vocab = append(vocab, job.PreferredSkills...)
	return vocab
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
