package models

import "time"

// SectionReview is a reviewer's verdict on one section of the application content.
type SectionReview struct {
	Approved bool   `gorm:"column:approved" json:"approved"`
	Notes    string `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

// RevisionRequest is the per-section feedback a reviewer sends back with a revision request.
// Rows are written once, in the same transaction as the Action that references them.
type RevisionRequest struct {
	RevisionRequestID int       `gorm:"primaryKey;column:revision_request_id" json:"revision_request_id"`
	ApplicationID     int       `gorm:"column:application_id;not null;index" json:"application_id"`
	CreatedBy         int       `gorm:"column:created_by" json:"created_by"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`

	ApplicantInfo    SectionReview `gorm:"embedded;embeddedPrefix:applicant_info_" json:"applicant_info"`
	InstitutionalRep SectionReview `gorm:"embedded;embeddedPrefix:institutional_rep_" json:"institutional_rep"`
	Collaborators    SectionReview `gorm:"embedded;embeddedPrefix:collaborators_" json:"collaborators"`
	Project          SectionReview `gorm:"embedded;embeddedPrefix:project_" json:"project"`
	RequestedStudies SectionReview `gorm:"embedded;embeddedPrefix:requested_studies_" json:"requested_studies"`
	Ethics           SectionReview `gorm:"embedded;embeddedPrefix:ethics_" json:"ethics"`
	Agreements       SectionReview `gorm:"embedded;embeddedPrefix:agreements_" json:"agreements"`
	Appendices       SectionReview `gorm:"embedded;embeddedPrefix:appendices_" json:"appendices"`
	SignAndSubmit    SectionReview `gorm:"embedded;embeddedPrefix:sign_and_submit_" json:"sign_and_submit"`

	GeneralComment string `gorm:"column:general_comment;type:text" json:"general_comment,omitempty"`
}

// TableName specifies the table for RevisionRequest.
func (RevisionRequest) TableName() string {
	return "dar_revision_requests"
}

// Sections returns the section verdicts keyed by their JSON name.
func (r RevisionRequest) Sections() map[string]SectionReview {
	return map[string]SectionReview{
		"applicant_info":    r.ApplicantInfo,
		"institutional_rep": r.InstitutionalRep,
		"collaborators":     r.Collaborators,
		"project":           r.Project,
		"requested_studies": r.RequestedStudies,
		"ethics":            r.Ethics,
		"agreements":        r.Agreements,
		"appendices":        r.Appendices,
		"sign_and_submit":   r.SignAndSubmit,
	}
}

// SectionsNeedingRevision lists the sections the reviewer did not approve.
func (r RevisionRequest) SectionsNeedingRevision() []string {
	order := []string{
		"applicant_info", "institutional_rep", "collaborators", "project",
		"requested_studies", "ethics", "agreements", "appendices", "sign_and_submit",
	}
	sections := r.Sections()
	var pending []string
	for _, name := range order {
		if !sections[name].Approved {
			pending = append(pending, name)
		}
	}
	return pending
}
