package models

import "time"

// ApplicantInfo identifies the person requesting access.
type ApplicantInfo struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Institution string `json:"institution" validate:"required"`
	Position    string `json:"position,omitempty"`
}

// InstitutionalRep is the signing official who performs the first review.
type InstitutionalRep struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Title    string `json:"title,omitempty"`
}

// Collaborator is an additional researcher who will handle the data.
type Collaborator struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	Institution string `json:"institution,omitempty"`
	Role        string `json:"role,omitempty"`
}

// ProjectInfo describes the research the data will be used for.
type ProjectInfo struct {
	Title     string     `json:"title" validate:"required"`
	Summary   string     `json:"summary" validate:"required"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// RequestedStudy names a study and the data types requested from it.
type RequestedStudy struct {
	StudyID   string   `json:"study_id" validate:"required"`
	DataTypes []string `json:"data_types" validate:"min=1,dive,required"`
}

// EthicsInfo records the ethics approval covering the project.
type EthicsInfo struct {
	Committee      string     `json:"committee" validate:"required"`
	ApprovalNumber string     `json:"approval_number" validate:"required"`
	ApprovedOn     *time.Time `json:"approved_on,omitempty"`
}

// Agreements are the terms the applicant must accept before submitting.
type Agreements struct {
	DataUse          bool `json:"data_use" validate:"eq=true"`
	Publication      bool `json:"publication" validate:"eq=true"`
	SecurityControls bool `json:"security_controls" validate:"eq=true"`
}

// Appendix references an uploaded supporting document held by the file service.
type Appendix struct {
	FileID int    `json:"file_id" validate:"required"`
	Name   string `json:"name" validate:"required"`
}

// SignAndSubmit is the applicant's attestation.
type SignAndSubmit struct {
	SignedName string     `json:"signed_name" validate:"required"`
	SignedAt   *time.Time `json:"signed_at" validate:"required"`
}

// ApplicationContent is the applicant-editable body of an application. It is changed by the
// content editing flow, never inside a lifecycle transaction.
type ApplicationContent struct {
	ApplicationID int `gorm:"primaryKey;autoIncrement:false;column:application_id" json:"application_id"`

	ApplicantInfo    ApplicantInfo    `gorm:"column:applicant_info;type:json;serializer:json" json:"applicant_info"`
	InstitutionalRep InstitutionalRep `gorm:"column:institutional_rep;type:json;serializer:json" json:"institutional_rep"`
	Collaborators    []Collaborator   `gorm:"column:collaborators;type:json;serializer:json" json:"collaborators" validate:"dive"`
	ProjectInfo      ProjectInfo      `gorm:"column:project_info;type:json;serializer:json" json:"project_info"`
	RequestedStudies []RequestedStudy `gorm:"column:requested_studies;type:json;serializer:json" json:"requested_studies" validate:"min=1,dive"`
	Ethics           EthicsInfo       `gorm:"column:ethics;type:json;serializer:json" json:"ethics"`
	Agreements       Agreements       `gorm:"column:agreements;type:json;serializer:json" json:"agreements"`
	Appendices       []Appendix       `gorm:"column:appendices;type:json;serializer:json" json:"appendices" validate:"dive"`
	SignAndSubmit    SignAndSubmit    `gorm:"column:sign_and_submit;type:json;serializer:json" json:"sign_and_submit"`

	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

// TableName specifies the table for ApplicationContent.
func (ApplicationContent) TableName() string {
	return "dar_application_contents"
}
