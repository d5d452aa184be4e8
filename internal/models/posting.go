// Package models contains the persistent domain types of the vacancy platform.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Kind tags a posting variant. The string values travel in callback data and
// moderation requests, so they must stay short.
type Kind string

const (
	KindJobVacancy         Kind = "job"
	KindInternship         Kind = "intern"
	KindOneTimeTask        Kind = "otits"
	KindOpportunitiesGrant Kind = "opgts"
)

// Kinds lists every posting variant in display order.
var Kinds = []Kind{KindJobVacancy, KindInternship, KindOneTimeTask, KindOpportunitiesGrant}

var kindSlugs = map[Kind]string{
	KindJobVacancy:         "job_vacancy",
	KindInternship:         "internship",
	KindOneTimeTask:        "one_time_task",
	KindOpportunitiesGrant: "opportunities_grants",
}

// ParseKind accepts either the short tag ("job") or the URL slug ("job_vacancy").
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if s == string(k) || s == kindSlugs[k] {
			return k, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("Wrong vacancy type %q", s))
}

func (k Kind) Valid() bool {
	_, ok := kindSlugs[k]
	return ok
}

// Slug is the path segment used by the author-facing routes.
func (k Kind) Slug() string {
	return kindSlugs[k]
}

// Table returns the table holding postings of this kind.
func (k Kind) Table() string {
	switch k {
	case KindJobVacancy:
		return JobVacancy{}.TableName()
	case KindInternship:
		return Internship{}.TableName()
	case KindOneTimeTask:
		return OneTimeTask{}.TableName()
	case KindOpportunitiesGrant:
		return OpportunitiesGrant{}.TableName()
	}
	return ""
}

// New returns an empty posting of this kind, ready to be scanned or bound into.
func (k Kind) New() Posting {
	switch k {
	case KindJobVacancy:
		return &JobVacancy{}
	case KindInternship:
		return &Internship{}
	case KindOneTimeTask:
		return &OneTimeTask{}
	case KindOpportunitiesGrant:
		return &OpportunitiesGrant{}
	}
	return nil
}

// NewSlice returns a pointer to an empty slice of this kind for list queries.
func (k Kind) NewSlice() interface{} {
	switch k {
	case KindJobVacancy:
		return &[]*JobVacancy{}
	case KindInternship:
		return &[]*Internship{}
	case KindOneTimeTask:
		return &[]*OneTimeTask{}
	case KindOpportunitiesGrant:
		return &[]*OpportunitiesGrant{}
	}
	return nil
}

// Status is the moderation state of a posting.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusInReview Status = "IN_REVIEW" // reserved, no transition produces it
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether no further moderation transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Posting is implemented by every posting variant.
type Posting interface {
	Kind() Kind
	Base() *PostingBase
	// ContentColumns lists the author-editable columns of the variant.
	ContentColumns() []string
}

// PostingBase holds the lifecycle columns shared by every posting table.
type PostingBase struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	AuthorID         uint       `gorm:"not null;index" json:"author_id"`
	CountryID        uint       `gorm:"not null;index" json:"country_id" validate:"required"`
	RegionID         *uint      `gorm:"index" json:"region_id"`
	Contact          string     `gorm:"not null" json:"contact" validate:"required,notblank,max=500"`
	Status           Status     `gorm:"type:varchar(16);not null;default:NEW;index" json:"status"`
	RejectReason     *string    `json:"reject_reason,omitempty"`
	IsDelete         bool       `gorm:"not null;default:false" json:"-"`
	GroupChatID      *int64     `json:"-"`
	GroupMessageID   *int64     `json:"-"`
	ChannelChatID    *int64     `json:"channel_chat_id,omitempty"`
	ChannelMessageID *int64     `json:"channel_message_id,omitempty"`
	ModeratorID      *int64     `json:"moderator_id,omitempty"`
	PublishClaimedAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (b *PostingBase) Base() *PostingBase { return b }

// Published reports whether the posting carries a channel message reference.
func (b *PostingBase) Published() bool {
	return b.ChannelChatID != nil && b.ChannelMessageID != nil
}

var baseContentColumns = []string{"country_id", "region_id", "contact"}

func withBase(cols ...string) []string {
	return append(append([]string{}, baseContentColumns...), cols...)
}

// JobVacancy is a regular job opening.
type JobVacancy struct {
	PostingBase
	PositionTitle    string `gorm:"not null" json:"position_title" validate:"required,notblank,max=500"`
	OrganizationName string `gorm:"size:255" json:"organization_name" validate:"max=255"`
	Address          string `gorm:"size:255;not null" json:"address" validate:"required,notblank,max=255"`
	Requirements     string `gorm:"not null" json:"requirements" validate:"required,notblank"`
	Duties           string `json:"duties"`
	WorkSchedule     string `gorm:"not null" json:"work_schedule" validate:"required,notblank"`
	Salary           string `gorm:"not null" json:"salary" validate:"required,notblank"`
	AdditionalInfo   string `json:"additional_info"`
}

func (JobVacancy) TableName() string { return "job_vacancies" }

func (*JobVacancy) Kind() Kind { return KindJobVacancy }

func (*JobVacancy) ContentColumns() []string {
	return withBase("position_title", "organization_name", "address", "requirements",
		"duties", "work_schedule", "salary", "additional_info")
}

// Internship is a training position.
type Internship struct {
	PostingBase
	PositionTitle    string `gorm:"not null" json:"position_title" validate:"required,notblank,max=500"`
	OrganizationName string `gorm:"size:255" json:"organization_name" validate:"max=255"`
	Requirements     string `gorm:"not null" json:"requirements" validate:"required,notblank"`
	Duties           string `gorm:"not null" json:"duties" validate:"required,notblank"`
	Conditions       string `json:"conditions"`
	Address          string `gorm:"size:255;not null" json:"address" validate:"required,notblank,max=255"`
	Salary           string `gorm:"not null" json:"salary" validate:"required,notblank"`
	AdditionalInfo   string `json:"additional_info"`
}

func (Internship) TableName() string { return "internship" }

func (*Internship) Kind() Kind { return KindInternship }

func (*Internship) ContentColumns() []string {
	return withBase("position_title", "organization_name", "requirements", "duties",
		"conditions", "address", "salary", "additional_info")
}

// OneTimeTask is a short gig or project.
type OneTimeTask struct {
	PostingBase
	WhoNeeded       string `gorm:"not null" json:"who_needed" validate:"required,notblank"`
	TaskDescription string `gorm:"not null" json:"task_description" validate:"required,notblank"`
	Deadline        string `json:"deadline"`
	Salary          string `gorm:"not null" json:"salary" validate:"required,notblank"`
	Address         string `gorm:"size:255" json:"address" validate:"max=255"`
	AdditionalInfo  string `json:"additional_info"`
}

func (OneTimeTask) TableName() string { return "one_time_task" }

func (*OneTimeTask) Kind() Kind { return KindOneTimeTask }

func (*OneTimeTask) ContentColumns() []string {
	return withBase("who_needed", "task_description", "deadline", "salary", "address", "additional_info")
}

// OpportunitiesGrant is a free-form announcement, optionally with an image.
type OpportunitiesGrant struct {
	PostingBase
	Content string  `gorm:"not null" json:"content" validate:"required,notblank"`
	ImgPath *string `json:"img_path,omitempty"`
	// ImageURL is filled by the API from ImgPath.
	ImageURL string `gorm:"-" json:"img,omitempty"`
}

func (OpportunitiesGrant) TableName() string { return "opportunities_grants" }

func (*OpportunitiesGrant) Kind() Kind { return KindOpportunitiesGrant }

func (*OpportunitiesGrant) ContentColumns() []string {
	return withBase("content", "img_path")
}
