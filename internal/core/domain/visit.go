package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visit status values
const (
	VisitStatusDraft = "draft"
	VisitStatusSaved = "saved"
)

// DateLayout is the wire format of visit dates
const DateLayout = "2006-01-02"

// Visit is one recorded field sales visit
type Visit struct {
	ID                      uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"_id"`
	VisitDate               time.Time     `gorm:"type:date;index:idx_visits_date" json:"visitDate"`
	PracticeName            string        `gorm:"type:varchar(255)" json:"practiceName"`
	DrName                  string        `gorm:"type:varchar(255)" json:"drName,omitempty"`
	Phone                   string        `gorm:"type:varchar(50)" json:"phone"`
	Email                   string        `gorm:"type:varchar(255)" json:"email"`
	Address                 string        `gorm:"type:text" json:"address"`
	FrontDeskName           string        `gorm:"type:varchar(255)" json:"frontDeskName,omitempty"`
	BackOfficeAssistantName string        `gorm:"type:varchar(255)" json:"backOfficeAssistantName,omitempty"`
	OfficeManagerName       string        `gorm:"type:varchar(255)" json:"officeManagerName,omitempty"`
	SamplesProvided         []SampleEntry `gorm:"type:jsonb;serializer:json" json:"samplesProvided"`
	OtherSample             string        `gorm:"type:varchar(255)" json:"otherSample,omitempty"`
	TopicsDiscussed         string        `gorm:"type:text" json:"topicsDiscussed"`
	Survey                  Survey        `gorm:"type:jsonb;serializer:json" json:"survey"`
	CreditCard              *CreditCard   `gorm:"type:jsonb;serializer:json" json:"creditCard"`
	Status                  string        `gorm:"type:varchar(20);not null;default:'saved';index:idx_visits_status" json:"status"`
	CreatedAt               time.Time     `gorm:"autoCreateTime;index:idx_visits_date" json:"createdAt"`
	UpdatedAt               time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Visit) TableName() string {
	return "visits"
}

// BeforeCreate GORM hook
func (v *Visit) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Status == "" {
		v.Status = VisitStatusSaved
	}
	return nil
}

// HasCreditCard reports whether a card number was captured
func (v *Visit) HasCreditCard() bool {
	return v.CreditCard != nil && v.CreditCard.Number != ""
}

// SampleEntry is a sample handed out during a visit
type SampleEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Survey holds the optional questionnaire. Nil answers were never given.
type Survey struct {
	KnewAboutProducts        *bool  `json:"knewAboutProducts"`
	SoldProductsBefore       *bool  `json:"soldProductsBefore"`
	InterestedInAlignerFresh *bool  `json:"interestedInAlignerFresh"`
	GaveIPRGlideSample       *bool  `json:"gaveIPRGlideSample"`
	SpokeToDoctor            *bool  `json:"spokeToDoctor"`
	ShowedSmartIPRVideo      *bool  `json:"showedSmartIPRVideo"`
	QuotedPrices             *bool  `json:"quotedPrices"`
	QuotedPricesDetails      string `json:"quotedPricesDetails,omitempty"`
	ReadyToOrder             *bool  `json:"readyToOrder"`
	ReadyToOrderDetails      string `json:"readyToOrderDetails,omitempty"`
	OfficeDescription        string `json:"officeDescription,omitempty"`
}

// CreditCard as captured on the payment step
type CreditCard struct {
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"cvv"`
	Name        string `json:"name"`
}

// VisitPayload is the body accepted by the persistence service. Presence of
// ID selects update over create.
type VisitPayload struct {
	ID                      string        `json:"_id,omitempty"`
	IsRealUpdate            *bool         `json:"isRealUpdate,omitempty"`
	VisitDate               string        `json:"visitDate"`
	PracticeName            string        `json:"practiceName"`
	DrName                  string        `json:"drName"`
	Phone                   string        `json:"phone"`
	Email                   string        `json:"email"`
	Address                 string        `json:"address"`
	FrontDeskName           string        `json:"frontDeskName"`
	BackOfficeAssistantName string        `json:"backOfficeAssistantName"`
	OfficeManagerName       string        `json:"officeManagerName"`
	SamplesProvided         []SampleEntry `json:"samplesProvided"`
	OtherSample             string        `json:"otherSample,omitempty"`
	TopicsDiscussed         string        `json:"topicsDiscussed"`
	Survey                  Survey        `json:"survey"`
	CreditCard              *CreditCard   `json:"creditCard"`
	Status                  string        `json:"status"`
}

// SaveResult is the persistence service reply
type SaveResult struct {
	Success bool   `json:"success"`
	VisitID string `json:"visitId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ValidStatuses returns list of valid visit statuses
func ValidStatuses() []string {
	return []string{VisitStatusDraft, VisitStatusSaved}
}

// IsValidStatus checks if a status is valid
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
