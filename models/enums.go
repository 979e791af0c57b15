package models

import "errors"

type EmployeeCategory string

const (
	EmployeeCategoryAdministrative EmployeeCategory = "AUP"
	EmployeeCategoryAcademic       EmployeeCategory = "PPS"
	EmployeeCategoryOther          EmployeeCategory = "Other"
)

func (c EmployeeCategory) IsValid() bool {
	switch c {
	case EmployeeCategoryAdministrative, EmployeeCategoryAcademic, EmployeeCategoryOther:
		return true
	}
	return false
}

func (c EmployeeCategory) DisplayLabel() string {
	switch c {
	case EmployeeCategoryAdministrative:
		return "Administrative staff"
	case EmployeeCategoryAcademic:
		return "Academic staff"
	default:
		return "Other"
	}
}

type CampaignStatus string

const (
	CampaignStatusDraft    CampaignStatus = "draft"
	CampaignStatusOpen     CampaignStatus = "open"
	CampaignStatusClosed   CampaignStatus = "closed"
	CampaignStatusArchived CampaignStatus = "archived"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusOpen, CampaignStatusClosed, CampaignStatusArchived:
		return true
	}
	return false
}

func (s CampaignStatus) DisplayLabel() string {
	switch s {
	case CampaignStatusDraft:
		return "Draft"
	case CampaignStatusOpen:
		return "Open"
	case CampaignStatusClosed:
		return "Closed"
	case CampaignStatusArchived:
		return "Archived"
	}
	return string(s)
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusArchived RequestStatus = "archived"
)

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusArchived:
		return true
	}
	return false
}

func (s RequestStatus) DisplayLabel() string {
	switch s {
	case RequestStatusPending:
		return "Pending review"
	case RequestStatusApproved:
		return "Approved"
	case RequestStatusRejected:
		return "Rejected"
	case RequestStatusArchived:
		return "Archive"
	}
	return string(s)
}

// ParseRequestDecision accepts only the two reviewer decisions.
func ParseRequestDecision(value string) (RequestStatus, error) {
	switch RequestStatus(value) {
	case RequestStatusApproved:
		return RequestStatusApproved, nil
	case RequestStatusRejected:
		return RequestStatusRejected, nil
	}
	return "", errors.New("status must be approved or rejected")
}

type BudgetType string

const (
	BudgetTypeRecurring BudgetType = "recurring"
	BudgetTypeOneTime   BudgetType = "one_time"
)

func (t BudgetType) IsValid() bool {
	return t == BudgetTypeRecurring || t == BudgetTypeOneTime
}

func (t BudgetType) DisplayLabel() string {
	if t == BudgetTypeRecurring {
		return "Recurring payments"
	}
	return "One-time payments"
}

type PeriodStatus string

const (
	PeriodStatusDraft  PeriodStatus = "draft"
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

func (s PeriodStatus) IsValid() bool {
	switch s {
	case PeriodStatusDraft, PeriodStatusOpen, PeriodStatusClosed:
		return true
	}
	return false
}

func (s PeriodStatus) DisplayLabel() string {
	switch s {
	case PeriodStatusDraft:
		return "Draft"
	case PeriodStatusOpen:
		return "Open"
	case PeriodStatusClosed:
		return "Closed"
	}
	return string(s)
}
