package models

import (
	"testing"
	"time"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestShouldAutoClose_DeadlineBoundary(t *testing.T) {
	deadline := date(2025, time.November, 7)
	campaign := &RequestCampaign{
		Status:    CampaignStatusOpen,
		AutoClose: true,
		Deadline:  &deadline,
	}

	if campaign.ShouldAutoClose(date(2025, time.November, 7)) {
		t.Error("must not auto-close on the deadline day itself")
	}
	if !campaign.ShouldAutoClose(date(2025, time.November, 8)) {
		t.Error("must auto-close the day after the deadline")
	}
}

func TestShouldAutoClose_NoDeadlineUsesDayOfMonth(t *testing.T) {
	campaign := &RequestCampaign{
		Status:       CampaignStatusOpen,
		AutoClose:    true,
		AutoCloseDay: 15,
	}

	if campaign.ShouldAutoClose(date(2025, time.November, 15)) {
		t.Error("must not auto-close on the configured day itself")
	}
	if !campaign.ShouldAutoClose(date(2025, time.November, 16)) {
		t.Error("must auto-close once the day of month passes the configured day")
	}
}

func TestShouldAutoClose_RequiresOpenAndEnabled(t *testing.T) {
	deadline := date(2025, time.January, 1)
	closed := &RequestCampaign{Status: CampaignStatusClosed, AutoClose: true, Deadline: &deadline}
	if closed.ShouldAutoClose(date(2025, time.June, 1)) {
		t.Error("a closed campaign must never auto-close")
	}
	disabled := &RequestCampaign{Status: CampaignStatusOpen, AutoClose: false, Deadline: &deadline}
	if disabled.ShouldAutoClose(date(2025, time.June, 1)) {
		t.Error("auto-close disabled must be respected")
	}
}

func TestCampaignTransitionGuards(t *testing.T) {
	cases := []struct {
		name   string
		status CampaignStatus
		guard  func(*RequestCampaign) error
		ok     bool
	}{
		{"open from draft", CampaignStatusDraft, (*RequestCampaign).canOpen, true},
		{"open from open", CampaignStatusOpen, (*RequestCampaign).canOpen, false},
		{"close from open", CampaignStatusOpen, (*RequestCampaign).canClose, true},
		{"close from draft", CampaignStatusDraft, (*RequestCampaign).canClose, false},
		{"reopen from closed", CampaignStatusClosed, (*RequestCampaign).canReopen, true},
		{"reopen from archived", CampaignStatusArchived, (*RequestCampaign).canReopen, false},
		{"archive from closed", CampaignStatusClosed, (*RequestCampaign).canArchive, true},
		{"archive from open", CampaignStatusOpen, (*RequestCampaign).canArchive, false},
	}
	for _, tc := range cases {
		campaign := &RequestCampaign{Status: tc.status}
		err := tc.guard(campaign)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected a state-conflict error", tc.name)
		}
	}
}

func TestNewRequestCampaignValidate(t *testing.T) {
	opensAt := date(2025, time.November, 1)
	early := date(2025, time.October, 31)

	bad := &NewRequestCampaign{Name: "November round", OpensAt: opensAt, Deadline: &early}
	if err := bad.Validate(); err == nil {
		t.Error("a deadline before opens_at must be rejected")
	}

	sameDay := &NewRequestCampaign{Name: "November round", OpensAt: opensAt, Deadline: &opensAt}
	if err := sameDay.Validate(); err != nil {
		t.Errorf("a deadline equal to opens_at is valid: %v", err)
	}
}

func TestAcceptsRequests(t *testing.T) {
	if (&RequestCampaign{Status: CampaignStatusDraft}).AcceptsRequests() {
		t.Error("a draft campaign must not accept requests")
	}
	if (&RequestCampaign{Status: CampaignStatusArchived}).AcceptsRequests() {
		t.Error("an archived campaign must not accept requests")
	}
	if !(&RequestCampaign{Status: CampaignStatusOpen}).AcceptsRequests() {
		t.Error("an open campaign must accept requests")
	}
}
