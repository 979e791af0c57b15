package models

import "testing"

func managerRole(divisionId int) *Role {
	return &Role{
		UserId:          10,
		Username:        "manager",
		managerGroup:    true,
		scopeDivisionId: &divisionId,
	}
}

func employeeRole(userId int) *Role {
	return &Role{
		UserId:        userId,
		Username:      "employee",
		employeeGroup: true,
	}
}

func TestCanEditRequest_OwnPendingOnly(t *testing.T) {
	role := employeeRole(42)

	own := &StimulusRequest{RequestedById: 42, Status: RequestStatusPending}
	if !role.CanEditRequest(own) {
		t.Error("an employee must be able to edit their own pending request")
	}

	foreign := &StimulusRequest{RequestedById: 7, Status: RequestStatusPending}
	if role.CanEditRequest(foreign) {
		t.Error("an employee must not edit another user's request")
	}

	approved := &StimulusRequest{RequestedById: 42, Status: RequestStatusApproved}
	if role.CanEditRequest(approved) {
		t.Error("an employee must not edit their own request once approved")
	}
}

func TestCanDeleteRequest_StaffAlways(t *testing.T) {
	staff := &Role{UserId: 1, IsStaff: true}
	request := &StimulusRequest{RequestedById: 99, Status: RequestStatusApproved}
	if !staff.CanDeleteRequest(request) {
		t.Error("staff must be able to delete any request")
	}
}

func TestCanTouchRequest_ViewOnlyScopeNever(t *testing.T) {
	role := &Role{
		UserId:             42,
		employeeGroup:      true,
		canViewOwnRequests: true,
	}
	own := &StimulusRequest{RequestedById: 42, Status: RequestStatusPending}
	if role.CanEditRequest(own) {
		t.Error("a view-only scope must not grant edit rights, even on own requests")
	}
	if role.CanDeleteRequest(own) {
		t.Error("a view-only scope must not grant delete rights")
	}
}

func TestCanChangeRequestStatus_StaffOnly(t *testing.T) {
	request := &StimulusRequest{RequestedById: 10, Status: RequestStatusPending}

	if managerRole(3).CanChangeRequestStatus(request) {
		t.Error("a department manager must not resolve requests")
	}
	if employeeRole(10).CanChangeRequestStatus(request) {
		t.Error("an employee must not resolve requests, not even their own")
	}
	staff := &Role{UserId: 1, IsStaff: true}
	if !staff.CanChangeRequestStatus(request) {
		t.Error("staff must be able to resolve requests")
	}
}

func TestIsDepartmentManager_CanViewAllOverride(t *testing.T) {
	// A can_view_all scope counts as manager access even without the group.
	role := &Role{UserId: 5, canViewAllFlag: true}
	if !role.IsDepartmentManager() {
		t.Error("can_view_all must grant manager-level access")
	}
	if role.DivisionScope() != nil {
		t.Error("can_view_all must clear the division restriction")
	}
	if !role.CanViewAllRequests() {
		t.Error("can_view_all must widen request visibility")
	}
}

func TestCanViewAllEmployees_NilScopeIsNotGlobal(t *testing.T) {
	// A plain employee account has no scope record, so DivisionScope is nil
	// just like an admin's. That must not put them in the global tier: the
	// dashboard caches and serves the full snapshot only to this predicate.
	employee := employeeRole(7)
	if employee.DivisionScope() != nil {
		t.Fatal("an employee without a scope record must have a nil division scope")
	}
	if employee.CanViewAllEmployees() {
		t.Error("a nil division scope must not grant global employee visibility")
	}
	if employee.CanViewAllRequests() {
		t.Error("a nil division scope must not grant global request visibility")
	}

	if managerRole(3).CanViewAllEmployees() {
		t.Error("a division-pinned manager must not see every employee")
	}
	if !(&Role{UserId: 1, IsStaff: true}).CanViewAllEmployees() {
		t.Error("staff must see every employee")
	}
	if !(&Role{UserId: 5, canViewAllFlag: true}).CanViewAllEmployees() {
		t.Error("the can_view_all override must see every employee")
	}
}

func TestDivisionScope_PinnedManager(t *testing.T) {
	role := managerRole(3)
	scope := role.DivisionScope()
	if scope == nil || *scope != 3 {
		t.Errorf("expected division scope 3, got %v", scope)
	}
	if role.CanViewAllRequests() {
		t.Error("a pinned manager must not see every request")
	}
}
