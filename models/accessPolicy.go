package models

import (
	"context"

	"github.com/stimulico/compensation_backend/config"
	"github.com/stimulico/compensation_backend/utils"
	"gorm.io/gorm"
)

// Role is the caller's resolved authorization state. It is loaded once per
// request (auth middleware) and passed explicitly into every policy check,
// so views and the API layer can never disagree about who may do what.
type Role struct {
	UserId   int
	Username string
	FullName string
	IsStaff  bool

	managerGroup    bool
	leadershipGroup bool
	employeeGroup   bool

	scopeDivisionId    *int
	canViewAllFlag     bool
	canViewOwnRequests bool

	// EmployeeId is the linked employee row, 0 when the account has none.
	EmployeeId int

	groups []string
}

// ResolveRole loads the user's groups, scope record and employee link in one
// pass. Predicates on the returned Role are pure.
func ResolveRole(ctx context.Context, userId int) (*Role, error) {
	user, err := GetUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	role := &Role{
		UserId:          user.ID,
		Username:        user.Username,
		FullName:        user.DisplayName(),
		IsStaff:         user.IsStaff,
		managerGroup:    user.InGroup(GroupDepartmentManager),
		leadershipGroup: user.InGroup(GroupInstituteLeadership),
		employeeGroup:   user.InGroup(GroupEmployee),
		groups:          user.GroupNames(),
	}

	db := config.GetDB()
	var scope UserDivision
	if err := db.WithContext(ctx).Where("user_id = ?", userId).First(&scope).Error; err == nil {
		role.scopeDivisionId = scope.DivisionId
		role.canViewAllFlag = scope.CanViewAll
		role.canViewOwnRequests = scope.CanViewOwnRequests
	}

	var employeeId int
	if err := db.WithContext(ctx).Model(&Employee{}).Where("user_id = ?", userId).
		Select("id").Scan(&employeeId).Error; err == nil {
		role.EmployeeId = employeeId
	}

	return role, nil
}

func (r *Role) Groups() []string {
	return r.groups
}

// IsDepartmentManager treats the can_view_all scope override as manager
// access alongside the two management groups.
func (r *Role) IsDepartmentManager() bool {
	if r.canViewAllFlag {
		return true
	}
	return r.managerGroup || r.leadershipGroup
}

func (r *Role) IsEmployee() bool {
	return r.employeeGroup
}

// DivisionScope returns the division the caller is pinned to, or nil when
// the caller sees every division.
func (r *Role) DivisionScope() *int {
	if r.canViewAllFlag {
		return nil
	}
	return r.scopeDivisionId
}

// CanViewAllEmployees: only staff and the can_view_all override see every
// employee row. A nil DivisionScope alone is not enough: a plain employee
// account has no scope record either, yet sees only itself.
func (r *Role) CanViewAllEmployees() bool {
	return r.IsStaff || r.canViewAllFlag
}

func (r *Role) CanViewAllRequests() bool {
	if r.IsStaff {
		return true
	}
	if r.leadershipGroup {
		return true
	}
	return r.canViewAllFlag
}

func (r *Role) CanViewOwnRequests() bool {
	return r.canViewOwnRequests
}

// CanChangeRequestStatus: approving and rejecting is an admin-only action.
// Managers and employees cannot resolve requests, not even their own.
func (r *Role) CanChangeRequestStatus(req *StimulusRequest) bool {
	return r.IsStaff
}

func (r *Role) CanEditRequest(req *StimulusRequest) bool {
	return r.canTouchRequest(req)
}

func (r *Role) CanDeleteRequest(req *StimulusRequest) bool {
	return r.canTouchRequest(req)
}

// canTouchRequest: staff always; a view-only scope never; everyone else only
// their own request and only while it is still pending.
func (r *Role) canTouchRequest(req *StimulusRequest) bool {
	if r.IsStaff {
		return true
	}
	if r.canViewOwnRequests {
		return false
	}
	if req.RequestedById != r.UserId {
		return false
	}
	if !(r.canViewAllFlag || r.IsDepartmentManager() || r.IsEmployee()) {
		return false
	}
	return req.Status == RequestStatusPending
}

// EmployeesVisibleTo returns the employee visibility tier as a gorm scope.
func EmployeesVisibleTo(role *Role) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if role.CanViewAllEmployees() {
			return db
		}
		if role.IsDepartmentManager() {
			if role.scopeDivisionId != nil {
				return db.Where("employees.division_id = ?", *role.scopeDivisionId)
			}
			return db.Where("1 = 0")
		}
		if role.IsEmployee() {
			return db.Where("employees.user_id = ?", role.UserId)
		}
		return db.Where("1 = 0")
	}
}

// RequestsVisibleTo returns the request visibility tier as a gorm scope:
// everything for elevated callers, otherwise own submissions plus, with the
// self-requests flag, requests that target the caller's employee row.
func RequestsVisibleTo(role *Role) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if role.CanViewAllRequests() {
			return db
		}
		if role.canViewOwnRequests && role.EmployeeId > 0 {
			return db.Where("stimulus_requests.requested_by_id = ? OR stimulus_requests.employee_id = ?", role.UserId, role.EmployeeId)
		}
		return db.Where("stimulus_requests.requested_by_id = ?", role.UserId)
	}
}

// roleContextKey carries the resolved Role through a request context.
type roleContextKey struct{}

func SetRoleInContext(ctx context.Context, role *Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

func GetRoleFromContext(ctx context.Context) (*Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(*Role)
	return role, ok
}

// RoleFromContextOrResolve prefers the middleware-resolved Role and falls
// back to a DB resolve for call sites outside the HTTP stack (workers, CLIs).
func RoleFromContextOrResolve(ctx context.Context) (*Role, error) {
	if role, ok := GetRoleFromContext(ctx); ok {
		return role, nil
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return ResolveRole(ctx, userId)
}
