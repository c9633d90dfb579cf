// Package routes maps the session to navigation decisions for the UI routes.
package routes

import (
	"slices"

	"eduplatform-web/internal/domain"
)

// UI paths
const (
	Home                = "/"
	Login               = "/login"
	Register            = "/register"
	ForgotPassword      = "/forgot-password"
	ResetPassword       = "/reset-password"
	VerifyEmail         = "/verify-email"
	Dashboard           = "/dashboard"
	MyCourses           = "/my-courses"
	InstructorDashboard = "/instructor/dashboard"
	AdminDashboard      = "/admin/dashboard"
	Courses             = "/courses"
	CourseDetail        = "/courses/{slug}"
	Profile             = "/profile"
	Settings            = "/settings"
)

// LandingRoute is the default page of a role. Every redirect to a landing
// page goes through here.
func LandingRoute(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminDashboard
	case domain.RoleInstructor:
		return InstructorDashboard
	default:
		return Dashboard
	}
}

// Decision is the outcome of a guard. An empty Redirect means the route may render.
type Decision struct {
	Redirect string
}

// Allowed reports whether the route may render
func (d Decision) Allowed() bool { return d.Redirect == "" }

var allow = Decision{}

// Protect guards a route that needs a session. With roles set, a user whose
// role is not listed is sent to their own landing page, not to the login page.
func Protect(state domain.SessionState, roles ...domain.Role) Decision {
	if !state.IsAuthenticated {
		return Decision{Redirect: Login}
	}
	if len(roles) > 0 && state.User != nil && !slices.Contains(roles, state.User.Role) {
		return Decision{Redirect: LandingRoute(state.User.Role)}
	}
	return allow
}

// PublicOnly guards the login and registration pages: a signed-in user is
// sent to their landing page
func PublicOnly(state domain.SessionState) Decision {
	if state.IsAuthenticated && state.User != nil {
		return Decision{Redirect: LandingRoute(state.User.Role)}
	}
	return allow
}

// Access is how a route is guarded
type Access int

const (
	Open Access = iota
	PublicOnlyAccess
	Protected
)

// Route is one entry of the UI route table
type Route struct {
	Path   string
	Access Access
	Roles  []domain.Role
}

// Table lists the UI routes and their guards
var Table = []Route{
	{Path: Home, Access: Open},
	{Path: Login, Access: PublicOnlyAccess},
	{Path: Register, Access: PublicOnlyAccess},
	{Path: ForgotPassword, Access: PublicOnlyAccess},
	{Path: ResetPassword, Access: PublicOnlyAccess},
	{Path: VerifyEmail, Access: Open},
	{Path: Dashboard, Access: Protected},
	{Path: MyCourses, Access: Protected, Roles: []domain.Role{domain.RoleStudent}},
	{Path: InstructorDashboard, Access: Protected, Roles: []domain.Role{domain.RoleInstructor, domain.RoleAdmin}},
	{Path: AdminDashboard, Access: Protected, Roles: []domain.Role{domain.RoleAdmin}},
	{Path: Courses, Access: Protected},
	{Path: CourseDetail, Access: Protected},
	{Path: Profile, Access: Protected},
	{Path: Settings, Access: Protected},
}

// Evaluate applies the route's guard to state
func (r Route) Evaluate(state domain.SessionState) Decision {
	switch r.Access {
	case PublicOnlyAccess:
		return PublicOnly(state)
	case Protected:
		return Protect(state, r.Roles...)
	default:
		return allow
	}
}

// Lookup returns the table entry for path
func Lookup(path string) (Route, bool) {
	for _, r := range Table {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}
