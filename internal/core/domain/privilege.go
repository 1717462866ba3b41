package domain

// RootPath is the dashboard home; every logged-in identity may open it.
const RootPath = "/"

// PrivilegeSet maps a route path to whether the identity may open it.
// A missing key means no access.
type PrivilegeSet map[string]bool

// Allows reports whether path is explicitly granted.
func (p PrivilegeSet) Allows(path string) bool {
	return p[path]
}

// Granted returns the granted paths in tab order, followed by any paths the
// backend returned that are not known tabs.
func (p PrivilegeSet) Granted() []string {
	out := make([]string, 0, len(p))
	seen := make(map[string]struct{}, len(p))
	for _, t := range Tabs {
		if p[t.Path] {
			out = append(out, t.Path)
			seen[t.Path] = struct{}{}
		}
	}
	for path, ok := range p {
		if _, dup := seen[path]; ok && !dup {
			out = append(out, path)
		}
	}
	return out
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (p PrivilegeSet) Clone() PrivilegeSet {
	out := make(PrivilegeSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Tab is one entry of the dashboard navigation.
type Tab struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Tabs lists the dashboard views in navigation order.
var Tabs = []Tab{
	{Name: "Home", Path: RootPath},
	{Name: "Task Manager", Path: "/task-manager"},
	{Name: "Testcase Generator", Path: "/testcase-generator"},
	{Name: "Test Report Generator", Path: "/test-report-generator"},
	{Name: "Status Mail Formatter", Path: "/status-mail-formatter"},
	{Name: "User Manager", Path: "/user-manager"},
	{Name: "Settings", Path: "/settings"},
}

// AssignableTabs are the tabs an admin can grant on the user-manager screen.
var AssignableTabs = []string{
	"/test-report-generator",
	"/status-mail-formatter",
	"/user-manager",
}
