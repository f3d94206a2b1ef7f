package pagetree

import "strings"

// NormalizeRoute returns the canonical form of a route: no leading or
// trailing slash and no empty segments. The site root normalizes to "".
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "" || route == "/" {
		return ""
	}
	parts := strings.Split(route, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}

// ParentRoute returns the route one segment up, "" for top-level routes.
func ParentRoute(route string) string {
	route = NormalizeRoute(route)
	idx := strings.LastIndex(route, "/")
	if idx < 0 {
		return ""
	}
	return route[:idx]
}

// IsTemplateRoute reports whether route contains a `:name` placeholder.
func IsTemplateRoute(route string) bool {
	for _, segment := range strings.Split(NormalizeRoute(route), "/") {
		if strings.HasPrefix(segment, ":") && len(segment) > 1 {
			return true
		}
	}
	return false
}

// DerivedID is the identifier used for pages that declare no explicit id.
func DerivedID(route string) string {
	route = NormalizeRoute(route)
	if route == "" {
		return "index"
	}
	return route
}

// IsAncestorRoute reports whether ancestor equals route or contains it at a
// segment boundary. The root route "" contains every route.
func IsAncestorRoute(ancestor, route string) bool {
	ancestor = NormalizeRoute(ancestor)
	route = NormalizeRoute(route)
	if ancestor == "" || ancestor == route {
		return true
	}
	return strings.HasPrefix(route, ancestor+"/")
}
