package mapper

// DefaultRouteMappings is the catch-all that NewRouteMapper appends after the
// configured maps: anything left unmatched becomes a tool.
func DefaultRouteMappings() []RouteMap {
	return []RouteMap{*NewRouteMap()}
}
