package ir

// HTTPRoute is one OpenAPI operation flattened out of its path item.
type HTTPRoute struct {
	Path        string
	Method      string
	OperationID string
	Summary     string
	Description string
	Tags        []string
	Parameters  []ParameterInfo
	RequestBody *RequestBodyInfo
	Responses   map[string]ResponseInfo
	Extensions  map[string]interface{}
}

// ParamMapping ties a tool argument name back to the OpenAPI parameter it feeds.
type ParamMapping struct {
	OpenAPIName string
	Location    string
	IsSuffixed  bool
}

// Key identifies the route the way custom names and logs refer to it.
func (r HTTPRoute) Key() string {
	return r.Method + " " + r.Path
}
