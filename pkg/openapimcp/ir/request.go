package ir

type RequestBodyInfo struct {
	Required       bool
	Description    string
	ContentSchemas map[string]Schema
	ContentOrder   []string
}

type ResponseInfo struct {
	Description    string
	ContentSchemas map[string]Schema
}

// PreferredContentType picks the first JSON media type in declaration order,
// falling back to the first declared one.
func (b *RequestBodyInfo) PreferredContentType() string {
	if b == nil {
		return ""
	}
	return preferJSON(b.ContentOrder, b.ContentSchemas)
}

// PreferredContentType mirrors RequestBodyInfo.PreferredContentType for responses.
func (r ResponseInfo) PreferredContentType() string {
	return preferJSON(nil, r.ContentSchemas)
}
