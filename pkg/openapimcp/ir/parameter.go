package ir

type ParameterInfo struct {
	Name        string
	In          string
	Required    bool
	Schema      Schema
	Description string
	Explode     *bool
	Style       string
	Deprecated  bool
}

const (
	ParameterInPath   = "path"
	ParameterInQuery  = "query"
	ParameterInHeader = "header"
	ParameterInCookie = "cookie"

	// LocationBody marks tool arguments that are request body properties.
	LocationBody = "body"
)
