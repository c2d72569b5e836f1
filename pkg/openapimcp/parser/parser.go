package parser

import (
	"fmt"
	"strings"

	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

type ParseError struct {
	Message string
	Path    string
}

func (e ParseError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Message
	}
	return e.Message
}

type ParserOption func(*Parser)

// WithSpecURL records where the document came from so relative $refs resolve
// against it.
func WithSpecURL(specURL string) ParserOption {
	return func(p *Parser) {
		p.specURL = strings.TrimSpace(specURL)
	}
}

// Parser turns an OpenAPI 3.x document into HTTP routes.
type Parser struct {
	specURL string
	version string
	servers []string
	routes  []ir.HTTPRoute
}

// NewParser parses spec eagerly; the returned parser only serves results.
func NewParser(spec []byte, opts ...ParserOption) (*Parser, error) {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}

	version, err := DetectOpenAPIVersion(spec)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(version, "3.") {
		return nil, ParseError{Path: "openapi", Message: fmt.Sprintf("unsupported OpenAPI version: %s", version)}
	}
	p.version = version

	document, err := newDocument(spec, p.specURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	model, err := document.BuildV3Model()
	if err != nil {
		return nil, fmt.Errorf("failed to build v3 model: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("failed to build v3 model: empty result")
	}

	for _, server := range model.Model.Servers {
		if server != nil && server.URL != "" {
			p.servers = append(p.servers, server.URL)
		}
	}
	p.routes = p.collectRoutes(&model.Model)
	return p, nil
}

func (p *Parser) Routes() []ir.HTTPRoute {
	return append([]ir.HTTPRoute(nil), p.routes...)
}

// ServerURLs lists the document's servers entries in declaration order.
func (p *Parser) ServerURLs() []string {
	return append([]string(nil), p.servers...)
}

func (p *Parser) Version() string {
	return p.version
}

func (p *Parser) isOpenAPI30() bool {
	return strings.HasPrefix(p.version, "3.0")
}

func (p *Parser) collectRoutes(doc *v3.Document) []ir.HTTPRoute {
	var routes []ir.HTTPRoute
	if doc.Paths == nil || doc.Paths.PathItems == nil {
		return routes
	}

	for path, pathItem := range doc.Paths.PathItems.FromOldest() {
		if pathItem == nil {
			continue
		}
		common := p.convertParameters(pathItem.Parameters)

		for _, entry := range operationsOf(pathItem) {
			op := entry.operation
			route := ir.HTTPRoute{
				Path:        path,
				Method:      entry.method,
				OperationID: op.OperationId,
				Summary:     op.Summary,
				Description: op.Description,
				Tags:        op.Tags,
				Parameters:  mergeParameters(common, p.convertParameters(op.Parameters)),
				RequestBody: p.convertRequestBody(op.RequestBody),
				Responses:   p.convertResponses(op.Responses),
				Extensions:  convertExtensionsMap(op.Extensions),
			}
			routes = append(routes, route)
		}
	}
	return routes
}

type methodOperation struct {
	method    string
	operation *v3.Operation
}

// operationsOf lists a path item's operations in a stable method order.
func operationsOf(item *v3.PathItem) []methodOperation {
	all := []methodOperation{
		{"GET", item.Get},
		{"POST", item.Post},
		{"PUT", item.Put},
		{"DELETE", item.Delete},
		{"PATCH", item.Patch},
		{"HEAD", item.Head},
		{"OPTIONS", item.Options},
		{"TRACE", item.Trace},
	}
	result := all[:0]
	for _, entry := range all {
		if entry.operation != nil {
			result = append(result, entry)
		}
	}
	return result
}

// mergeParameters lets operation-level parameters replace path-level ones
// with the same name and location.
func mergeParameters(common, own []ir.ParameterInfo) []ir.ParameterInfo {
	if len(common) == 0 {
		return own
	}
	merged := make([]ir.ParameterInfo, 0, len(common)+len(own))
	for _, c := range common {
		overridden := false
		for _, o := range own {
			if o.Name == c.Name && o.In == c.In {
				overridden = true
				break
			}
		}
		if !overridden {
			merged = append(merged, c)
		}
	}
	return append(merged, own...)
}

func (p *Parser) convertParameters(params []*v3.Parameter) []ir.ParameterInfo {
	var result []ir.ParameterInfo
	for _, param := range params {
		if param == nil {
			continue
		}
		info := ir.ParameterInfo{
			Name:        param.Name,
			In:          param.In,
			Required:    param.Required != nil && *param.Required,
			Description: param.Description,
			Style:       param.Style,
			Explode:     param.Explode,
			Deprecated:  param.Deprecated,
		}
		if info.In == ir.ParameterInPath {
			info.Required = true
		}
		if param.Schema != nil {
			info.Schema = p.convertSchema(param.Schema.Schema())
		}
		if info.Description != "" && info.Schema != nil {
			if _, ok := info.Schema["description"]; !ok {
				info.Schema["description"] = info.Description
			}
		}
		result = append(result, info)
	}
	return result
}

func (p *Parser) convertRequestBody(body *v3.RequestBody) *ir.RequestBodyInfo {
	if body == nil {
		return nil
	}
	info := &ir.RequestBodyInfo{
		Required:       body.Required != nil && *body.Required,
		Description:    body.Description,
		ContentSchemas: make(map[string]ir.Schema),
	}
	if body.Content == nil {
		return info
	}
	for mediaType, media := range body.Content.FromOldest() {
		info.ContentOrder = append(info.ContentOrder, mediaType)
		if media == nil || media.Schema == nil {
			continue
		}
		info.ContentSchemas[mediaType] = p.convertSchema(media.Schema.Schema())
	}
	return info
}

func (p *Parser) convertResponses(responses *v3.Responses) map[string]ir.ResponseInfo {
	result := make(map[string]ir.ResponseInfo)
	if responses == nil {
		return result
	}
	if responses.Codes != nil {
		for status, response := range responses.Codes.FromOldest() {
			if response == nil {
				continue
			}
			result[status] = p.convertResponse(response)
		}
	}
	if responses.Default != nil {
		result["default"] = p.convertResponse(responses.Default)
	}
	return result
}

func (p *Parser) convertResponse(response *v3.Response) ir.ResponseInfo {
	info := ir.ResponseInfo{
		Description:    response.Description,
		ContentSchemas: make(map[string]ir.Schema),
	}
	if response.Content == nil {
		return info
	}
	for mediaType, media := range response.Content.FromOldest() {
		if media == nil || media.Schema == nil {
			continue
		}
		info.ContentSchemas[mediaType] = p.convertSchema(media.Schema.Schema())
	}
	return info
}
