package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

// RequestBuilder turns validated tool arguments into an upstream request.
type RequestBuilder struct {
	route           ir.HTTPRoute
	paramMap        map[string]ir.ParamMapping
	baseURL         string
	bodyContentType string
}

func NewRequestBuilder(route ir.HTTPRoute, paramMap map[string]ir.ParamMapping, baseURL string) *RequestBuilder {
	return &RequestBuilder{
		route:           route,
		paramMap:        paramMap,
		baseURL:         baseURL,
		bodyContentType: route.RequestBody.PreferredContentType(),
	}
}

func (rb *RequestBuilder) Build(ctx context.Context, args map[string]interface{}) (*http.Request, error) {
	pathParams := make(map[string]string)
	queryParams := url.Values{}
	headerParams := make(map[string]string)
	cookieParams := make(map[string]string)
	bodyParams := make(map[string]interface{})

	for argName, argValue := range args {
		if argValue == nil {
			continue
		}

		mapping, ok := rb.paramMap[argName]
		if !ok {
			// unmapped arguments belong to the body when the operation has one
			if rb.route.RequestBody != nil {
				bodyParams[argName] = argValue
			}
			continue
		}

		switch mapping.Location {
		case ir.ParameterInPath:
			pathParams[mapping.OpenAPIName] = formatScalar(argValue)
		case ir.ParameterInQuery:
			rb.addQueryParam(queryParams, mapping, argValue)
		case ir.ParameterInHeader:
			headerParams[mapping.OpenAPIName] = formatScalar(argValue)
		case ir.ParameterInCookie:
			cookieParams[mapping.OpenAPIName] = formatScalar(argValue)
		case ir.LocationBody:
			bodyParams[mapping.OpenAPIName] = argValue
		}
	}

	if missing := rb.missingPathParameters(pathParams); len(missing) > 0 {
		return nil, fmt.Errorf("missing required path parameter(s): %s", strings.Join(missing, ", "))
	}

	reqURL, err := rb.buildURL(pathParams, queryParams)
	if err != nil {
		return nil, err
	}

	bodyReader, contentType, err := rb.buildBody(bodyParams)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, rb.route.Method, reqURL, bodyReader)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := rb.acceptHeader(); accept != "" {
		req.Header.Set("Accept", accept)
	}
	for name, value := range headerParams {
		req.Header.Set(name, value)
	}
	for name, value := range cookieParams {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	return req, nil
}

func (rb *RequestBuilder) missingPathParameters(pathParams map[string]string) []string {
	var missing []string
	for _, param := range rb.route.Parameters {
		if param.In != ir.ParameterInPath {
			continue
		}
		if _, ok := pathParams[param.Name]; ok {
			continue
		}
		missing = append(missing, param.Name)
	}
	sort.Strings(missing)
	return missing
}

func (rb *RequestBuilder) buildURL(pathParams map[string]string, queryParams url.Values) (string, error) {
	urlPath := rb.route.Path
	for name, value := range pathParams {
		urlPath = strings.ReplaceAll(urlPath, "{"+name+"}", url.PathEscape(value))
	}

	fullURL := urlPath
	if rb.baseURL != "" {
		fullURL = strings.TrimSuffix(rb.baseURL, "/") + "/" + strings.TrimPrefix(urlPath, "/")
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if len(queryParams) > 0 {
		parsedURL.RawQuery = queryParams.Encode()
	}
	return parsedURL.String(), nil
}

func (rb *RequestBuilder) buildBody(bodyParams map[string]interface{}) (io.Reader, string, error) {
	if len(bodyParams) == 0 {
		return nil, "", nil
	}

	contentType := rb.bodyContentType
	if contentType == "" {
		contentType = "application/json"
	}

	switch {
	case strings.Contains(contentType, "json"):
		data, err := json.Marshal(bodyParams)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode JSON body: %w", err)
		}
		return bytes.NewReader(data), contentType, nil
	case strings.Contains(contentType, "application/x-www-form-urlencoded"):
		values := url.Values{}
		for name, value := range bodyParams {
			if items, ok := value.([]interface{}); ok {
				for _, item := range items {
					values.Add(name, formatScalar(item))
				}
				continue
			}
			values.Set(name, formatScalar(value))
		}
		return strings.NewReader(values.Encode()), contentType, nil
	default:
		data, err := json.Marshal(bodyParams)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func (rb *RequestBuilder) acceptHeader() string {
	for _, status := range successStatuses {
		if resp, ok := rb.route.Responses[status]; ok {
			if ct := resp.PreferredContentType(); ct != "" {
				return ct
			}
		}
	}
	return ""
}

func (rb *RequestBuilder) addQueryParam(params url.Values, mapping ir.ParamMapping, value interface{}) {
	name := mapping.OpenAPIName
	info := rb.findParameterInfo(name, ir.ParameterInQuery)

	items, ok := value.([]interface{})
	if !ok {
		params.Add(name, formatScalar(value))
		return
	}

	explode := true
	if info != nil && info.Explode != nil {
		explode = *info.Explode
	}
	strValues := make([]string, len(items))
	for i, item := range items {
		strValues[i] = formatScalar(item)
	}

	switch {
	case info != nil && info.Style == "pipeDelimited":
		params.Add(name, strings.Join(strValues, "|"))
	case info != nil && info.Style == "spaceDelimited":
		params.Add(name, strings.Join(strValues, " "))
	case explode:
		for _, v := range strValues {
			params.Add(name, v)
		}
	default:
		params.Add(name, strings.Join(strValues, ","))
	}
}

func (rb *RequestBuilder) findParameterInfo(name string, location string) *ir.ParameterInfo {
	for i := range rb.route.Parameters {
		param := &rb.route.Parameters[i]
		if param.Name == name && param.In == location {
			return param
		}
	}
	return nil
}

// formatScalar renders JSON numbers without exponent notation so integer
// ids survive the float64 round trip.
func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case json.Number:
		return v.String()
	default:
		if data, err := json.Marshal(v); err == nil && (strings.HasPrefix(string(data), "{") || strings.HasPrefix(string(data), "[")) {
			return string(data)
		}
		return fmt.Sprintf("%v", v)
	}
}
