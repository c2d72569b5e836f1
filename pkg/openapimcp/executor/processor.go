package executor

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/specx2/coingecko-mcp/pkg/openapimcp/ir"
)

var successStatuses = []string{"200", "201", "202", "203", "204"}

// maxResponseBody bounds how much of an upstream response is read.
const maxResponseBody = 16 << 20

type ResponseProcessor struct {
	outputSchema ir.Schema
	wrapResult   bool
	errorHandler *ErrorHandler
	validator    *jsonschema.Schema
}

func NewResponseProcessor(outputSchema ir.Schema, wrapResult bool, errorHandler *ErrorHandler) *ResponseProcessor {
	if errorHandler == nil {
		errorHandler = NewErrorHandler(nil)
	}
	return &ResponseProcessor{
		outputSchema: outputSchema,
		wrapResult:   wrapResult,
		errorHandler: errorHandler,
		validator:    compileIRSchema(outputSchema),
	}
}

func (rp *ResponseProcessor) Process(resp *http.Response) (*mcp.CallToolResult, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return rp.errorHandler.HandleHTTPResponse(resp, body), nil
	}

	var result interface{}
	if len(body) > 0 && json.Unmarshal(body, &result) == nil {
		return rp.processJSON(result, body), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(body)),
		},
	}, nil
}

func (rp *ResponseProcessor) processJSON(result interface{}, raw []byte) *mcp.CallToolResult {
	text := mcp.NewTextContent(string(raw))

	structured, ok := rp.prepareStructuredResult(result)
	if !ok {
		return &mcp.CallToolResult{Content: []mcp.Content{text}}
	}

	// a response that drifted from its declared schema is still returned,
	// only without the structured form the client would validate against
	if rp.validator != nil {
		if err := rp.validator.Validate(structured); err != nil {
			rp.errorHandler.logger.Debug("response does not match output schema")
			return &mcp.CallToolResult{Content: []mcp.Content{text}}
		}
	}

	return &mcp.CallToolResult{
		Content:           []mcp.Content{text},
		StructuredContent: structured,
	}
}

func (rp *ResponseProcessor) prepareStructuredResult(result interface{}) (map[string]interface{}, bool) {
	if rp.wrapResult {
		return map[string]interface{}{"result": result}, true
	}
	if resultMap, ok := result.(map[string]interface{}); ok {
		return resultMap, true
	}
	if rp.outputSchema != nil {
		// declared an object but got something else
		return nil, false
	}
	return map[string]interface{}{"result": result}, true
}
