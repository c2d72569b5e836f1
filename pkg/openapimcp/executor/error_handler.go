package executor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of an upstream error body is echoed back.
const maxErrorBody = 2048

// ErrorHandler turns failures into MCP tool errors so a bad call never
// tears down the session.
type ErrorHandler struct {
	logger *zap.Logger
}

func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{logger: logger}
}

func (eh *ErrorHandler) HandleHTTPError(err error) *mcp.CallToolResult {
	eh.logger.Warn("upstream request failed", zap.Error(err))
	return errorResult("Request failed: " + err.Error())
}

func (eh *ErrorHandler) HandleValidationError(err error) *mcp.CallToolResult {
	eh.logger.Debug("argument validation failed", zap.Error(err))
	return errorResult("Parameter validation failed: " + err.Error())
}

func (eh *ErrorHandler) HandleBuildError(err error) *mcp.CallToolResult {
	eh.logger.Debug("request build failed", zap.Error(err))
	return errorResult("Failed to build request: " + err.Error())
}

func (eh *ErrorHandler) HandleResponseError(err error) *mcp.CallToolResult {
	eh.logger.Warn("response processing failed", zap.Error(err))
	return errorResult("Failed to process response: " + err.Error())
}

// HandleHTTPResponse reports a non-2xx upstream answer, keeping the decoded
// body in the structured content when it is JSON.
func (eh *ErrorHandler) HandleHTTPResponse(resp *http.Response, body []byte) *mcp.CallToolResult {
	eh.logger.Info("upstream returned error status",
		zap.Int("status", resp.StatusCode),
		zap.String("url", requestURL(resp)),
	)

	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}

	message := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, statusText(resp))
	if text != "" {
		message += " - " + text
	}

	structured := map[string]interface{}{
		"status": resp.StatusCode,
	}
	var decoded interface{}
	if len(body) > 0 && json.Unmarshal(body, &decoded) == nil {
		structured["body"] = decoded
	} else if text != "" {
		structured["body"] = text
	}

	result := errorResult(message)
	result.StructuredContent = structured
	return result
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
	}
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

func requestURL(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	u := *resp.Request.URL
	u.RawQuery = ""
	return u.String()
}
