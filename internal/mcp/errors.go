package mcp

import (
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/transport"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var recoveryHints = map[string]string{
	transport.CodeProjectNotFound:   "Check the project id with list_projects",
	transport.CodeEstimateNotFound:  "Check the estimate id with list_estimates",
	transport.CodeInvoiceNotFound:   "Check the invoice id with list_invoices",
	transport.CodeInvalidTransition: "Read buildwise://docs/lifecycle for the allowed status edges",
	transport.CodeInvalidState:      "Fetch the project and check its current status",
	transport.CodeConflict:          "Another writer changed the project; retry the call",
	transport.CodeForbidden:         "The caller's role does not allow this operation",
}

// MapError maps domain errors to MCP error codes. Unknown errors map to
// INTERNAL without echoing their text.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	p := transport.Classify(err)
	msg := err.Error()
	if p.Code == transport.CodeInternal {
		msg = "internal error"
	}
	return &APIError{Code: p.Code, Message: msg, RecoveryHint: recoveryHints[p.Code]}
}

// errorResult reports err as a tool error carrying the APIError as JSON.
func errorResult(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

// jsonResult returns v as the tool's text content.
func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
