package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameCommit            = "commit"
	ToolNameInspectComponents = "inspect_components"
	ToolNameGetChange         = "get_change"
)

// Sentinel errors for tool input validation.
var (
	errEmptyNamespaceID = errors.New("namespace_id parameter is required and must not be empty")
	errEmptyChangeID    = errors.New("change_id parameter is required and must not be empty")
)

// Tool description constants.
const (
	commitToolDescription = "Run one commit cycle for a hosted namespace: walks its " +
		"object graph, serializes affected components, and returns the schema-validated " +
		"envelope for every atomic change produced. Creates the namespace on first use."

	inspectComponentsToolDescription = "Report the current component partition for a " +
		"hosted namespace: the disjoint groups of variable names produced by its most " +
		"recent commit."

	getChangeToolDescription = "Look up a previously transferred change's envelope by " +
		"id within a hosted namespace's change history."
)

// CommitInput is the input schema for the commit tool.
type CommitInput struct {
	NamespaceID string `json:"namespace_id"        jsonschema:"id of the namespace to commit"`
	FullWalk    bool   `json:"full_walk,omitempty" jsonschema:"disable the subtree visit limit for this commit (resync)"`
}

// CommitOutput is the structured output for the commit tool.
type CommitOutput struct {
	Changes []Envelope `json:"changes"`
}

// InspectComponentsInput is the input schema for the inspect_components tool.
type InspectComponentsInput struct {
	NamespaceID string `json:"namespace_id" jsonschema:"id of the namespace to inspect"`
}

// InspectComponentsOutput is the structured output for the inspect_components tool.
type InspectComponentsOutput struct {
	Components [][]string `json:"components"`
}

// GetChangeInput is the input schema for the get_change tool.
type GetChangeInput struct {
	NamespaceID string `json:"namespace_id" jsonschema:"id of the namespace the change belongs to"`
	ChangeID    string `json:"change_id"    jsonschema:"id of the change to look up"`
}

// GetChangeOutput is the structured output for the get_change tool.
type GetChangeOutput struct {
	Change Envelope `json:"change"`
}

// errorResult builds a CallToolResult with IsError set.
func errorResult(err error) (*mcpsdk.CallToolResult, struct{}, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, struct{}{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content for a
// successful tool call.
func jsonResult[T any](value T) (*mcpsdk.CallToolResult, T, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		var zero T

		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf("encode result: %v", err)}},
			IsError: true,
		}, zero, nil
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, value, nil
}

// handleCommit implements the commit tool.
func (s *Server) handleCommit(
	ctx context.Context, _ *mcpsdk.CallToolRequest, input CommitInput,
) (*mcpsdk.CallToolResult, CommitOutput, error) {
	if input.NamespaceID == "" {
		res, _, err := errorResult(errEmptyNamespaceID)

		return res, CommitOutput{}, err
	}

	changes, err := s.host.Commit(ctx, input.NamespaceID, input.FullWalk)
	if err != nil {
		res, _, rErr := errorResult(err)

		return res, CommitOutput{}, rErr
	}

	return jsonResult(CommitOutput{Changes: changes})
}

// handleInspectComponents implements the inspect_components tool.
func (s *Server) handleInspectComponents(
	_ context.Context, _ *mcpsdk.CallToolRequest, input InspectComponentsInput,
) (*mcpsdk.CallToolResult, InspectComponentsOutput, error) {
	if input.NamespaceID == "" {
		res, _, err := errorResult(errEmptyNamespaceID)

		return res, InspectComponentsOutput{}, err
	}

	components, err := s.host.Components(input.NamespaceID)
	if err != nil {
		res, _, rErr := errorResult(err)

		return res, InspectComponentsOutput{}, rErr
	}

	return jsonResult(InspectComponentsOutput{Components: components})
}

// handleGetChange implements the get_change tool.
func (s *Server) handleGetChange(
	_ context.Context, _ *mcpsdk.CallToolRequest, input GetChangeInput,
) (*mcpsdk.CallToolResult, GetChangeOutput, error) {
	if input.NamespaceID == "" {
		res, _, err := errorResult(errEmptyNamespaceID)

		return res, GetChangeOutput{}, err
	}

	if input.ChangeID == "" {
		res, _, err := errorResult(errEmptyChangeID)

		return res, GetChangeOutput{}, err
	}

	env, err := s.host.GetChange(input.NamespaceID, input.ChangeID)
	if err != nil {
		res, _, rErr := errorResult(err)

		return res, GetChangeOutput{}, rErr
	}

	return jsonResult(GetChangeOutput{Change: env})
}
