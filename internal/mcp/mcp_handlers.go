package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	repos   contract.RepositoryStore
	engine  Engine
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleAddRepository(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url := strings.TrimSpace(request.GetString("url", ""))
	if url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}

	repo, err := h.repos.CreateRepository(schema.Repository{
		URL:         url,
		Name:        request.GetString("name", ""),
		Branch:      request.GetString("branch", ""),
		Description: request.GetString("description", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add repository: %v", err)), nil
	}
	return jsonResult(repo), nil
}

func (h *toolHandler) handleListRepositories(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset := request.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}
	limit := request.GetInt("limit", h.baseCfg.ResultLimit)
	if limit < 1 || limit > contract.MaxResultLimit {
		return mcp.NewToolResultError(fmt.Sprintf("limit must be between 1 and %d", contract.MaxResultLimit)), nil
	}

	repos, err := h.repos.ListRepositories(offset, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list repositories: %v", err)), nil
	}
	if repos == nil {
		repos = []schema.Repository{}
	}
	return jsonResult(repos), nil
}

func (h *toolHandler) handleSubmitAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repoID := int64(request.GetInt("repository_id", 0))
	if repoID <= 0 {
		return mcp.NewToolResultError("repository_id must be a positive integer"), nil
	}
	commit := strings.TrimSpace(request.GetString("commit", ""))

	job, err := h.engine.Submit(ctx, repoID, commit)
	if err != nil {
		var conflict *contract.ConflictError
		switch {
		case errors.As(err, &conflict):
			return mcp.NewToolResultError(fmt.Sprintf("analysis already in progress: job %s is %s", conflict.ActiveJobID, conflict.ActiveStatus)), nil
		case errors.Is(err, contract.ErrRepositoryNotFound):
			return mcp.NewToolResultError(fmt.Sprintf("repository %d not found", repoID)), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("failed to submit analysis: %v", err)), nil
		}
	}

	if request.GetBool("wait", false) {
		if job, err = h.engine.Wait(ctx, job.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to wait for job: %v", err)), nil
		}
	}
	return jsonResult(job), nil
}

func (h *toolHandler) handleGetAnalysis(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("job_id", ""))
	if id == "" {
		return mcp.NewToolResultError("job_id is required"), nil
	}

	job, err := h.engine.Get(id)
	if err != nil {
		if errors.Is(err, contract.ErrJobNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("job %s not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load job: %v", err)), nil
	}
	return jsonResult(job), nil
}

func (h *toolHandler) handleCancelAnalysis(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(request.GetString("job_id", ""))
	if id == "" {
		return mcp.NewToolResultError("job_id is required"), nil
	}

	if err := h.engine.Cancel(id); err != nil {
		if errors.Is(err, contract.ErrJobNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("job %s not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to cancel job: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cancellation requested for job %s", id)), nil
}
