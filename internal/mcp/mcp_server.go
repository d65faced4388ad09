// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/nishalpattan/code-review-analyzer/core"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/schema"
)

// shutdownGrace bounds how long running jobs may finish after the client disconnects.
const shutdownGrace = 30 * time.Second

// Engine is the part of core.Engine the tools drive.
type Engine interface {
	Submit(ctx context.Context, repoID int64, commit string) (*schema.AnalysisJob, error)
	Wait(ctx context.Context, id string) (*schema.AnalysisJob, error)
	Get(id string) (*schema.AnalysisJob, error)
	Cancel(id string) error
}

var _ Engine = &core.Engine{} // Compile-time check

// NewMCPServer initializes and configures the analyzer MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, repos contract.RepositoryStore, engine Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"Code Review Analyzer Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		repos:   repos,
		engine:  engine,
	}

	// --- 1. Tool: add_repository ---
	s.AddTool(mcp.NewTool("add_repository",
		mcp.WithDescription("Register a repository (clone URL or local path) for analysis."),
		mcp.WithString("url", mcp.Description("Clone URL or local path of the repository."), mcp.Required()),
		mcp.WithString("name", mcp.Description("Display name. Derived from the URL if omitted.")),
		mcp.WithString("branch", mcp.Description("Branch to analyze. Defaults to 'main'.")),
		mcp.WithString("description", mcp.Description("Free-form description.")),
	), h.handleAddRepository)

	// --- 2. Tool: list_repositories ---
	s.AddTool(mcp.NewTool("list_repositories",
		mcp.WithDescription("List registered repositories ordered by id."),
		mcp.WithNumber("offset", mcp.Description("Number of repositories to skip.")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of repositories returned.")),
	), h.handleListRepositories)

	// --- 3. Tool: submit_analysis ---
	s.AddTool(mcp.NewTool("submit_analysis",
		mcp.WithDescription("Start an analysis job for a registered repository. Fails while the repository already has an active job."),
		mcp.WithNumber("repository_id", mcp.Description("Id of the registered repository."), mcp.Required()),
		mcp.WithString("commit", mcp.Description("Commit to analyze. Defaults to the branch head.")),
		mcp.WithBoolean("wait", mcp.Description("Block until the job is finished and return the final result.")),
	), h.handleSubmitAnalysis)

	// --- 4. Tool: get_analysis ---
	s.AddTool(mcp.NewTool("get_analysis",
		mcp.WithDescription("Fetch an analysis job with its scores, tool summaries and issues."),
		mcp.WithString("job_id", mcp.Description("Id returned by submit_analysis."), mcp.Required()),
	), h.handleGetAnalysis)

	// --- 5. Tool: cancel_analysis ---
	s.AddTool(mcp.NewTool("cancel_analysis",
		mcp.WithDescription("Cancel a pending or running analysis job."),
		mcp.WithString("job_id", mcp.Description("Id returned by submit_analysis."), mcp.Required()),
	), h.handleCancelAnalysis)

	return s
}

// StartMCPServer starts the analyzer MCP server on stdio and waits for
// running jobs once the client disconnects.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	engine, err := core.NewEngineFromStores(baseCfg, mgr)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = engine.Shutdown(ctx)
	}()

	s := NewMCPServer(baseCfg, mgr.GetRepositoryStore(), engine)
	return server.ServeStdio(s)
}
