package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"wsnav/internal/navigate"
	"wsnav/internal/session"
	"wsnav/internal/store"
)

const mcpServerVersion = "0.1.0"

// mcpTools serves navigation over MCP. Tools that change the remembered
// selection are registered only when writes are allowed.
type mcpTools struct {
	store      *store.Store
	nav        *navigate.Navigator
	session    *session.Store
	allowWrite bool
	logger     *zap.Logger
}

func runMCP(env *cmdEnv, args []string) int {
	fs := pflag.NewFlagSet("mcp", pflag.ContinueOnError)
	fs.SetOutput(env.errOut)
	name := fs.String("name", "wsnav", "Server name")
	version := fs.String("version", mcpServerVersion, "Server version")
	allowWrite := fs.Bool("allow-write", false, "Register visit, switch and forget tools")
	if err := fs.Parse(args); err != nil {
		return parseExit(err)
	}
	if len(fs.Args()) > 0 {
		fmt.Fprintf(env.errOut, "unexpected args: %s\n", strings.Join(fs.Args(), " "))
		return 2
	}

	cfg, st, code := env.setup()
	if code != 0 {
		return code
	}
	defer st.Close()
	defer env.sync()

	tools := &mcpTools{
		store:      st,
		nav:        env.navigator(cfg, st),
		session:    openSession(cfg),
		allowWrite: *allowWrite,
		logger:     env.log(),
	}
	srv := server.NewMCPServer(*name, *version, server.WithToolCapabilities(false))
	count := tools.register(srv)

	modeLabel := "write=disabled"
	if tools.allowWrite {
		modeLabel = "write=enabled"
	}
	fmt.Fprintf(env.errOut, "wsnav mcp: db=%s schema=v%d tools=%d (%s)\n",
		st.Path(), store.CurrentSchemaVersion(), count, modeLabel)

	if err := server.ServeStdio(srv); err != nil {
		fmt.Fprintf(env.errOut, "mcp server error: %v\n", err)
		return 1
	}
	return 0
}

func (t *mcpTools) register(srv *server.MCPServer) int {
	listTool := mcp.NewTool("wsnav_list_workspaces",
		mcp.WithDescription("List workspaces with their projects. Hidden workspaces are included and flagged."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("project", mcp.Description("Only workspaces containing this project")),
	)
	srv.AddTool(listTool, t.handleListWorkspaces)

	resolveTool := mcp.NewTool("wsnav_resolve",
		mcp.WithDescription("Report which workspace the root route lands on and which rule picked it. Nothing is remembered."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
	)
	srv.AddTool(resolveTool, t.handleResolve)

	planTool := mcp.NewTool("wsnav_plan",
		mcp.WithDescription("Compute the navigation plan for a path without applying it."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("path", mcp.Required(), mcp.Description("Route path, e.g. / or /staging")),
	)
	srv.AddTool(planTool, t.handlePlan)

	if !t.allowWrite {
		return 3
	}

	visitTool := mcp.NewTool("wsnav_visit",
		mcp.WithDescription("Navigate to a path and remember the workspace it lands on."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("path", mcp.Required(), mcp.Description("Route path, e.g. / or /staging")),
	)
	srv.AddTool(visitTool, t.handleVisit)

	switchTool := mcp.NewTool("wsnav_switch",
		mcp.WithDescription("Switch to another workspace, keeping the current page."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithString("workspace", mcp.Required(), mcp.Description("Target workspace")),
		mcp.WithString("from", mcp.Description("Path currently shown"), mcp.DefaultString("/")),
	)
	srv.AddTool(switchTool, t.handleSwitch)

	forgetTool := mcp.NewTool("wsnav_forget",
		mcp.WithDescription("Clear the remembered workspace."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)
	srv.AddTool(forgetTool, t.handleForget)
	return 6
}

func (t *mcpTools) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := strings.TrimSpace(request.GetString("project", ""))
	var workspaces []store.Workspace
	var err error
	if project != "" {
		workspaces, err = t.store.WorkspaceListByProject(ctx, project)
	} else {
		workspaces, err = t.store.WorkspaceList(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if workspaces == nil {
		workspaces = []store.Workspace{}
	}
	names := make([]string, 0, len(workspaces))
	for _, ws := range workspaces {
		names = append(names, ws.Name)
	}
	return structuredResult(fmt.Sprintf("Workspaces (%d): %s", len(names), strings.Join(names, ", ")), workspaces), nil
}

func (t *mcpTools) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decision, err := t.nav.Resolve(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return structuredResult(fmt.Sprintf("/%s (%s)", decision.Workspace, decision.Rule), decision), nil
}

func (t *mcpTools) handlePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := t.nav.Plan(ctx, strings.TrimSpace(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(plan), nil
}

func (t *mcpTools) handleVisit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := t.nav.Visit(ctx, strings.TrimSpace(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(plan), nil
}

func (t *mcpTools) handleSwitch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workspace, err := request.RequireString("workspace")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, err := navigate.ParseRoute(strings.TrimSpace(request.GetString("from", "/")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	plan, err := t.nav.Switch(ctx, strings.TrimSpace(workspace), from)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return planResult(plan), nil
}

func (t *mcpTools) handleForget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	previous, had, err := t.session.RememberedWorkspace()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := t.session.ForgetWorkspace(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if had {
		t.logger.Info("workspace forgotten", zap.String("workspace", previous))
	}
	result := map[string]any{"forgotten": had, "workspace": previous}
	return structuredResult(fmt.Sprintf("forgotten=%t", had), result), nil
}

func planResult(plan navigate.Plan) *mcp.CallToolResult {
	if plan.NotFound {
		return mcp.NewToolResultError(fmt.Sprintf("workspace not found: %s", plan.Target.Workspace))
	}
	return structuredResult(plan.URL, plan)
}

// structuredResult carries a short text line plus the JSON form for
// clients that ignore structured content.
func structuredResult(summary string, value any) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: summary},
		},
		StructuredContent: value,
	}
	if encoded, err := json.Marshal(value); err == nil {
		result.Content = append(result.Content, mcp.TextContent{Type: "text", Text: string(encoded)})
	}
	return result
}
