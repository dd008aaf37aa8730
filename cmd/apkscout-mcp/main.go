package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/apkscout/models"
)

func main() {
	apiURL := os.Getenv("APKSCOUT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("APKSCOUT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "APKSCOUT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"apkscout",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	resolveTool := mcp.NewTool("resolve_app",
		mcp.WithDescription("Look up an Android application on APKMirror by name and return its direct APK download link plus a fallback link from another listing of the same app."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Application name, e.g. 'Life360' or 'Family Link'"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum listing candidates to try (default: server setting, max: 50)"),
		),
	)
	s.AddTool(resolveTool, handleResolveApp(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_resolve",
		mcp.WithDescription("Resolve several application names in one job and return the download links found for each."),
		mcp.WithArray("queries",
			mcp.Required(),
			mcp.Description("Application names to resolve"),
		),
	)
	s.AddTool(batchTool, handleBatchResolve(apiURL, apiKey, 2*time.Second))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the apkscout API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollBatch polls a batch job until its status is no longer "processing".
func pollBatch(ctx context.Context, client *http.Client, apiURL, apiKey, id string, every time.Duration) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/batch/"+id, nil)
			if err != nil {
				return nil, err
			}
			var status models.BatchStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != "processing" {
				return &status, nil
			}
		}
	}
}

func handleResolveApp(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := models.ResolveRequest{
			Query:      query,
			MaxResults: request.GetInt("max_results", 0),
		}
		body, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/resolve", payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.ResolveResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			errMsg := "resolve failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}
		if resp.Entry == nil {
			return mcp.NewToolResultText(fmt.Sprintf("No downloadable listing found for %q.", query)), nil
		}
		return mcp.NewToolResultText(formatEntry(resp.Entry)), nil
	}
}

func handleBatchResolve(apiURL, apiKey string, pollEvery time.Duration) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		queries, err := request.RequireStringSlice("queries")
		if err != nil || len(queries) == 0 {
			return mcp.NewToolResultError("queries is required and must be an array of strings"), nil
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/batch/resolve", models.BatchRequest{Queries: queries})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		var created models.BatchResponse
		if err := json.Unmarshal(body, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}
		if created.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		status, err := pollBatch(ctx, client, apiURL, apiKey, created.ID, pollEvery)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d)\n", status.ID, status.Status, status.Completed, status.Total)
		if status.Error != nil {
			fmt.Fprintf(&sb, "Error: [%s] %s\n", status.Error.Code, status.Error.Message)
		}
		for _, item := range status.Results {
			sb.WriteString("\n## " + item.Query + "\n")
			switch {
			case item.Error != nil:
				fmt.Fprintf(&sb, "Failed: [%s] %s\n", item.Error.Code, item.Error.Message)
			case item.Entry == nil:
				sb.WriteString("No downloadable listing found.\n")
			default:
				sb.WriteString(formatEntry(item.Entry))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// formatEntry renders an entry as a short text block.
func formatEntry(e *models.ResolvedEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nListing: %s\n", e.Title, e.URL)
	if e.Developer != "" {
		fmt.Fprintf(&sb, "Developer: %s\n", e.Developer)
	}
	if e.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", e.Version)
	}
	fmt.Fprintf(&sb, "Direct download: %s\n", e.DirectDownloadURL)
	if e.FallbackDownloadURL != "" {
		fmt.Fprintf(&sb, "Fallback download: %s\n", e.FallbackDownloadURL)
	} else {
		sb.WriteString("Fallback download: none found\n")
	}
	if e.Description != "" {
		sb.WriteString("\n" + e.Description + "\n")
	}
	return sb.String()
}
