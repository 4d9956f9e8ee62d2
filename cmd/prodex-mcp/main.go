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
	"github.com/use-agent/prodex/models"
)

func main() {
	apiURL := os.Getenv("PRODEX_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("PRODEX_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PRODEX_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"prodex",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_product",
		mcp.WithDescription("Load a product page and return its title, price, description and image URLs. Handles VTEX stores, Mercado Livre and generic storefronts."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithString("store_type",
			mcp.Description("Optional platform hint: 'vtex', 'mercadolivre' or 'generic'. Detected from the URL when omitted."),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'browser' (default, headless Chrome), 'http' (no JavaScript) or 'auto' (try HTTP, escalate to browser)"),
			mcp.Enum("browser", "http", "auto"),
		),
	)
	s.AddTool(extractTool, handleExtractProduct(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_extract",
		mcp.WithDescription("Extract products from up to 50 product pages in parallel."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Product page URLs"),
		),
		mcp.WithString("store_type",
			mcp.Description("Optional platform hint applied to every URL"),
		),
	)
	s.AddTool(batchTool, handleBatchExtract(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiClient talks to a running prodex server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(baseURL, apiKey string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// call sends in (if non-nil) as JSON and decodes the reply into out. Error
// replies carrying an ExtractResponse-shaped body are decoded too, so the
// caller sees the structured error.
func (c *apiClient) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// waitBatch polls the job until it leaves the processing state.
func (c *apiClient) waitBatch(ctx context.Context, id string, every time.Duration) (*models.BatchStatusResponse, error) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
		var st models.BatchStatusResponse
		if err := c.call(ctx, http.MethodGet, "/api/v1/batch/"+id, nil, &st); err != nil {
			return nil, err
		}
		if st.Status != models.BatchProcessing {
			return &st, nil
		}
	}
}

func handleExtractProduct(apiURL, apiKey string) server.ToolHandlerFunc {
	api := newAPIClient(apiURL, apiKey, 130*time.Second)

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		in := models.ExtractRequest{
			URL:       url,
			StoreType: request.GetString("store_type", ""),
			FetchMode: request.GetString("fetch_mode", ""),
		}
		var resp models.ExtractResponse
		if err := api.call(ctx, http.MethodPost, "/api/v1/extract", in, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(failure(&resp)), nil
		}
		return mcp.NewToolResultText(formatProduct(&resp)), nil
	}
}

func handleBatchExtract(apiURL, apiKey string) server.ToolHandlerFunc {
	api := newAPIClient(apiURL, apiKey, 30*time.Second)

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		in := models.BatchRequest{
			URLs:    urls,
			Options: models.BatchOptions{StoreType: request.GetString("store_type", "")},
		}
		var job models.BatchResponse
		if err := api.call(ctx, http.MethodPost, "/api/v1/batch/extract", in, &job); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if job.ID == "" {
			return mcp.NewToolResultError("batch job was not created"), nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		status, err := api.waitBatch(ctx, job.ID, 2*time.Second)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch %s: %v", job.ID, err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
		for i, r := range status.Results {
			if r.Success {
				fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n\n", i+1, r.SourceURL, formatProduct(r))
			} else {
				fmt.Fprintf(&sb, "--- [%d] FAILED: %s ---\n\n", i+1, failure(r))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func failure(resp *models.ExtractResponse) string {
	if resp.Error == nil {
		return "extraction failed"
	}
	return fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
}

// formatProduct renders the record as indented JSON under a short header.
func formatProduct(resp *models.ExtractResponse) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Source: %s\nStrategy: %s (engine %s)\n\n", resp.SourceURL, resp.Strategy, resp.EngineUsed)
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp.Product)
	return b.String()
}
