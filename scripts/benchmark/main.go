// Command benchmark measures extraction latency and field coverage of a
// running prodex server across fetch modes.
//
//	go run ./scripts/benchmark -urls urls.txt -modes browser,auto
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/prodex/models"
)

var (
	apiURL   = flag.String("api-url", "http://localhost:8080", "prodex API base URL")
	apiKey   = flag.String("api-key", "", "API key for authenticated requests")
	urlsFile = flag.String("urls", "", "file with one product URL per line (optional store type after a space)")
	modes    = flag.String("modes", "browser,http,auto", "comma-separated fetch modes to compare")
	runs     = flag.Int("runs", 3, "runs per URL and mode")
	output   = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// target is one product page under test.
type target struct {
	URL       string `json:"url"`
	StoreType string `json:"store_type,omitempty"`
}

var defaultTargets = []target{
	{URL: "https://www.mercadolivre.com.br/p/MLB19615315", StoreType: "mercadolivre"},
	{URL: "https://www.lojasrenner.com.br/p/camiseta-basica/-/A-927727770-br.lr", StoreType: "vtex"},
	{URL: "https://www.amaro.com/br/pt/p/vestido-midi/00340190"},
}

type runResult struct {
	Run          int    `json:"run"`
	Mode         string `json:"mode"`
	TotalMs      int64  `json:"total_ms"`
	NavigationMs int64  `json:"navigation_ms"`
	ExtractionMs int64  `json:"extraction_ms"`
	Engine       string `json:"engine,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	HasTitle     bool   `json:"has_title"`
	HasPrice     bool   `json:"has_price"`
	HasDesc      bool   `json:"has_description"`
	Images       int    `json:"images"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

// coverage is the share of successful runs that found each field.
type coverage struct {
	Runs        int     `json:"runs"`
	AvgTotalMs  float64 `json:"avg_total_ms"`
	Title       float64 `json:"title"`
	Price       float64 `json:"price"`
	Description float64 `json:"description"`
	Images      float64 `json:"images"`
}

type targetResult struct {
	Target   target               `json:"target"`
	Runs     []runResult          `json:"runs"`
	Coverage map[string]*coverage `json:"coverage"`
}

type report struct {
	Timestamp  string         `json:"timestamp"`
	APIURL     string         `json:"api_url"`
	RunsPerURL int            `json:"runs_per_url"`
	Results    []targetResult `json:"results"`
}

func main() {
	flag.Parse()

	targets := defaultTargets
	if *urlsFile != "" {
		var err error
		if targets, err = readTargets(*urlsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *urlsFile, err)
			os.Exit(1)
		}
	}
	modeList := strings.Split(*modes, ",")

	fmt.Println("=== prodex benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Modes:     %s\n", strings.Join(modeList, ", "))
	fmt.Printf("Runs:      %d\n\n", *runs)

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		os.Exit(1)
	}

	rep := report{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}
	client := &http.Client{Timeout: 130 * time.Second}

	for _, tg := range targets {
		fmt.Printf("%s\n", tg.URL)
		tr := targetResult{Target: tg, Coverage: map[string]*coverage{}}
		for _, mode := range modeList {
			mode = strings.TrimSpace(mode)
			for i := 1; i <= *runs; i++ {
				rr := extractOnce(client, tg, mode, i)
				if rr.Success {
					fmt.Printf("  %-7s run %d  %5dms  %s/%s  title=%v price=%v desc=%v images=%d\n",
						mode, i, rr.TotalMs, rr.Engine, rr.Strategy, rr.HasTitle, rr.HasPrice, rr.HasDesc, rr.Images)
				} else {
					fmt.Printf("  %-7s run %d  FAILED: %s\n", mode, i, rr.Error)
				}
				tr.Runs = append(tr.Runs, rr)
			}
			tr.Coverage[mode] = computeCoverage(tr.Runs, mode)
		}
		rep.Results = append(rep.Results, tr)
		fmt.Println()
	}

	printTable(rep.Results, modeList)

	if err := writeJSON(*output, rep); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func readTargets(path string) ([]target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []target
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		tg := target{URL: fields[0]}
		if len(fields) > 1 {
			tg.StoreType = fields[1]
		}
		out = append(out, tg)
	}
	return out, sc.Err()
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func extractOnce(client *http.Client, tg target, mode string, run int) runResult {
	rr := runResult{Run: run, Mode: mode}

	body, err := json.Marshal(models.ExtractRequest{
		URL:       tg.URL,
		StoreType: tg.StoreType,
		FetchMode: mode,
		Timeout:   120,
	})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/extract", bytes.NewReader(body))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var er models.ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = er.Success
	rr.TotalMs = er.Timing.TotalMs
	rr.NavigationMs = er.Timing.NavigationMs
	rr.ExtractionMs = er.Timing.ExtractionMs
	rr.Engine = er.EngineUsed
	rr.Strategy = er.Strategy
	if p := er.Product; p != nil {
		rr.HasTitle = p.Title != ""
		rr.HasPrice = p.Price != ""
		rr.HasDesc = p.Description != ""
		rr.Images = len(p.Images)
	}
	if er.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", er.Error.Code, er.Error.Message)
	}
	return rr
}

func computeCoverage(all []runResult, mode string) *coverage {
	c := &coverage{}
	for _, r := range all {
		if r.Mode != mode || !r.Success {
			continue
		}
		c.Runs++
		c.AvgTotalMs += float64(r.TotalMs)
		c.Title += boolf(r.HasTitle)
		c.Price += boolf(r.HasPrice)
		c.Description += boolf(r.HasDesc)
		c.Images += boolf(r.Images > 0)
	}
	if c.Runs == 0 {
		return c
	}
	n := float64(c.Runs)
	c.AvgTotalMs /= n
	c.Title /= n
	c.Price /= n
	c.Description /= n
	c.Images /= n
	return c
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func printTable(results []targetResult, modeList []string) {
	fmt.Println(strings.Repeat("─", 96))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tMode\tOK\tAvg Latency\tTitle\tPrice\tDesc\tImages\n")
	for _, r := range results {
		for _, mode := range modeList {
			c := r.Coverage[strings.TrimSpace(mode)]
			if c == nil || c.Runs == 0 {
				fmt.Fprintf(w, "%s\t%s\t0\t-\t-\t-\t-\t-\n", truncateURL(r.Target.URL, 40), mode)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%dms\t%.0f%%\t%.0f%%\t%.0f%%\t%.0f%%\n",
				truncateURL(r.Target.URL, 40), mode, c.Runs, int64(c.AvgTotalMs),
				c.Title*100, c.Price*100, c.Description*100, c.Images*100)
		}
	}
	w.Flush()
	fmt.Println(strings.Repeat("─", 96))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
