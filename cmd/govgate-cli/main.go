package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/davidahmann/govgate/internal/api"
	"github.com/davidahmann/govgate/internal/audit"
	"github.com/davidahmann/govgate/internal/engine"
	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/pkg/types"
)

func main() {
	exitFn(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

var (
	good = color.New(color.FgGreen, color.Bold)
	warn = color.New(color.FgYellow, color.Bold)
	bad  = color.New(color.FgRed, color.Bold)
)

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "evaluate", "intercept", "validate":
		return handleAction(args[1], args[2:], stdin, stdout, stderr)
	case "tables":
		return handleTables(args[2:], stdout, stderr)
	case "audit":
		return handleAudit(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleAction(action string, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet(action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", os.Getenv("GOVGATE_ADDR"), "gateway address; empty evaluates locally")
	token := fs.String("token", envOrDefault("GOVGATE_TOKEN", os.Getenv("GOVGATE_DEV_TOKEN")), "bearer token")
	tablesPath := fs.String("tables", "", "tables override for local evaluation")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	noColor := fs.Bool("no-color", false, "disable colored output")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintf(stderr, "%s takes at most one <request.json>\n", action)
		fs.Usage()
		return 2
	}
	if *noColor {
		color.NoColor = true
	}

	body, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintln(stderr, "read input:", err)
		return 1
	}

	var out []byte
	if *addr != "" {
		var status int
		out, status, err = httpPost(http.DefaultClient, strings.TrimRight(*addr, "/")+"/v1/"+action, *token, body)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		if status != http.StatusOK {
			fmt.Fprintf(stderr, "%s failed: %s\n", action, strings.TrimSpace(string(out)))
			return 1
		}
	} else {
		out, err = evaluateLocal(action, *tablesPath, body)
		if err != nil {
			fmt.Fprintf(stderr, "%s failed: %v\n", action, err)
			return 1
		}
	}

	if *jsonOut {
		_, _ = stdout.Write(out)
		return 0
	}
	if err := summarize(action, out, stdout); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	return 0
}

func evaluateLocal(action, tablesPath string, body []byte) ([]byte, error) {
	tables, err := policy.LoadTables(tablesPath)
	if err != nil {
		return nil, err
	}
	var req engine.Request
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	req.Action = action

	res, err := engine.New(tables, "").Dispatch(req)
	if err != nil {
		return nil, err
	}
	if r, ok := res.(types.InterceptResult); ok {
		res = api.InterceptResponse{InterceptResult: r}
	}
	return json.Marshal(res)
}

func summarize(action string, raw []byte, w io.Writer) error {
	switch action {
	case "evaluate":
		var a types.RiskAssessment
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		fmt.Fprintf(w, "overall=%d level=%s\n", a.OverallScore, levelColor(a.RiskLevel).Sprint(a.RiskLevel))
		for _, f := range a.Risks {
			fmt.Fprintf(w, "  %-13s %3d  %s\n", f.Category, f.Score, f.PrimaryConcern)
		}
		for _, bc := range a.BoundaryConditions {
			fmt.Fprintf(w, "  boundary %s %s %s\n", bc.ID, bc.Status, bc.Rule)
		}
	case "intercept":
		var res api.InterceptResponse
		if err := json.Unmarshal(raw, &res); err != nil {
			return err
		}
		fmt.Fprintf(w, "route=%s allow=%t score=%d level=%s next=%s\n",
			routeColor(res.Routing.Route).Sprint(res.Routing.Route), res.Routing.Allow,
			res.OverallScore, levelColor(res.RiskLevel).Sprint(res.RiskLevel), res.NextAction)
		if res.Routing.BlockReason != "" {
			fmt.Fprintf(w, "  reason: %s\n", res.Routing.BlockReason)
		}
		for _, c := range res.Routing.Conditions {
			fmt.Fprintf(w, "  condition: %s\n", c)
		}
		fmt.Fprintf(w, "  decision_id=%s trace_id=%s\n", res.DecisionID, res.GovernanceHeaders.TraceID)
		if res.Audit != "" {
			fmt.Fprintf(w, "  audit=%s\n", res.Audit)
		}
	case "validate":
		var p types.PermissionResult
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		verdict := good.Sprint("valid")
		if !p.Valid {
			verdict = bad.Sprint("invalid")
		}
		fmt.Fprintf(w, "%s required=%s missing=%s\n", verdict, strings.Join(p.Required, ","), strings.Join(p.Missing, ","))
	}
	return nil
}

func routeColor(route types.Route) *color.Color {
	switch route {
	case types.RouteAutoApprove:
		return good
	case types.RouteConditional, types.RouteManualReview:
		return warn
	default:
		return bad
	}
}

func levelColor(level types.RiskLevel) *color.Color {
	switch level {
	case types.RiskLow:
		return good
	case types.RiskMedium:
		return warn
	default:
		return bad
	}
}

func handleTables(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(stderr, "tables takes at most one <tables_path>")
		return 2
	}
	loaded, err := policy.LoadTables(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	fmt.Fprintf(stdout, "ok tables_id=%s tables_version=%s tables_hash=%s\n",
		loaded.Tables.TablesID, loaded.Tables.TablesVersion, loaded.Hash)
	return 0
}

func handleAudit(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	driver := fs.String("driver", envOrDefault("GOVGATE_AUDIT_DRIVER", audit.DriverJSONL), "audit driver: jsonl or sqlite")
	path := fs.String("path", os.Getenv("GOVGATE_AUDIT_PATH"), "jsonl audit file")
	dsn := fs.String("dsn", os.Getenv("GOVGATE_AUDIT_DSN"), "sqlite audit dsn")
	jsonOut := fs.Bool("json", false, "print records as JSON")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "audit requires <decision_id>")
		fs.Usage()
		return 2
	}
	decisionID := fs.Arg(0)

	if strings.EqualFold(*driver, audit.DriverJSONL) && *path != "" {
		if _, err := os.Stat(*path); err != nil {
			fmt.Fprintln(stderr, "open audit:", err)
			return 1
		}
	}

	ctx := context.Background()
	sink, err := audit.Open(ctx, audit.Config{Driver: *driver, Path: *path, DSN: *dsn})
	if err != nil {
		fmt.Fprintln(stderr, "open audit:", err)
		return 1
	}
	if sink == nil {
		fmt.Fprintf(stderr, "audit driver %q does not support lookup\n", *driver)
		return 1
	}
	defer sink.Close()
	finder, ok := sink.(audit.Finder)
	if !ok {
		fmt.Fprintf(stderr, "audit driver %q does not support lookup\n", *driver)
		return 1
	}

	records, err := finder.Find(ctx, decisionID)
	if err != nil {
		fmt.Fprintln(stderr, "audit lookup:", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Fprintf(stderr, "no audit records for %s\n", decisionID)
		return 1
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(records)
		return 0
	}
	for _, rec := range records {
		fmt.Fprintf(stdout, "%s route=%s allow=%t score=%d level=%s intercept_id=%s subject=%s\n",
			rec.CreatedAt.Format(time.RFC3339), routeColor(rec.Route).Sprint(rec.Route), rec.Allow,
			rec.OverallScore, rec.RiskLevel, rec.InterceptID, rec.Subject)
		if rec.BlockReason != "" {
			fmt.Fprintf(stdout, "  reason: %s\n", rec.BlockReason)
		}
	}
	return 0
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	// #nosec G304 -- path is an operator-provided request file.
	return os.ReadFile(path)
}

func httpPost(client *http.Client, url string, token string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return out, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `govgate CLI

Usage:
  govgate-cli evaluate  [--addr URL] [--token TOKEN] [--tables PATH] [--json] [request.json|-]
  govgate-cli intercept [--addr URL] [--token TOKEN] [--tables PATH] [--json] [request.json|-]
  govgate-cli validate  [--addr URL] [--token TOKEN] [--tables PATH] [--json] [request.json|-]
  govgate-cli tables    [tables_path]
  govgate-cli audit     [--driver jsonl|sqlite] [--path FILE] [--dsn DSN] [--json] <decision_id>

Without --addr the request is evaluated in-process against the embedded
tables or the --tables override.
`)
}
