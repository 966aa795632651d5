package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"irabuilder/pkg/agent"
	"irabuilder/pkg/coder"
	"irabuilder/pkg/config"
	"irabuilder/pkg/eventlog"
	"irabuilder/pkg/exec"
	"irabuilder/pkg/logx"
	"irabuilder/pkg/metrics"
	"irabuilder/pkg/orchestrator"
	"irabuilder/pkg/persistence"
	"irabuilder/pkg/planner"
	"irabuilder/pkg/state"
)

// Version information - set by goreleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		storageDir  = flag.String("storage", ".irabuilder", "Storage directory for state, code, outputs, and logs")
		name        = flag.String("name", "", "Workflow name")
		description = flag.String("desc", "", "What the workflow should accomplish")
		csvList     = flag.String("csv", "", "Comma-separated CSV file paths")
		resumeID    = flag.String("resume", "", "Resume a persisted workflow by id")
		listFlag    = flag.Bool("list", false, "List persisted workflows and exit")
		metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("irabuilder %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if *debug {
		logx.SetDebug(true)
	}

	os.Exit(run(*storageDir, *name, *description, *csvList, *resumeID, *listFlag, *metricsAddr))
}

// run contains the main application logic and returns an exit code. This
// allows defers to execute before os.Exit is called.
func run(storageDir, name, description, csvList, resumeID string, listFlag bool, metricsAddr string) int {
	logger := logx.NewLogger("irabuilder-main")

	cfg, err := config.Load(storageDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if err := cfg.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create storage directories: %v\n", err)
		return 1
	}

	store, err := state.NewStore(cfg.WorkflowStateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open workflow store: %v\n", err)
		return 1
	}

	if listFlag {
		return listWorkflows(store)
	}

	csvPaths := splitCSVList(csvList)
	if resumeID == "" {
		if name == "" || len(csvPaths) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: irabuilder -name <workflow> -csv <a.csv,b.csv> [-desc <text>]")
			fmt.Fprintln(os.Stderr, "       irabuilder -resume <workflow-id>")
			fmt.Fprintln(os.Stderr, "       irabuilder -list")
			return 2
		}
		for _, p := range csvPaths {
			if _, statErr := os.Stat(p); statErr != nil {
				fmt.Fprintf(os.Stderr, "CSV file not readable: %s\n", p)
				return 1
			}
		}
	}

	secrets, err := loadSecrets(storageDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load secrets: %v\n", err)
		return 1
	}

	client, err := agent.NewClientForConfig(cfg, secrets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		return 1
	}

	db, err := persistence.InitializeDatabase(cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		return 1
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Warn("closing database: %v", closeErr)
		}
	}()
	audit := persistence.NewDatabaseOperations(db)

	recorder := metrics.NewRecorder()
	if metricsAddr != "" {
		go func() {
			logger.Info("serving metrics on %s", metricsAddr)
			if serveErr := http.ListenAndServe(metricsAddr, promhttp.Handler()); serveErr != nil {
				logger.Error("metrics server: %v", serveErr)
			}
		}()
	}

	runner := exec.NewPythonRunner(exec.NewLocalExec(), cfg.PythonBin, cfg.CodeExecutionTimeout)
	plannerAgent := planner.New(client, cfg.MaxPlannerQuestions)
	coderAgent := coder.New(client, runner, cfg.MaxCoderIterations, cfg.GeneratedCodeDir)

	opts := []orchestrator.Option{
		orchestrator.WithAudit(audit),
		orchestrator.WithMetrics(recorder),
	}

	var orch *orchestrator.Orchestrator
	if resumeID != "" {
		orch, err = orchestrator.Resume(cfg, store, plannerAgent, coderAgent, resumeID, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to resume workflow %s: %v\n", resumeID, err)
			return 1
		}
		fmt.Printf("🔄 Resumed workflow %s\n", resumeID)
	} else {
		orch = orchestrator.New(cfg, store, plannerAgent, coderAgent, name, description, csvPaths, opts...)
	}

	events, cancelEvents := orch.Subscribe()
	defer cancelEvents()

	eventWriter, err := eventlog.NewWriter(cfg.EventLogDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open event log: %v\n", err)
		return 1
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if writeErr := eventWriter.Write(ev); writeErr != nil {
				logger.Warn("event log write failed: %v", writeErr)
			}
		}
	}()
	defer func() {
		cancelEvents()
		<-done
		if closeErr := eventWriter.Close(); closeErr != nil {
			logger.Warn("closing event log: %v", closeErr)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runInteractive(ctx, orch); err != nil {
		fmt.Fprintf(os.Stderr, "Workflow failed: %v\n", err)
		return 1
	}
	return 0
}

func listWorkflows(store *state.Store) int {
	ids, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list workflows: %v\n", err)
		return 1
	}
	if len(ids) == 0 {
		fmt.Println("No persisted workflows.")
		return 0
	}
	for _, id := range ids {
		w, loadErr := store.Load(id)
		if loadErr != nil {
			fmt.Printf("%s  (unreadable: %v)\n", id, loadErr)
			continue
		}
		fmt.Printf("%s  %-14s  %s\n", w.WorkflowID, w.Phase, w.Name)
	}
	return 0
}

// loadSecrets resolves API credentials: the encrypted secrets file when one
// exists (prompting for its password), otherwise environment variables only.
func loadSecrets(storageDir string) (*config.Secrets, error) {
	if !config.SecretsFileExists(storageDir) {
		return config.NewSecrets(), nil
	}

	fmt.Print("🔐 Secrets file password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return config.LoadSecretsFile(storageDir, string(password))
}

func splitCSVList(csvList string) []string {
	var paths []string
	for _, p := range strings.Split(csvList, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
