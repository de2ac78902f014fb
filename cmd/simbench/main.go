// Command simbench runs the similar-question benchmark: it evaluates how
// relevant a dataset's similar questions are, generates solutions with and
// without them in context, judges the solution pairs blindly, and distills
// the outcomes into prompt-engineering recommendations.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/akashg/simbench/internal/application"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when omitted)")
	stage := flag.String("stage", application.StageAll, "pipeline stage to run: all|relevance|solutions|analyze|insights")
	metricsAddr := flag.String("metrics", "", "expose Prometheus metrics on this address, e.g. :9090 (overrides config)")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := application.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal(err)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	runner, err := application.NewRunner(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, *stage); err != nil {
		logger.Fatal(err)
	}
}
