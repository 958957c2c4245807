package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/caira/backend/internal/corpus"
	"github.com/caira/backend/internal/evaluation"
	"github.com/caira/backend/internal/retrieval"
	"github.com/caira/backend/pkg/config"
	appLogger "github.com/caira/backend/pkg/logger"
)

func main() {
	datasetPath := flag.String("dataset", "./data/golden_queries.json", "golden query dataset (JSON)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init("warn", "console", "stderr"); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	store, err := corpus.Load(cfg.Corpus.Root, cfg.Corpus.Categories)
	if err != nil {
		appLogger.Fatal("Failed to load document corpus", zap.Error(err))
	}

	dataset, err := evaluation.LoadDataset(*datasetPath)
	if err != nil {
		appLogger.Fatal("Failed to load golden dataset", zap.Error(err))
	}

	evaluator := evaluation.NewEvaluator(retrieval.New(store, cfg.Retrieval.TopK))
	report := evaluator.Run(dataset)

	fmt.Print(evaluator.GenerateReport(report))
}
