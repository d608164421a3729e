package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/community-helpdesk/backend/internal/ingestion"
	"github.com/community-helpdesk/backend/internal/llm"
	"github.com/community-helpdesk/backend/internal/storage/models"
	"github.com/community-helpdesk/backend/internal/vector/milvus"
	"github.com/community-helpdesk/backend/pkg/config"
	appLogger "github.com/community-helpdesk/backend/pkg/logger"
)

// loader bulk-ingests a service dataset file into the vector index. The API
// server's /ingest endpoint covers incremental updates; this covers initial
// setup.
func main() {
	_ = godotenv.Load()

	var filePath string
	var skipConfirm bool
	flag.StringVar(&filePath, "file", "community_services.json", "Path to the service dataset file")
	flag.BoolVar(&skipConfirm, "yes", false, "Skip the confirmation prompt when the index is not empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, "console", cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	records, err := loadDataset(filePath)
	if err != nil {
		appLogger.Fatal("Failed to load dataset", zap.Error(err))
	}

	fmt.Printf("Loaded %d service records from %s\n", len(records), filePath)

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	ctx := context.Background()

	err = milvusClient.EnsureCollection(ctx)
	if err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	existing, err := milvusClient.Count(ctx)
	if err != nil {
		appLogger.Fatal("Failed to count existing records", zap.Error(err))
	}

	if existing > 0 && !skipConfirm {
		fmt.Printf("Index already holds %d records. Records with matching IDs will be replaced.\n", existing)
		if !confirm("Continue?") {
			fmt.Println("Aborted.")
			return
		}
	}

	llmClient := llm.NewClient(llm.Options{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		TimeoutSec:     cfg.LLM.TimeoutSec,
	})

	ingestor := ingestion.NewIngestor(llmClient, milvusClient, nil)

	count, err := ingestor.Ingest(ctx, records)
	if err != nil {
		appLogger.Fatal("Ingestion failed", zap.Error(err))
	}

	total, err := milvusClient.Count(ctx)
	if err != nil {
		appLogger.Warn("Failed to count records after ingestion", zap.Error(err))
		total = int64(count)
	}

	fmt.Printf("\nIngested %d records. Index now holds %d records.\n", count, total)
	printCategoryBreakdown(records)
}

func loadDataset(path string) ([]models.ServiceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var dataset struct {
		Services []models.ServiceRecord `json:"services"`
	}
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file: %w", err)
	}

	if len(dataset.Services) == 0 {
		return nil, fmt.Errorf("dataset file contains no services")
	}

	return dataset.Services, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printCategoryBreakdown(records []models.ServiceRecord) {
	counts := make(map[string]int)
	order := []string{}
	for _, r := range records {
		if _, seen := counts[r.Category]; !seen {
			order = append(order, r.Category)
		}
		counts[r.Category]++
	}

	fmt.Println("\nCategory breakdown:")
	for _, category := range order {
		fmt.Printf("  %-20s %d\n", category, counts[category])
	}
}
