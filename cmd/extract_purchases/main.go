package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-partner-be/internal/config"
	"ai-partner-be/internal/pkg/logger"
	"ai-partner-be/pkg/events"
	"ai-partner-be/pkg/knowledge"
	pktNats "ai-partner-be/pkg/nats"
	"ai-partner-be/pkg/purchases"

	"github.com/fatih/color"
)

// Pulls Amazon order mail from Gmail, stores the extracted purchases in the
// knowledge backup, and publishes a trigger event per order so a running
// server announces them to connected clients.
func main() {
	cfg := config.Load()
	log := logger.NewZapLogger(cfg.App.LogFilePath, false)
	defer log.Sync()

	ctx := context.Background()

	color.Cyan("=== Amazon order extraction ===")

	svc, err := purchases.NewGmailService(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, promptAuthCode)
	if err != nil {
		color.Red("Gmail auth failed: %v", err)
		os.Exit(1)
	}
	color.Green("Gmail authenticated")

	extractor := purchases.NewExtractor(svc, log)
	orders, err := extractor.FetchOrders(ctx, cfg.Gmail.LookbackDays)
	if err != nil {
		color.Red("Fetch failed: %v", err)
		os.Exit(1)
	}
	if len(orders) == 0 {
		color.Yellow("No orders found in the past %d days", cfg.Gmail.LookbackDays)
		return
	}

	// Merge into the knowledge backup.
	store := knowledge.NewStore(log, "")
	backupPath := filepath.Join(cfg.Knowledge.DataDir, cfg.Knowledge.BackupFile)
	if err := store.Load(backupPath); err != nil {
		color.Yellow("No existing backup (%v), starting from the seed corpus", err)
		store.Seed()
	}
	purchases.SaveOrders(store, orders)
	if err := store.Save(backupPath); err != nil {
		color.Red("Failed to save backup: %v", err)
		os.Exit(1)
	}
	color.Green("Saved %d orders to %s", len(orders), backupPath)

	// Announce over the trigger lane; a server that is down just misses it.
	pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		color.Yellow("NATS unavailable (%v), skipping trigger events", err)
		return
	}
	defer pub.Close()

	for _, order := range orders {
		evt := events.BaseEvent{
			Type: events.TriggerPurchase,
			Data: map[string]interface{}{
				"content": fmt.Sprintf("新しい購入を確認しました：%s（%s）", order.Product, order.Price),
				"product": order.Product,
				"price":   order.Price,
				"date":    order.Date,
				"source":  order.Source,
			},
			OccurredAt: time.Now(),
		}
		if err := pub.Publish(ctx, evt); err != nil {
			color.Yellow("Trigger publish failed for %s: %v", order.Product, err)
		}
	}
	color.Green("Done: %d orders extracted", len(orders))
}

func promptAuthCode(authURL string) (string, error) {
	fmt.Printf("Open the following URL and paste the auth code:\n%s\n> ", authURL)
	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
