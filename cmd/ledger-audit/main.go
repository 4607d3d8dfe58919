// ledger-audit recomputes every stored balance from its transaction rows and reports drift.
// It exits 1 when any business has drift, 2 when the audit itself fails.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ledger-audit [-business <id>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	businessId := flag.String("business", "", "audit a single business id")
	flag.Parse()

	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(2)
	}

	ctx := utils.SetSkipTenantScopeInContext(context.Background(), true)

	businessIds := []string{*businessId}
	if *businessId == "" {
		ids, err := models.BusinessIds(ctx)
		if err != nil {
			config.LogError(logger, "ledger-audit", "BusinessIds", "", nil, err)
			os.Exit(2)
		}
		businessIds = ids
	}

	total := 0
	for _, id := range businessIds {
		drifts, err := models.AuditLedger(utils.SetBusinessIdInContext(ctx, id), id)
		if err != nil {
			config.LogError(logger, "ledger-audit", "AuditLedger", id, nil, err)
			os.Exit(2)
		}
		for _, d := range drifts {
			fmt.Println(d.String())
		}
		if len(drifts) > 0 {
			logger.WithFields(logrus.Fields{
				"business_id": id,
				"drifts":      len(drifts),
			}).Warn("ledger drift detected")
		}
		total += len(drifts)
	}

	fmt.Printf("audited %d businesses, %d drifts\n", len(businessIds), total)
	if total > 0 {
		os.Exit(1)
	}
}
