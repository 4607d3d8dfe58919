// seed-admin creates a business with its parent company and a platform admin user.
// Running it again reuses the business and company of the same name and resets the admin password.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	SEED_ADMIN_PASSWORD=... go run ./cmd/seed-admin
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mmdatafocus/tradeportal_backend/config"
	"github.com/mmdatafocus/tradeportal_backend/models"
	"github.com/mmdatafocus/tradeportal_backend/utils"
	"gorm.io/gorm"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	businessName := envOr("SEED_BUSINESS_NAME", "Trade Portal")
	parentName := envOr("SEED_PARENT_COMPANY_NAME", businessName)
	adminUsername := envOr("SEED_ADMIN_USERNAME", "admin")
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if len(adminPassword) < 6 {
		fail("SEED_ADMIN_PASSWORD must be at least 6 characters")
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fail("database not initialized (config.GetDB returned nil). Set DB_* env vars.")
	}
	if err := models.MigrateTable(); err != nil {
		fail("migration failed: %v", err)
	}

	ctx := utils.SetIsAdminInContext(context.Background(), true)
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	ctx = utils.SetUserIdInContext(ctx, 0)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var business models.Business
	err := db.WithContext(ctx).Where("name = ?", businessName).Take(&business).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		created, err := models.CreateBusiness(ctx, &models.NewBusiness{Name: businessName})
		if err != nil {
			fail("failed to create business: %v", err)
		}
		business = *created
		fmt.Printf("Created business %q (%s)\n", business.Name, business.ID)
	case err != nil:
		fail("failed to lookup business: %v", err)
	}
	ctx = utils.SetBusinessIdInContext(ctx, business.ID)

	if _, err := models.GetParentCompany(ctx); err != nil {
		if !utils.IsNotFound(err) {
			fail("failed to lookup parent company: %v", err)
		}
		company, err := models.CreateCompany(ctx, &models.NewCompany{Name: parentName, IsParent: utils.NewTrue()})
		if err != nil {
			fail("failed to create parent company: %v", err)
		}
		fmt.Printf("Created parent company %q (id=%d)\n", company.Name, company.ID)
	}

	existing, err := models.GetUserByUsername(ctx, adminUsername)
	if err != nil {
		if !utils.IsNotFound(err) {
			fail("failed to lookup user: %v", err)
		}
		user, err := models.CreateUser(ctx, &models.NewUser{
			Username: adminUsername,
			Name:     "Administrator",
			Password: adminPassword,
			Role:     models.UserRoleAdmin,
			IsActive: utils.NewTrue(),
		})
		if err != nil {
			fail("failed to create admin user: %v", err)
		}
		fmt.Printf("Created admin user: username=%q (id=%d)\n", user.Username, user.ID)
		return
	}

	ctx = utils.SetBusinessIdInContext(ctx, existing.BusinessId)
	if _, err := models.UpdateUser(ctx, existing.ID, &models.NewUser{
		Username: existing.Username,
		Name:     existing.Name,
		Phone:    existing.Phone,
		Password: adminPassword,
		Role:     models.UserRoleAdmin,
		IsActive: utils.NewTrue(),
	}); err != nil {
		fail("failed to update admin user: %v", err)
	}
	fmt.Printf("Updated admin user: username=%q\n", adminUsername)
}
