// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hubworks/accounthub/internal/app/resources"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/normalize"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"

	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It is the
// place to load shared resources (like templates), warm caches, or perform
// any app-wide setup that depends on config and backends.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	resources.LoadSharedTemplates()

	if appCfg.ProviderEmail != "" {
		startupCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
		defer cancel()

		if err := ensureProvider(startupCtx, deps, appCfg.ProviderEmail, logger); err != nil {
			return fmt.Errorf("provider bootstrap: %w", err)
		}
	}

	return nil
}

// ensureProvider guarantees a provider user exists for the configured email.
// An existing user with that email is promoted to the provider role; a
// missing one is created as a Google-auth user so they can sign in without
// a password being provisioned out of band.
func ensureProvider(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	db := deps.AccountHubMongoDatabase
	us := userstore.New(db)

	u, err := us.GetByEmail(ctx, email)
	if err == nil {
		if u.Role == "provider" {
			logger.Info("provider user already present",
				zap.String("email", u.Email),
				zap.String("user_id", u.ID.Hex()))
			return nil
		}

		_, err = db.Collection("users").UpdateOne(ctx,
			bson.M{"_id": u.ID},
			bson.M{"$set": bson.M{
				"role":       "provider",
				"updated_at": time.Now(),
			}})
		if err != nil {
			return fmt.Errorf("promote user %s: %w", u.ID.Hex(), err)
		}

		logger.Info("promoted existing user to provider",
			zap.String("email", u.Email),
			zap.String("user_id", u.ID.Hex()))
		return nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("look up provider email: %w", err)
	}

	username := email
	if at := strings.Index(email, "@"); at > 0 {
		username = email[:at]
	}

	created, err := us.Create(ctx, models.User{
		Username:   normalize.Username(username),
		Email:      email,
		AuthMethod: "google",
		Role:       "provider",
	})
	if err != nil {
		return fmt.Errorf("create provider user: %w", err)
	}

	logger.Info("created provider user",
		zap.String("email", created.Email),
		zap.String("user_id", created.ID.Hex()))

	return nil
}
