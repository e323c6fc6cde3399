// internal/app/features/accounts/handler.go
package accounts

import (
	errorsfeature "github.com/hubworks/accounthub/internal/app/features/errors"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for Accounts.
type Handler struct {
	DB     *mongo.Database
	ErrLog *errorsfeature.ErrorLogger
	Audit  *auditlog.Logger
	Log    *zap.Logger
}

// NewHandler constructs a new Accounts handler bound to a DB and logger.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Audit:  audit,
		Log:    logger,
	}
}
