// internal/app/features/accountusers/handler.go
package accountusers

import (
	errorsfeature "github.com/hubworks/accounthub/internal/app/features/errors"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the feature-level entry point for the users of an account.
type Handler struct {
	DB     *mongo.Database
	ErrLog *errorsfeature.ErrorLogger
	Audit  *auditlog.Logger
	Log    *zap.Logger

	// AllowEmpty controls the list page for accounts with no users:
	// false responds 404, true renders an empty table.
	AllowEmpty bool
}

// NewHandler constructs an AccountUsers handler. AllowEmpty defaults to
// false, matching the list's 404-on-empty behavior.
func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		ErrLog: errLog,
		Audit:  audit,
		Log:    logger,
	}
}
