package services

import (
	"context"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"
	"github.com/holycodess/AppDashboard/internal/metrics"
	"github.com/holycodess/AppDashboard/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	OpMigrate        = "migrate"
	OpBackup         = "backup"
	OpRotateKeys     = "rotate-keys"
	OpPurgeSessions  = "purge-sessions"
	OpSecurityAudit  = "security-audit"
	OpRLSUpdate      = "rls-update"
	maxSuperAdmins   = 5
	defaultRunsLimit = 20
)

type OperationKind struct {
	Kind        string `json:"kind"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var OperationKinds = []OperationKind{
	{Kind: OpMigrate, Label: "Run Migrations", Description: "Bring the database schema up to date."},
	{Kind: OpBackup, Label: "Backup Database", Description: "Write a compressed dump and prune old backups."},
	{Kind: OpRotateKeys, Label: "Rotate Signing Keys", Description: "Issue sessions with a new key. Existing sessions stay valid for the grace period."},
	{Kind: OpPurgeSessions, Label: "Purge Expired Sessions", Description: "Delete sessions past their expiry."},
	{Kind: OpSecurityAudit, Label: "Security Audit", Description: "Check configuration and accounts for common problems."},
	{Kind: OpRLSUpdate, Label: "Update RLS Policies", Description: "Enable row level security on profiles and audit logs (Postgres only)."},
}

// Finding is one result of the security audit.
type Finding struct {
	Check    string `json:"check"`
	Severity string `json:"severity"` // info, warning, critical
	Message  string `json:"message"`
}

type operationFunc func(ctx context.Context) (message string, details models.JSON, err error)

// OperationService runs the administrative operations and keeps their history.
type OperationService struct {
	db      *gorm.DB
	cfg     *config.Config
	auth    *AuthService
	backups *BackupService
	audit   *AuditService
	log     zerolog.Logger
	ops     map[string]operationFunc
}

func NewOperationService(db *gorm.DB, cfg *config.Config, auth *AuthService, log zerolog.Logger) *OperationService {
	s := &OperationService{
		db:      db,
		cfg:     cfg,
		auth:    auth,
		backups: NewBackupService(db, cfg),
		audit:   NewAuditService(db),
		log:     log,
	}
	s.ops = map[string]operationFunc{
		OpMigrate:       s.migrate,
		OpBackup:        s.backup,
		OpRotateKeys:    s.rotateKeys,
		OpPurgeSessions: s.purgeSessions,
		OpSecurityAudit: s.securityAudit,
		OpRLSUpdate:     s.rlsUpdate,
	}
	return s
}

func (s *OperationService) Backups() *BackupService {
	return s.backups
}

// Run executes one operation and records it. A run row is returned whenever the
// operation started; its error, if any, is returned alongside.
func (s *OperationService) Run(ctx context.Context, kind, actorID string) (*models.OperationRun, error) {
	op, ok := s.ops[kind]
	if !ok {
		return nil, ErrUnknownOperation
	}

	run := &models.OperationRun{
		Kind:        kind,
		Status:      models.RunRunning,
		RequestedBy: actorID,
		StartedAt:   time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, errors.Wrap(err, "failed to record operation run")
	}

	message, details, opErr := op(ctx)

	finished := time.Now()
	run.FinishedAt = &finished
	run.Details = details
	if opErr != nil {
		run.Status = models.RunFailed
		run.Message = opErr.Error()
	} else {
		run.Status = models.RunSucceeded
		run.Message = message
	}

	// the outcome is stored even when the request went away
	persistCtx := context.WithoutCancel(ctx)
	err := s.db.WithContext(persistCtx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(run).Error; err != nil {
			return err
		}
		return s.audit.Record(persistCtx, tx, &models.AuditLog{
			UserID:    strPtr(actorID),
			Action:    "run",
			Table:     "operation_runs",
			RecordID:  &run.ID,
			NewValues: models.JSON{"kind": kind, "status": run.Status},
		})
	})
	metrics.OperationRuns.WithLabelValues(kind, run.Status).Inc()

	event := s.log.Info()
	if opErr != nil {
		event = s.log.Warn().Err(opErr)
	}
	event.Str("kind", kind).Str("run_id", run.ID).Str("status", run.Status).
		Dur("duration", finished.Sub(run.StartedAt)).Msg("operation finished")

	if err != nil {
		return run, errors.Wrap(err, "failed to finalize operation run")
	}
	return run, opErr
}

// Runs returns the operation history, newest first.
func (s *OperationService) Runs(ctx context.Context, limit int) ([]models.OperationRun, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultRunsLimit
	}
	var runs []models.OperationRun
	if err := s.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list operation runs")
	}
	return runs, nil
}

func (s *OperationService) migrate(ctx context.Context) (string, models.JSON, error) {
	if err := models.Migrate(s.db.WithContext(ctx)); err != nil {
		return "", nil, err
	}
	return "Schema is up to date", models.JSON{"models": len(models.All())}, nil
}

func (s *OperationService) backup(ctx context.Context) (string, models.JSON, error) {
	file, err := s.backups.CreateDatabaseBackup(ctx)
	if err != nil {
		return "", nil, err
	}
	removed, err := s.backups.CleanOldBackups(s.cfg.Paths.BackupRetentionDays)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to prune old backups")
	}
	return "Backup written to " + file.Name, models.JSON{
		"file":    file.Name,
		"size":    file.Size,
		"removed": removed,
	}, nil
}

func (s *OperationService) rotateKeys(ctx context.Context) (string, models.JSON, error) {
	key, err := s.auth.Keys().Rotate(ctx)
	if err != nil {
		return "", nil, err
	}
	return "Signing key rotated", models.JSON{
		"key_id": key.ID,
		"grace":  s.cfg.JWT.Grace().String(),
	}, nil
}

func (s *OperationService) purgeSessions(ctx context.Context) (string, models.JSON, error) {
	n, err := s.auth.DeleteExpiredSessions(ctx)
	if err != nil {
		return "", nil, err
	}
	return "Expired sessions purged", models.JSON{"deleted": n}, nil
}

func (s *OperationService) securityAudit(ctx context.Context) (string, models.JSON, error) {
	findings, err := s.SecurityFindings(ctx)
	if err != nil {
		return "", nil, err
	}
	details, err := toJSON(struct {
		Findings []Finding `json:"findings"`
	}{findings})
	if err != nil {
		return "", nil, err
	}

	message := "No issues found"
	if len(findings) > 0 {
		message = "Security audit reported findings"
	}
	return message, details, nil
}

// SecurityFindings inspects configuration and accounts.
func (s *OperationService) SecurityFindings(ctx context.Context) ([]Finding, error) {
	findings := []Finding{}
	db := s.db.WithContext(ctx)

	if s.cfg.JWT.Secret == config.DefaultJWTSecret {
		findings = append(findings, Finding{
			Check:    "jwt_secret",
			Severity: "critical",
			Message:  "The default session signing secret is configured",
		})
	}

	var admins int64
	if err := db.Model(&models.Profile{}).Where("role = ?", models.RoleSuperAdmin).Count(&admins).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count superadmins")
	}
	switch {
	case admins == 0:
		findings = append(findings, Finding{Check: "superadmins", Severity: "critical", Message: "No superadmin account exists"})
	case admins > maxSuperAdmins:
		findings = append(findings, Finding{Check: "superadmins", Severity: "warning", Message: "More than 5 superadmin accounts exist"})
	}

	var expired int64
	if err := db.Model(&models.Session{}).Where("expires_at < ?", time.Now()).Count(&expired).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count expired sessions")
	}
	if expired > 0 {
		findings = append(findings, Finding{Check: "expired_sessions", Severity: "info", Message: "Expired sessions are waiting to be purged"})
	}

	if s.cfg.Server.Mode == "release" && !s.cfg.Security.Cookie.Secure {
		findings = append(findings, Finding{Check: "cookie_secure", Severity: "warning", Message: "Session cookie is not marked Secure in release mode"})
	}

	if s.cfg.DefaultUser.Email != "" && s.cfg.DefaultUser.Password != "" {
		if _, err := s.auth.Authenticate(ctx, s.cfg.DefaultUser.Email, s.cfg.DefaultUser.Password); err == nil {
			findings = append(findings, Finding{Check: "default_password", Severity: "critical", Message: "The default administrator password has not been changed"})
		} else if !errors.Is(err, ErrInvalidCredentials) {
			return nil, err
		}
	}

	return findings, nil
}

func (s *OperationService) rlsUpdate(ctx context.Context) (string, models.JSON, error) {
	if s.db.Dialector.Name() != "postgres" {
		return "", nil, ErrOperationUnsupported
	}

	tables := []string{"profiles", "audit_logs"}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if err := tx.Exec("ALTER TABLE " + t + " ENABLE ROW LEVEL SECURITY").Error; err != nil {
				return errors.Wrapf(err, "failed to enable row level security on %s", t)
			}
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return "Row level security enabled", models.JSON{"tables": tables}, nil
}
