package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/holycodess/AppDashboard/internal/config"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var backupNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

type BackupService struct {
	db          *gorm.DB
	cfg         *config.Config
	backupsPath string
}

type BackupFile struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type"` // sqlite, sql
	CreatedAt time.Time `json:"created_at"`
}

func NewBackupService(db *gorm.DB, cfg *config.Config) *BackupService {
	return &BackupService{
		db:          db,
		cfg:         cfg,
		backupsPath: cfg.Paths.Backups,
	}
}

// CreateDatabaseBackup writes a gzip-compressed dump of the configured database
// and returns the backup file.
func (s *BackupService) CreateDatabaseBackup(ctx context.Context) (*BackupFile, error) {
	if err := os.MkdirAll(s.backupsPath, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create backups directory")
	}

	stamp := time.Now().Format("20060102_150405")
	var (
		name string
		err  error
	)
	switch s.cfg.Database.Type {
	case "sqlite":
		name = fmt.Sprintf("dashboard_%s.db.gz", stamp)
		err = s.backupSQLite(ctx, name)
	case "mysql":
		name = fmt.Sprintf("dashboard_mysql_%s.sql.gz", stamp)
		m := s.cfg.Database.MySQL
		cmd := exec.CommandContext(ctx, "mysqldump",
			"-h", m.Host, "-P", strconv.Itoa(m.Port), "-u", m.Username,
			"--single-transaction", "--routines", "--triggers", m.Database)
		cmd.Env = append(os.Environ(), "MYSQL_PWD="+m.Password)
		err = s.dump(cmd, name)
	case "postgres":
		name = fmt.Sprintf("dashboard_postgres_%s.sql.gz", stamp)
		cmd := exec.CommandContext(ctx, "pg_dump", "--no-owner", "--dbname="+s.cfg.Database.Postgres.DSN)
		err = s.dump(cmd, name)
	default:
		return nil, ErrOperationUnsupported
	}
	if err != nil {
		return nil, err
	}

	return s.stat(name)
}

// backupSQLite snapshots the live database with VACUUM INTO and compresses the copy.
func (s *BackupService) backupSQLite(ctx context.Context, name string) error {
	snapshot := filepath.Join(s.backupsPath, "."+name+".tmp")
	defer os.Remove(snapshot)

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", snapshot).Error; err != nil {
		return errors.Wrap(err, "failed to snapshot database")
	}

	src, err := os.Open(snapshot)
	if err != nil {
		return errors.Wrap(err, "failed to open snapshot")
	}
	defer src.Close()

	return s.writeCompressed(name, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}

// dump streams the command's stdout into a compressed backup file.
func (s *BackupService) dump(cmd *exec.Cmd, name string) error {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := s.writeCompressed(name, func(w io.Writer) error {
		cmd.Stdout = w
		return cmd.Run()
	})
	if err != nil {
		return errors.Wrapf(err, "failed to dump database: %s", strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (s *BackupService) writeCompressed(name string, fill func(w io.Writer) error) error {
	outputPath := filepath.Join(s.backupsPath, name)
	file, err := os.Create(outputPath)
	if err != nil {
		return errors.Wrap(err, "failed to create backup file")
	}

	gzWriter := gzip.NewWriter(file)
	err = fill(gzWriter)
	if cerr := gzWriter.Close(); err == nil {
		err = cerr
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outputPath)
		return errors.Wrap(err, "failed to write backup")
	}
	return nil
}

func backupType(name string) string {
	if strings.HasSuffix(name, ".sql.gz") {
		return "sql"
	}
	return "sqlite"
}

func (s *BackupService) stat(name string) (*BackupFile, error) {
	info, err := os.Stat(filepath.Join(s.backupsPath, name))
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat backup")
	}
	return &BackupFile{Name: name, Size: info.Size(), Type: backupType(name), CreatedAt: info.ModTime()}, nil
}

// ListBackups returns the backup files, newest first
func (s *BackupService) ListBackups() ([]BackupFile, error) {
	files, err := os.ReadDir(s.backupsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read backups directory")
	}

	var backups []BackupFile
	for _, entry := range files {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".gz") || !backupNamePattern.MatchString(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupFile{
			Name:      entry.Name(),
			Size:      info.Size(),
			Type:      backupType(entry.Name()),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// DeleteBackup deletes a backup file
func (s *BackupService) DeleteBackup(backupName string) error {
	if !backupNamePattern.MatchString(backupName) || filepath.Base(backupName) != backupName {
		return ErrInvalidBackupName
	}
	if err := os.Remove(filepath.Join(s.backupsPath, backupName)); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return errors.Wrap(err, "failed to delete backup")
	}
	return nil
}

// CleanOldBackups removes backups older than retention days and returns how many went.
func (s *BackupService) CleanOldBackups(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	backups, err := s.ListBackups()
	if err != nil {
		return 0, err
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, backup := range backups {
		if backup.CreatedAt.Before(cutoffTime) {
			if err := s.DeleteBackup(backup.Name); err != nil {
				// keep going, the next run retries
				continue
			}
			removed++
		}
	}

	return removed, nil
}
