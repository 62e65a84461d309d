package handlers

import (
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	backupService *services.BackupService
}

func NewBackupHandler(backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// GetBackups returns list of backup files
func (h *BackupHandler) GetBackups(c *gin.Context) {
	backups, err := h.backupService.ListBackups()
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"backups": backups})
}

// DeleteBackup deletes a backup file
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	if err := h.backupService.DeleteBackup(c.Param("name")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"message": "Backup deleted successfully"})
}
