package handlers

import (
	"github.com/holycodess/AppDashboard/internal/api/middleware"
	"github.com/holycodess/AppDashboard/internal/services"

	"github.com/gin-gonic/gin"
)

type OperationHandler struct {
	operationService *services.OperationService
}

func NewOperationHandler(operationService *services.OperationService) *OperationHandler {
	return &OperationHandler{operationService: operationService}
}

// GetOperations returns the available operations and the run history
func (h *OperationHandler) GetOperations(c *gin.Context) {
	runs, err := h.operationService.Runs(c.Request.Context(), 20)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(200, gin.H{"operations": services.OperationKinds, "runs": runs})
}

// RunOperation executes one operation. A failed run is still returned with its status.
func (h *OperationHandler) RunOperation(c *gin.Context) {
	run, err := h.operationService.Run(c.Request.Context(), c.Param("kind"), userID(c))
	if err != nil {
		if run == nil {
			c.Error(err)
			return
		}
		status, msg := middleware.StatusFor(err)
		if status == 500 {
			msg = "Operation failed"
		}
		c.JSON(status, gin.H{"error": msg, "run": run})
		return
	}

	c.JSON(200, gin.H{"message": run.Message, "run": run})
}
