package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
)

type PrinterController struct {
	printers *services.PrinterService
	authz    services.Authorizer
	users    *services.UserService
}

func NewPrinterController(printers *services.PrinterService, authz services.Authorizer, users *services.UserService) *PrinterController {
	return &PrinterController{printers: printers, authz: authz, users: users}
}

type PrinterStatusRequest struct {
	Status models.PrinterStatus `json:"status" binding:"required"`
}

// CreatePrinter handles POST /api/v1/printers (providers only)
func (pc *PrinterController) CreatePrinter(c *gin.Context) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return
	}

	if user.Role != models.RoleProvider {
		respondForbidden(c, "Only providers can register printers")
		return
	}

	var req services.CreatePrinterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	printer, err := pc.printers.CreatePrinter(c.Request.Context(), user.ID, req)
	if err != nil {
		respondServiceError(c, err, "create printer")
		return
	}

	respondData(c, http.StatusCreated, printer)
}

// ListMyPrinters handles GET /api/v1/printers/mine
func (pc *PrinterController) ListMyPrinters(c *gin.Context) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return
	}

	printers, err := pc.printers.ListProviderPrinters(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err, "list printers")
		return
	}
	respondData(c, http.StatusOK, printers)
}

// ListProviderPrinters handles GET /api/v1/providers/:id/printers
func (pc *PrinterController) ListProviderPrinters(c *gin.Context) {
	printers, err := pc.printers.ListProviderPrinters(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "list printers")
		return
	}
	respondData(c, http.StatusOK, printers)
}

// managedPrinter loads the :id printer and checks the caller owns it
func (pc *PrinterController) managedPrinter(c *gin.Context) (*models.Printer, bool) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return nil, false
	}

	printer, err := pc.printers.GetPrinter(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "load printer")
		return nil, false
	}
	if !pc.authz.CanManagePrinter(services.ActorFor(user), printer) {
		respondForbidden(c, "You can only manage your own printers")
		return nil, false
	}
	return printer, true
}

// SetStatus handles PATCH /api/v1/printers/:id/status
func (pc *PrinterController) SetStatus(c *gin.Context) {
	var req PrinterStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	printer, ok := pc.managedPrinter(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := pc.printers.SetStatus(ctx, printer.ID, req.Status); err != nil {
		respondServiceError(c, err, "update printer status")
		return
	}

	updated, err := pc.printers.GetPrinter(ctx, printer.ID)
	if err != nil {
		respondServiceError(c, err, "load printer")
		return
	}
	respondData(c, http.StatusOK, updated)
}

// DeletePrinter handles DELETE /api/v1/printers/:id
func (pc *PrinterController) DeletePrinter(c *gin.Context) {
	printer, ok := pc.managedPrinter(c)
	if !ok {
		return
	}

	if err := pc.printers.DeletePrinter(c.Request.Context(), printer.ID); err != nil {
		respondServiceError(c, err, "delete printer")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Printer deleted",
	})
}
