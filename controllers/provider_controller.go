package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
)

// ProviderController serves the provider directory and the application flow that
// promotes a customer to provider.
type ProviderController struct {
	applications *services.ProviderApplicationService
	authz        services.Authorizer
	users        *services.UserService
}

func NewProviderController(applications *services.ProviderApplicationService, authz services.Authorizer, users *services.UserService) *ProviderController {
	return &ProviderController{applications: applications, authz: authz, users: users}
}

type RejectApplicationRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// Apply handles POST /api/v1/provider-applications
func (pc *ProviderController) Apply(c *gin.Context) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return
	}

	var req services.ProviderApplicationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	application, err := pc.applications.Apply(c.Request.Context(), user, req)
	if err != nil {
		respondServiceError(c, err, "submit application")
		return
	}

	respondData(c, http.StatusCreated, application)
}

// MyApplication handles GET /api/v1/provider-applications/me
func (pc *ProviderController) MyApplication(c *gin.Context) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return
	}

	application, err := pc.applications.MyApplication(c.Request.Context(), user.ID)
	if err != nil {
		respondServiceError(c, err, "load application")
		return
	}
	respondData(c, http.StatusOK, application)
}

// admin resolves the caller and checks they may review applications
func (pc *ProviderController) admin(c *gin.Context) (services.Actor, bool) {
	user, ok := currentUser(c, pc.users)
	if !ok {
		return services.Actor{}, false
	}
	actor := services.ActorFor(user)
	if !pc.authz.CanReviewApplications(actor) {
		respondForbidden(c, "Only admins can review provider applications")
		return services.Actor{}, false
	}
	return actor, true
}

// ListApplications handles GET /api/v1/admin/provider-applications[?status=]
func (pc *ProviderController) ListApplications(c *gin.Context) {
	if _, ok := pc.admin(c); !ok {
		return
	}

	applications, err := pc.applications.ListApplications(c.Request.Context(), models.ApplicationStatus(c.Query("status")))
	if err != nil {
		respondServiceError(c, err, "list applications")
		return
	}
	respondData(c, http.StatusOK, applications)
}

// ApproveApplication handles POST /api/v1/admin/provider-applications/:id/approve
func (pc *ProviderController) ApproveApplication(c *gin.Context) {
	actor, ok := pc.admin(c)
	if !ok {
		return
	}

	provider, err := pc.applications.Approve(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondServiceError(c, err, "approve application")
		return
	}
	respondData(c, http.StatusOK, provider)
}

// RejectApplication handles POST /api/v1/admin/provider-applications/:id/reject
func (pc *ProviderController) RejectApplication(c *gin.Context) {
	actor, ok := pc.admin(c)
	if !ok {
		return
	}

	var req RejectApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	application, err := pc.applications.Reject(c.Request.Context(), c.Param("id"), actor, req.Note)
	if err != nil {
		respondServiceError(c, err, "reject application")
		return
	}
	respondData(c, http.StatusOK, application)
}

// ListProviders handles GET /api/v1/providers[?city=]
func (pc *ProviderController) ListProviders(c *gin.Context) {
	providers, err := pc.applications.ListProviders(c.Request.Context(), c.Query("city"))
	if err != nil {
		respondServiceError(c, err, "list providers")
		return
	}
	respondData(c, http.StatusOK, providers)
}

// GetProvider handles GET /api/v1/providers/:id
func (pc *ProviderController) GetProvider(c *gin.Context) {
	provider, err := pc.applications.GetProvider(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "load provider")
		return
	}
	respondData(c, http.StatusOK, provider)
}
