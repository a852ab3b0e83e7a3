package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"roadmap-service/internal/middleware"
	"roadmap-service/internal/models"
	"roadmap-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type VisibilityHandler struct {
	visibilityService *services.VisibilityService
}

func NewVisibilityHandler(visibilityService *services.VisibilityService) *VisibilityHandler {
	return &VisibilityHandler{
		visibilityService: visibilityService,
	}
}

func (h *VisibilityHandler) RegisterRoutes(app *fiber.App) {
	// All visibility routes are protected and require permissions
	protectedGroup := app.Group("/protected/visibility")

	protectedGroup.Put("/", h.UpdateVisibility, middleware.PermissionRequired(middleware.UpdateVisibilityPermission))
	protectedGroup.Delete("/:entityType/:entityId", h.ClearVisibility, middleware.PermissionRequired(middleware.UpdateVisibilityPermission))

	// Admin reporting views
	protectedGroup.Get("/overview", h.GetOverview, middleware.PermissionRequired(middleware.ReadVisibilityAnalyticsPermission))
	protectedGroup.Get("/roadmaps/:slug", h.GetRoadmapDetails, middleware.PermissionRequired(middleware.ReadVisibilityPermission))
	protectedGroup.Get("/audit/:entityType/:entityId", h.GetAuditHistory, middleware.PermissionRequired(middleware.AdminVisibilityPermission))
}

func (h *VisibilityHandler) UpdateVisibility(c fiber.Ctx) error {
	var req services.UpdateVisibilityRequest

	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	req.ActorID = middleware.ActorID(c)
	if req.ActorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing user identity",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	setting, err := h.visibilityService.UpdateVisibility(ctx, &req)
	if err != nil {
		return h.writeError(c, "update visibility", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Visibility updated successfully",
		"data": fiber.Map{
			"setting": setting,
		},
	})
}

func (h *VisibilityHandler) ClearVisibility(c fiber.Ctx) error {
	entityType := models.EntityType(c.Params("entityType"))
	entityID := c.Params("entityId")

	actorID := middleware.ActorID(c)
	if actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing user identity",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cleared, err := h.visibilityService.ClearVisibility(ctx, actorID, entityType, entityID)
	if err != nil {
		return h.writeError(c, "clear visibility", err)
	}
	if !cleared {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No visibility setting to clear",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Visibility setting cleared",
	})
}

func (h *VisibilityHandler) GetOverview(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	overview, err := h.visibilityService.GetVisibilityOverview(ctx)
	if err != nil {
		log.Printf("Failed to build visibility overview: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build overview",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{
			"overview": overview,
		},
	})
}

func (h *VisibilityHandler) GetRoadmapDetails(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Roadmap slug is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	details, err := h.visibilityService.GetRoadmapVisibilityDetails(ctx, slug)
	if err != nil {
		log.Printf("Failed to get visibility details for %s: %v", slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get visibility details",
		})
	}
	if details == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Roadmap not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{
			"details": details,
		},
	})
}

func (h *VisibilityHandler) GetAuditHistory(c fiber.Ctx) error {
	entityType := models.EntityType(c.Params("entityType"))
	entityID := c.Params("entityId")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid limit",
			})
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := h.visibilityService.GetAuditHistory(ctx, entityType, entityID, limit)
	if err != nil {
		return h.writeError(c, "get audit history", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{
			"entries": entries,
			"count":   len(entries),
		},
	})
}

// writeError maps domain error kinds to HTTP statuses. Validation and
// missing-parent errors surface to the caller; everything else is a 500.
func (h *VisibilityHandler) writeError(c fiber.Ctx, operation string, err error) error {
	var parentErr *services.ParentNotFoundError
	if errors.As(err, &parentErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": parentErr.Error(),
		})
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
		})
	}

	log.Printf("Failed to %s: %v", operation, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
