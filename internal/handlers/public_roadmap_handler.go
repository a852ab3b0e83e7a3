package handlers

import (
	"context"
	"log"
	"time"

	"roadmap-service/internal/services"

	"github.com/gofiber/fiber/v3"
)

type PublicRoadmapHandler struct {
	publicService *services.PublicRoadmapService
}

func NewPublicRoadmapHandler(publicService *services.PublicRoadmapService) *PublicRoadmapHandler {
	return &PublicRoadmapHandler{
		publicService: publicService,
	}
}

func (h *PublicRoadmapHandler) RegisterRoutes(app *fiber.App) {
	// Anonymous routes; the gateway does not inject identity here
	publicGroup := app.Group("/public/roadmaps")

	publicGroup.Get("/", h.ListPublicRoadmaps)
	publicGroup.Get("/:slug", h.GetPublicRoadmap)
}

func (h *PublicRoadmapHandler) ListPublicRoadmaps(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roadmaps, err := h.publicService.GetPublicRoadmaps(ctx)
	if err != nil {
		log.Printf("Failed to list public roadmaps: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list roadmaps",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{
			"roadmaps": roadmaps,
			"count":    len(roadmaps),
		},
	})
}

func (h *PublicRoadmapHandler) GetPublicRoadmap(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Roadmap slug is required",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	roadmap, err := h.publicService.GetPublicRoadmapBySlug(ctx, slug)
	if err != nil {
		log.Printf("Failed to get public roadmap %s: %v", slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get roadmap",
		})
	}
	// Private and missing roadmaps are indistinguishable to anonymous callers
	if roadmap == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Roadmap not found",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": fiber.Map{
			"roadmap": roadmap,
		},
	})
}
