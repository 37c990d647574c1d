// Package httpapi exposes the inventory store over HTTP for operator
// tooling and the sync client. Voice remains the primary write path; this
// surface covers the operations narration cannot, like batch sync
// acknowledgement and browsing the captured hierarchy.
package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/inventory-voice-lab/internal/inventory"
	"github.com/inventory-voice-lab/internal/logging"
)

type Handler struct {
	inv *inventory.Service
}

func NewHandler(inv *inventory.Service) *Handler {
	return &Handler{inv: inv}
}

// NewApp builds the Fiber application with all routes registered.
func NewApp(inv *inventory.Service) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	h := NewHandler(inv)

	app.Get("/", h.Health)

	v1 := app.Group("/api/v1")
	v1.Post("/inventory/enter", h.EnterInventory)
	v1.Get("/inventory", h.ListInventories)
	v1.Get("/inventory/sync/pending", h.PendingSync)
	v1.Post("/inventory/sync/mark", h.MarkSynced)
	v1.Get("/inventory/:id", h.GetInventory)
	v1.Get("/inventory/:id/spaces", h.ListSpaces)
	v1.Get("/spaces/:id/elements", h.ListElements)
	v1.Get("/elements/:id/attributes", h.ListAttributes)
	v1.Get("/elements/:id/images", h.ListImages)
	v1.Get("/spaces/:id/videos", h.ListVideos)
	v1.Post("/videos", h.UploadVideo)

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	logging.Errorw("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	return c.Status(code).JSON(fiber.Map{"success": false, "error": err.Error()})
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "service": "inventory-voice-agent", "status": "running"})
}

type enterInventoryRequest struct {
	PropertyID      int `json:"property_id"`
	InventoryTypeID int `json:"inventory_type_id"`
	EventID         int `json:"event_id"`
}

// EnterInventory selects (creating if absent) the inventory for the given
// natural key and makes it the session's current inventory.
func (h *Handler) EnterInventory(c *fiber.Ctx) error {
	var req enterInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}
	if req.PropertyID == 0 || req.InventoryTypeID == 0 || req.EventID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "property_id, inventory_type_id and event_id are required",
		})
	}
	inv, err := h.inv.EnterInventory(c.Context(), req.PropertyID, req.InventoryTypeID, req.EventID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "inventory": inv.DTO()})
}

func (h *Handler) ListInventories(c *fiber.Ctx) error {
	inventories, err := h.inv.GetInventories(c.Context())
	if err != nil {
		return err
	}
	out := make([]inventory.InventoryDTO, 0, len(inventories))
	for i := range inventories {
		out = append(out, inventories[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "inventories": out})
}

func (h *Handler) GetInventory(c *fiber.Ctx) error {
	inv, err := h.inv.GetInventory(c.Context(), c.Params("id"))
	if errors.Is(err, inventory.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "inventory not found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "inventory": inv.DTO()})
}

func (h *Handler) ListSpaces(c *fiber.Ctx) error {
	spaces, err := h.inv.GetSpaces(c.Context(), c.Params("id"))
	if err != nil {
		return selectionError(c, err)
	}
	out := make([]inventory.SpaceDTO, 0, len(spaces))
	for i := range spaces {
		out = append(out, spaces[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "spaces": out})
}

func (h *Handler) ListElements(c *fiber.Ctx) error {
	elements, err := h.inv.GetElements(c.Context(), c.Params("id"))
	if err != nil {
		return selectionError(c, err)
	}
	out := make([]inventory.ElementDTO, 0, len(elements))
	for i := range elements {
		out = append(out, elements[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "elements": out})
}

func (h *Handler) ListAttributes(c *fiber.Ctx) error {
	attrs, err := h.inv.GetAttributes(c.Context(), c.Params("id"))
	if err != nil {
		return selectionError(c, err)
	}
	out := make([]inventory.AttributeDTO, 0, len(attrs))
	for i := range attrs {
		out = append(out, attrs[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "attributes": out})
}

func (h *Handler) ListImages(c *fiber.Ctx) error {
	images, err := h.inv.GetImages(c.Context(), c.Params("id"))
	if err != nil {
		return selectionError(c, err)
	}
	out := make([]inventory.ImageDTO, 0, len(images))
	for i := range images {
		out = append(out, images[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "images": out})
}

func (h *Handler) ListVideos(c *fiber.Ctx) error {
	videos, err := h.inv.GetVideos(c.Context(), c.Params("id"))
	if err != nil {
		return selectionError(c, err)
	}
	out := make([]inventory.VideoDTO, 0, len(videos))
	for i := range videos {
		out = append(out, videos[i].DTO())
	}
	return c.JSON(fiber.Map{"success": true, "videos": out})
}

func (h *Handler) PendingSync(c *fiber.Ctx) error {
	pending, err := h.inv.GetPendingSync(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "pending": pending})
}

type markSyncedRequest struct {
	Inventories []string `json:"inventories"`
	Spaces      []string `json:"spaces"`
	Elements    []string `json:"elements"`
	Attributes  []string `json:"attributes"`
	Images      []string `json:"images"`
	Videos      []string `json:"videos"`
}

// MarkSynced acknowledges remote persistence of the listed rows, per kind.
func (h *Handler) MarkSynced(c *fiber.Ctx) error {
	var req markSyncedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid request body"})
	}
	kinds := map[string][]string{
		"inventories": req.Inventories,
		"spaces":      req.Spaces,
		"elements":    req.Elements,
		"attributes":  req.Attributes,
		"images":      req.Images,
		"videos":      req.Videos,
	}
	marked := 0
	for kind, ids := range kinds {
		if len(ids) == 0 {
			continue
		}
		if err := h.inv.MarkSynced(c.Context(), kind, ids); err != nil {
			return err
		}
		marked += len(ids)
	}
	return c.JSON(fiber.Map{"success": true, "marked": marked})
}

// UploadVideo stores a recorded clip against the current space. The body is
// the raw video payload; an optional description rides in the query string.
func (h *Handler) UploadVideo(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "empty video payload"})
	}
	video, err := h.inv.SaveVideoBytes(c.Context(), body, c.Query("description"))
	if err != nil {
		return selectionError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "video": video.DTO()})
}

// selectionError maps missing-selection and not-found errors to client
// status codes; everything else bubbles to the error handler.
func selectionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, inventory.ErrNoInventorySelected),
		errors.Is(err, inventory.ErrNoSpaceSelected),
		errors.Is(err, inventory.ErrNoElementSelected):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
	}
	return err
}
