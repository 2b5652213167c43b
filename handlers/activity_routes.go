// handlers/activity_routes.go
package handlers

import (
	"errors"
	"time"

	"drop-mission-service/middleware"
	"drop-mission-service/models"
	"drop-mission-service/services"
	"drop-mission-service/utils"
	"drop-mission-service/verification"

	"github.com/gofiber/fiber/v2"
)

// SetupActivityRoutes wires the mission ledger operations and the read-side
// aggregations. geofenceRadiusM is the proximity precondition threshold for
// visit-type missions; it has no default and comes from required config.
func SetupActivityRoutes(app *fiber.App, activityService *services.ActivityService, catalogService *services.CatalogService, geofenceRadiusM float64) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/missions/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		missionID := c.Params("id")

		var req struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		// Start fixes are evidence too: reject starts outside the geofence so a
		// stay-duration attempt can't begin across town.
		if mission, board, err := catalogService.GetMission(missionID); err == nil {
			switch mission.Type {
			case models.MissionTypeQuietTimeVisit, models.MissionTypeRepeatVisitStamp, models.MissionTypeStayDuration:
				dist := utils.HaversineMeters(req.Latitude, req.Longitude, board.Latitude, board.Longitude)
				if dist > geofenceRadiusM {
					return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
						"error":          "outside board geofence",
						"distance_m":     dist,
						"max_distance_m": geofenceRadiusM,
					})
				}
			}
		}

		entry, err := activityService.StartMission(userID, missionID,
			models.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude}, time.Now())
		switch {
		case errors.Is(err, services.ErrMissionNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "mission not found"})
		case errors.Is(err, services.ErrDuplicateActiveAttempt):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "mission attempt already in progress"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start mission", "cause": err.Error()})
		}

		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	secured.Post("/activities/:id/complete", func(c *fiber.Ctx) error {
		entryID := c.Params("id")

		var req struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			PhotoRef  string   `json:"photo_ref"`
			Receipt   *struct {
				ItemName  string `json:"item_name"`
				ItemPrice int    `json:"item_price"`
			} `json:"receipt"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "cause": err.Error()})
		}

		ev := verification.Evidence{
			Now:      time.Now(),
			PhotoRef: req.PhotoRef,
		}
		if req.Latitude != nil && req.Longitude != nil {
			ev.End = &models.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		}
		if req.Receipt != nil {
			ev.Receipt = &verification.ReceiptExtraction{
				ItemName:  req.Receipt.ItemName,
				ItemPrice: req.Receipt.ItemPrice,
			}
		}

		// Proximity precondition for visit-type missions: a completion fix is
		// mandatory and must be inside the board geofence before evidence is
		// even considered. A missing entry falls through to CompleteMission,
		// which produces the canonical not-found response.
		var entry models.ParticipatedActivity
		if err := activityService.DB.First(&entry, "id = ?", entryID).Error; err == nil {
			switch entry.MissionType {
			case models.MissionTypeQuietTimeVisit, models.MissionTypeRepeatVisitStamp, models.MissionTypeStayDuration:
				if ev.End == nil {
					return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "location fix is required for this mission type"})
				}
				if _, board, err := catalogService.GetMission(entry.MissionID); err == nil {
					dist := utils.HaversineMeters(ev.End.Latitude, ev.End.Longitude, board.Latitude, board.Longitude)
					if dist > geofenceRadiusM {
						return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
							"error":          "outside board geofence",
							"distance_m":     dist,
							"max_distance_m": geofenceRadiusM,
						})
					}
				}
			}
		}

		outcome, err := activityService.CompleteMission(entryID, ev)
		switch {
		case errors.Is(err, services.ErrEntryNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found or already completed"})
		case errors.Is(err, verification.ErrEvidenceMissing):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "required evidence not supplied"})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to complete mission", "cause": err.Error()})
		}

		return c.JSON(outcome)
	})

	secured.Get("/user/activities", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		entries, err := activityService.UserHistory(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get history", "cause": err.Error()})
		}
		return c.JSON(entries)
	})

	secured.Get("/user/activities/stores", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		stores, err := activityService.ParticipatedStores(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get participated stores", "cause": err.Error()})
		}
		return c.JSON(stores)
	})

	secured.Get("/boards/:id/activities", func(c *fiber.Ctx) error {
		entries, err := activityService.BoardHistory(c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get board history", "cause": err.Error()})
		}
		return c.JSON(entries)
	})

	secured.Get("/missions/:id/stamp-card", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		card, err := activityService.StampCard(userID, c.Params("id"))
		if errors.Is(err, services.ErrMissionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "repeat-visit mission not found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to get stamp card", "cause": err.Error()})
		}
		return c.JSON(card)
	})
}
