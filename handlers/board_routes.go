// handlers/board_routes.go
package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"drop-mission-service/middleware"
	"drop-mission-service/services"
	"drop-mission-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupBoardRoutes(app *fiber.App, catalogService *services.CatalogService, postService *services.PostService) {
	// 🔓 Catalog reads are public (map rendering)
	app.Get("/boards", catalogService.GetBoards)
	app.Get("/boards/:id", catalogService.GetBoardByID)

	// 🔐 Sub-forum writes need user context
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Get("/boards/:id/posts", postService.GetBoardPosts)
	secured.Post("/boards/:id/posts", postService.CreateBoardPost)
	secured.Post("/posts/:id/comments", postService.AddComment)

	// Photo evidence upload — returns the opaque photoRef used in completion
	// requests. R2 when configured, local uploads dir otherwise.
	secured.Post("/evidence/photo", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		fileHeader, err := c.FormFile("photo")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
		}

		if utils.R2Enabled() {
			url, err := utils.UploadEvidencePhoto(fileHeader, userID)
			if err != nil {
				log.Printf("❌ Evidence upload to R2 failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
			}
			return c.JSON(fiber.Map{"photo_ref": url})
		}

		filename := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		destPath := utils.GetUploadPath(filepath.Join("evidence", userID, filename))
		if err := utils.SaveFile(fileHeader, destPath); err != nil {
			log.Printf("❌ Evidence upload to disk failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to store photo"})
		}
		return c.JSON(fiber.Map{"photo_ref": "/" + filepath.ToSlash(destPath)})
	})
}
