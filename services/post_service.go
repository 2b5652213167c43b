// services/post_service.go
package services

import (
	"errors"
	"log"
	"strings"

	"drop-mission-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostService struct {
	DB *gorm.DB
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{DB: db}
}

// CreateBoardPost adds a post to a board's sub-forum
func (s *PostService) CreateBoardPost(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	boardID := c.Params("id")

	var req struct {
		Emoji    string `json:"emoji"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		PhotoURL string `json:"photo_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Title) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Title is required"})
	}

	var board models.Board
	if err := s.DB.First(&board, "id = ?", boardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	post := models.BoardPost{
		ID:       uuid.NewString(),
		BoardID:  board.ID,
		UserID:   userID,
		Emoji:    req.Emoji,
		Title:    req.Title,
		Content:  req.Content,
		PhotoURL: req.PhotoURL,
	}
	if err := s.DB.Create(&post).Error; err != nil {
		log.Printf("DB Error creating board post: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create post"})
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetBoardPosts lists a board's posts with comments, newest first
func (s *PostService) GetBoardPosts(c *fiber.Ctx) error {
	boardID := c.Params("id")

	var posts []models.BoardPost
	if err := s.DB.Preload("Comments").
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Find(&posts).Error; err != nil {
		log.Printf("DB Error fetching board posts: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch posts"})
	}
	return c.JSON(posts)
}

// AddComment appends a comment to a post
func (s *PostService) AddComment(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	postID := c.Params("id")

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Comment text is required"})
	}

	var post models.BoardPost
	if err := s.DB.First(&post, "id = ?", postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	comment := models.PostComment{
		ID:     uuid.NewString(),
		PostID: post.ID,
		UserID: userID,
		Text:   req.Text,
	}
	if err := s.DB.Create(&comment).Error; err != nil {
		log.Printf("DB Error creating comment: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create comment"})
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}
