// services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"log"

	"drop-mission-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

// CatalogService is the read side of the immutable board/mission catalog,
// plus one-shot seeding at boot.
type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// wonPrinter renders prices with ko-KR digit grouping for mission copy
var wonPrinter = message.NewPrinter(language.Korean)

func formatWon(amount int) string {
	return wonPrinter.Sprintf("%d원", amount)
}

// BoardSeed is one catalog entry to expand into a board with its five missions.
type BoardSeed struct {
	Emoji              string
	Title              string
	Description        string
	Latitude           float64
	Longitude          float64
	QuietStartHour     float64
	QuietEndHour       float64
	StayMinutes        int
	VisitReward        int
	StayReward         int
	ReceiptItemName    string
	ReceiptItemPrice   int
	TreasureGuideText  string
	TreasureGuideImage string
	StampGoalCount     int
	StampReward        int
}

// DefaultBoardSeeds is the demo catalog around the Seongsu neighborhood.
var DefaultBoardSeeds = []BoardSeed{
	{
		Emoji: "☕", Title: "모카하우스 성수점",
		Description: "한산 시간 방문/체류 미션으로 코인을 받을 수 있어요.",
		Latitude:    37.5463937599992, Longitude: 127.065889477465,
		QuietStartHour: 14, QuietEndHour: 16,
		StayMinutes: 30, VisitReward: 12, StayReward: 35,
		ReceiptItemName: "카페라떼", ReceiptItemPrice: 5500,
		TreasureGuideText:  "창가 옆 머그컵",
		TreasureGuideImage: "https://picsum.photos/seed/drop-treasure-1/640/420",
		StampGoalCount:     5, StampReward: 43,
	},
	{
		Emoji: "🍔", Title: "버거랩 성수점",
		Description: "점심 피크 이후 미션 참여 시 리워드를 받을 수 있어요.",
		Latitude:    37.5449, Longitude: 127.0641,
		QuietStartHour: 15, QuietEndHour: 18,
		StayMinutes: 20, VisitReward: 10, StayReward: 24,
		ReceiptItemName: "더블치즈버거 세트", ReceiptItemPrice: 12900,
		TreasureGuideText:  "카운터 종이백",
		TreasureGuideImage: "https://picsum.photos/seed/drop-treasure-2/640/420",
		StampGoalCount:     5, StampReward: 32,
	},
	{
		Emoji: "🌙", Title: "새벽 등대 티하우스",
		Description: "새벽 이동 동선을 겨냥해 이른 인증 미션을 운영하는 티하우스.",
		Latitude:    37.5478, Longitude: 127.0672,
		QuietStartHour: 22, QuietEndHour: 2,
		StayMinutes: 15, VisitReward: 14, StayReward: 20,
		ReceiptItemName: "콜드브루", ReceiptItemPrice: 5800,
		TreasureGuideText:  "입구 앞 노란 의자",
		TreasureGuideImage: "https://picsum.photos/seed/drop-treasure-3/640/420",
		StampGoalCount:     3, StampReward: 30,
	},
	{
		Emoji: "🥯", Title: "성수 브런치웍스",
		Description: "브런치 이후 여유 시간대 방문 고객 집중형 이벤트.",
		Latitude:    37.5441, Longitude: 127.0689,
		QuietStartHour: 13, QuietEndHour: 15,
		StayMinutes: 25, VisitReward: 11, StayReward: 28,
		ReceiptItemName: "시저 샐러드", ReceiptItemPrice: 11900,
		TreasureGuideText:  "벽면 포스터 하단",
		TreasureGuideImage: "https://picsum.photos/seed/drop-treasure-4/640/420",
		StampGoalCount:     5, StampReward: 36,
	},
}

// SeedCatalog inserts the seed boards with their five missions each. Idempotent
// by slug: boards already present are left untouched (the catalog is immutable
// once created).
func (s *CatalogService) SeedCatalog(seeds []BoardSeed) error {
	for _, seed := range seeds {
		boardSlug := slug.Make(seed.Title)

		var existing models.Board
		err := s.DB.Where("slug = ?", boardSlug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		board := models.Board{
			ID:          uuid.NewString(),
			Slug:        boardSlug,
			Emoji:       seed.Emoji,
			Title:       seed.Title,
			Description: seed.Description,
			Latitude:    seed.Latitude,
			Longitude:   seed.Longitude,
		}
		board.Missions = buildMissions(board.ID, seed)

		if err := s.DB.Create(&board).Error; err != nil {
			return fmt.Errorf("seeding board %q: %w", seed.Title, err)
		}
		log.Printf("🗺️ Seeded board %q (%s) with %d missions", board.Title, board.Slug, len(board.Missions))
	}
	return nil
}

func buildMissions(boardID string, seed BoardSeed) []models.Mission {
	quietStart, quietEnd := seed.QuietStartHour, seed.QuietEndHour
	stayMinutes := seed.StayMinutes
	receiptName, receiptPrice := seed.ReceiptItemName, seed.ReceiptItemPrice
	guideText, guideImage := seed.TreasureGuideText, seed.TreasureGuideImage
	stampGoal := seed.StampGoalCount

	return []models.Mission{
		{
			ID:      uuid.NewString(),
			BoardID: boardID,
			Type:    models.MissionTypeQuietTimeVisit,
			Title:   "한산 시간대 방문 인증",
			Description: fmt.Sprintf("%.0f시~%.0f시 방문 후 GPS 인증 시 코인 적립.",
				quietStart, quietEnd),
			RewardCoins:        seed.VisitReward,
			QuietTimeStartHour: &quietStart,
			QuietTimeEndHour:   &quietEnd,
		},
		{
			ID:      uuid.NewString(),
			BoardID: boardID,
			Type:    models.MissionTypeStayDuration,
			Title:   fmt.Sprintf("%d분 이상 체류", stayMinutes),
			Description: fmt.Sprintf("체류 시작/종료 시 GPS를 기록해 %d분 이상 체류를 검증합니다.",
				stayMinutes),
			RewardCoins:        seed.StayReward,
			MinDurationMinutes: &stayMinutes,
		},
		{
			ID:      uuid.NewString(),
			BoardID: boardID,
			Type:    models.MissionTypeReceiptPurchase,
			Title:   "영수증으로 구매인증",
			Description: fmt.Sprintf("판매자가 지정한 %s(%s) 구매 영수증을 촬영해 인증하세요.",
				receiptName, formatWon(receiptPrice)),
			RewardCoins:      max(seed.StayReward*3/4, 16),
			ReceiptItemName:  &receiptName,
			ReceiptItemPrice: &receiptPrice,
		},
		{
			ID:      uuid.NewString(),
			BoardID: boardID,
			Type:    models.MissionTypeCameraTreasureHunt,
			Title:   "카메라로 보물찾기",
			Description: fmt.Sprintf("가이드 사진과 %q 힌트를 보고 같은 장면을 촬영해 인증하세요.",
				guideText),
			RewardCoins:           max(seed.StayReward*7/10, 15),
			TreasureGuideText:     &guideText,
			TreasureGuideImageURL: &guideImage,
		},
		{
			ID:      uuid.NewString(),
			BoardID: boardID,
			Type:    models.MissionTypeRepeatVisitStamp,
			Title:   fmt.Sprintf("반복 방문 스탬프 (%d회)", stampGoal),
			Description: fmt.Sprintf("하루 1회 방문 인증으로 스탬프를 모으고 %d개를 채우면 보상을 받아요.",
				stampGoal),
			RewardCoins:    seed.StampReward,
			StampGoalCount: &stampGoal,
		},
	}
}

// --- Read handlers ---

// GetBoards returns the full catalog with missions for map rendering
func (s *CatalogService) GetBoards(c *fiber.Ctx) error {
	var boards []models.Board
	if err := s.DB.Preload("Missions").Order("created_at DESC").Find(&boards).Error; err != nil {
		log.Printf("DB Error fetching boards: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch boards"})
	}
	return c.JSON(boards)
}

// GetBoardByID returns one board with its missions
func (s *CatalogService) GetBoardByID(c *fiber.Ctx) error {
	id := c.Params("id")

	var board models.Board
	if err := s.DB.Preload("Missions").First(&board, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Board not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(board)
}

// GetMission looks up one mission row (used by handlers for the proximity
// precondition before touching the ledger).
func (s *CatalogService) GetMission(missionID string) (*models.Mission, *models.Board, error) {
	var mission models.Mission
	if err := s.DB.First(&mission, "id = ?", missionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrMissionNotFound
		}
		return nil, nil, err
	}
	var board models.Board
	if err := s.DB.First(&board, "id = ?", mission.BoardID).Error; err != nil {
		return nil, nil, err
	}
	return &mission, &board, nil
}
