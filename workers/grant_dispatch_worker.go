package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"drop-mission-service/models"
	"gorm.io/gorm"
)

// WalletClient delivers owed coin grants to the wallet service.
type WalletClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewWalletClient(db *gorm.DB) *WalletClient {
	baseURL := os.Getenv("WALLET_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("WALLET_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("DROP_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("DROP_SERVICE_TOKEN environment variable is required for grant delivery")
	}

	return &WalletClient{
		BaseURL: baseURL,
		Token:   token,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// DeliverGrant posts one grant to the wallet service. The grant id rides along
// so the wallet side can deduplicate a redelivery after a crash between the
// HTTP call and our status flip.
func (c *WalletClient) DeliverGrant(ctx context.Context, grant *models.CoinGrant) error {
	body, err := json.Marshal(map[string]interface{}{
		"grant_id": grant.ID,
		"user_id":  grant.UserID,
		"amount":   grant.Amount,
		"reason":   grant.Reason,
	})
	if err != nil {
		return fmt.Errorf("failed to encode grant %s: %w", grant.ID, err)
	}

	url := fmt.Sprintf("%s/api/v1/internal/wallets/grant", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call wallet service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("wallet service returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// PollPendingGrants drains pending coin grants to the wallet service. Grants
// are flipped to delivered only after the wallet call succeeds; a failed
// delivery stays pending and is retried next tick, so a completed entry is
// never left unrewarded.
func PollPendingGrants(ctx context.Context, client *WalletClient, pollInterval time.Duration) {
	log.Println("Starting coin grant dispatch worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Grant dispatch stopped.")
			return
		case <-ticker.C:
			var pending []models.CoinGrant
			if err := client.DB.
				Where("status = ?", models.GrantStatusPending).
				Order("created_at ASC").
				Limit(50).
				Find(&pending).Error; err != nil {
				log.Printf("❌ Error loading pending grants: %v", err)
				continue
			}

			if len(pending) == 0 {
				continue
			}
			log.Printf("📤 Dispatching %d pending coin grant(s)...", len(pending))

			for i := range pending {
				grant := &pending[i]
				if err := client.DeliverGrant(ctx, grant); err != nil {
					log.Printf("❌ Failed to deliver grant %s (retry next tick): %v", grant.ID, err)
					continue
				}

				now := time.Now()
				if err := client.DB.Model(&models.CoinGrant{}).
					Where("id = ? AND status = ?", grant.ID, models.GrantStatusPending).
					Updates(map[string]interface{}{
						"status":       models.GrantStatusDelivered,
						"delivered_at": now,
					}).Error; err != nil {
					log.Printf("❌ Delivered grant %s but failed to mark it: %v", grant.ID, err)
					continue
				}
				log.Printf("✅ Grant delivered: %s → user %s (%d coins, %s)", grant.ID, grant.UserID, grant.Amount, grant.Reason)
			}
		}
	}
}
