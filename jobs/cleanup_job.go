package jobs

import (
	"log"
	"time"

	"github.com/nmwangui/testprep/database"
	"github.com/nmwangui/testprep/models"
	"gorm.io/gorm"
)

const abandonedDraftAge = 30 * 24 * time.Hour

// PurgeAbandonedDrafts removes DRAFT tests that were generated but never opened.
// Started and completed tests are kept forever.
func PurgeAbandonedDrafts() {
	log.Println("Running job: PurgeAbandonedDrafts...")

	cutoff := time.Now().Add(-abandonedDraftAge)

	var staleTests []models.Test
	if err := database.DB.
		Where("status = ? AND started_at IS NULL AND created_at < ?", models.TestStatusDraft, cutoff).
		Find(&staleTests).Error; err != nil {
		log.Printf("Error finding abandoned draft tests: %v", err)
		return
	}

	if len(staleTests) == 0 {
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		for _, test := range staleTests {
			if err := tx.Delete(&models.Question{}, "test_id = ?", test.ID).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Test{}, "id = ?", test.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("Error purging abandoned draft tests: %v", err)
		return
	}

	log.Printf("Purged %d abandoned draft test(s)", len(staleTests))
}
