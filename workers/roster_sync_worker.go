// workers/roster_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"school-admin-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RosterStudent matches the JSON the school information service returns
// for directory changes.
type RosterStudent struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClassID   string    `json:"class_id"`
	ClassName string    `json:"class_name"`
	Status    string    `json:"status"` // "active" | "inactive" | "graduated"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RosterChangesResponse is the top-level sync payload.
type RosterChangesResponse struct {
	Students []RosterStudent `json:"students"`
}

// RosterSyncWorker mirrors the school directory into the local students
// and classes tables. Gamification only reads the mirror; all directory
// writes happen in the information service.
type RosterSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewRosterSyncWorker(db *gorm.DB, syncServiceBaseURL, endpointPath, serviceToken string) *RosterSyncWorker {
	return &RosterSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *RosterSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Roster Sync Worker (information service → students)…")
	go w.run(ctx)
}

func (w *RosterSyncWorker) run(ctx context.Context) {
	// Initial backfill from the beginning of time.
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial roster sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.lastSyncTime()); err != nil {
				log.Printf("❌ Roster sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Roster Sync Worker stopped")
			return
		}
	}
}

// lastSyncTime is the most recent UpdatedAt in the local mirror;
// incremental batches only fetch newer changes.
func (w *RosterSyncWorker) lastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM students WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

func (w *RosterSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}

	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	endpointURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpointURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create roster request: %w", err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("roster request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("roster sync returned %d: %s", resp.StatusCode, string(body))
	}

	var payload RosterChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("failed to decode roster payload: %w", err)
	}
	if len(payload.Students) == 0 {
		return nil
	}

	return w.upsert(payload.Students)
}

func (w *RosterSyncWorker) upsert(changes []RosterStudent) error {
	return w.db.Transaction(func(tx *gorm.DB) error {
		for _, rs := range changes {
			if rs.ClassID != "" {
				class := models.Class{ID: rs.ClassID, Name: rs.ClassName}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "id"}},
					DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
				}).Create(&class).Error; err != nil {
					return err
				}
			}

			student := models.Student{
				ID:             uuid.NewString(),
				ExternalUserID: rs.ID,
				Name:           rs.Name,
				ClassID:        rs.ClassID,
				IsActive:       rs.Status == "active",
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "class_id", "is_active", "updated_at"}),
			}).Create(&student).Error; err != nil {
				return err
			}
		}
		log.Printf("[SYNC] 📚 Roster mirror updated: %d student records", len(changes))
		return nil
	})
}
