package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/senior-acido/internal/memory"
	"github.com/easeaico/senior-acido/internal/types"
)

// chatHistoryModel maps to the chat_histories table.
type chatHistoryModel struct {
	ID        int              `gorm:"primaryKey"`
	UserID    string           `gorm:"size:64;index:idx_chat_histories_user_created,priority:1"`
	Question  string           `gorm:"type:text;not null"`
	Answer    string           `gorm:"type:text;not null"`
	Category  string           `gorm:"size:32;not null;default:'casual';index"`
	Title     string           `gorm:"size:255"`
	Model     string           `gorm:"size:128"`
	Embedding *pgvector.Vector `gorm:"type:vector(384)"`
	CreatedAt time.Time        `gorm:"index:idx_chat_histories_user_created,priority:2"`
}

func (chatHistoryModel) TableName() string {
	return "chat_histories"
}

// chatHistoryRepo accesses chat history data.
type chatHistoryRepo struct {
	db *gorm.DB
}

// NewChatHistoryRepo returns a HistoryRepo.
func NewChatHistoryRepo(db *gorm.DB) memory.HistoryRepo {
	return &chatHistoryRepo{db: db}
}

func (r *chatHistoryRepo) AppendHistory(ctx context.Context, history types.HistoryRecord) error {
	var vector *pgvector.Vector
	if len(history.Embedding) > 0 {
		v := pgvector.NewVector(history.Embedding)
		vector = &v
	}
	record := chatHistoryModel{
		UserID:    history.UserID,
		Question:  history.Question,
		Answer:    history.Answer,
		Category:  history.Category,
		Title:     history.Title,
		Model:     history.Model,
		Embedding: vector,
	}
	if record.Category == "" {
		record.Category = types.CategoryCasual
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert chat history: %w", err)
	}
	return nil
}

func (r *chatHistoryRepo) RecentHistory(ctx context.Context, userID string, limit int) ([]types.HistoryRecord, error) {
	var records []chatHistoryModel
	if err := r.db.WithContext(ctx).
		Omit("embedding").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat histories: %w", err)
	}

	results := make([]types.HistoryRecord, 0, len(records))
	for _, record := range records {
		results = append(results, chatHistoryFromModel(record))
	}
	return results, nil
}

func (r *chatHistoryRepo) SearchSimilar(ctx context.Context, userID string, embedding []float32, threshold float64, limit int) ([]types.SimilarRecord, error) {
	if len(embedding) == 0 || limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT question, answer, category, created_at, 1 - (embedding <=> $1) AS similarity
		FROM chat_histories
		WHERE user_id = $2
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY similarity DESC
		LIMIT $4`

	vector := pgvector.NewVector(embedding)
	var results []types.SimilarRecord
	if err := r.db.WithContext(ctx).
		Raw(query, vector, userID, threshold, limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar history: %w", err)
	}
	return results, nil
}

func (r *chatHistoryRepo) DeleteHistoryByCategory(ctx context.Context, userID, category string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Delete(&chatHistoryModel{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete chat histories: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func chatHistoryFromModel(model chatHistoryModel) types.HistoryRecord {
	return types.HistoryRecord{
		ID:        model.ID,
		UserID:    model.UserID,
		Question:  model.Question,
		Answer:    model.Answer,
		Category:  model.Category,
		Title:     model.Title,
		Model:     model.Model,
		CreatedAt: model.CreatedAt,
	}
}
