package sql

import (
	"atelier/internal/entity"
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// PutChatSession inserts or overwrites a chat session by primary key.
func (s *GormStore) PutChatSession(ctx context.Context, session *entity.ChatSession) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(session).Error
}

// ListChatSessions returns every stored chat session.
func (s *GormStore) ListChatSessions(ctx context.Context) ([]entity.ChatSession, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var sessions []entity.ChatSession
	if err := s.db.WithContext(ctx).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteChatSession removes a chat session. Missing keys are a no-op.
func (s *GormStore) DeleteChatSession(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.ChatSession{}, "id = ?", id).Error
}

// CountChatSessions returns the number of stored chat sessions.
func (s *GormStore) CountChatSessions(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.ChatSession{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// PutAgent inserts or overwrites an agent preset by primary key.
func (s *GormStore) PutAgent(ctx context.Context, agent *entity.Agent) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if agent == nil {
		return fmt.Errorf("agent is nil")
	}
	if strings.TrimSpace(agent.ID) == "" {
		return fmt.Errorf("agent id is empty")
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(agent).Error
}

// ListAgents returns every stored agent preset.
func (s *GormStore) ListAgents(ctx context.Context) ([]entity.Agent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var agents []entity.Agent
	if err := s.db.WithContext(ctx).Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

// DeleteAgent removes an agent preset. Missing keys are a no-op.
func (s *GormStore) DeleteAgent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("agent id is empty")
	}
	return s.db.WithContext(ctx).Delete(&entity.Agent{}, "id = ?", id).Error
}

// CountAgents returns the number of stored agent presets.
func (s *GormStore) CountAgents(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&entity.Agent{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
