package chat

import (
	"context"
	"strings"
)

// Service is the read/write surface over chats used by the HTTP layer. Turns go through
// the turn package instead.
type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) Repo() *Repo { return s.repo }

func (s *Service) CreateChat(ctx context.Context, title string) (*Chat, error) {
	return s.repo.CreateChat(ctx, title)
}

func (s *Service) ListChats(ctx context.Context) ([]Chat, error) {
	return s.repo.ListChats(ctx)
}

func (s *Service) GetChat(ctx context.Context, id string) (*Chat, error) {
	return s.repo.GetChat(ctx, id)
}

func (s *Service) RenameChat(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	return s.repo.UpdateChatTitle(ctx, id, title)
}

func (s *Service) DeleteChat(ctx context.Context, id string) error {
	return s.repo.DeleteChat(ctx, id)
}

// ListMessages returns a chat's messages. visibleOnly drops system entries, which is what
// a transcript view shows.
func (s *Service) ListMessages(ctx context.Context, chatID string, visibleOnly bool, order Order) ([]Message, error) {
	if _, err := s.repo.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	if visibleOnly {
		return s.repo.ListMessagesForUI(ctx, chatID, order)
	}
	return s.repo.ListMessages(ctx, chatID, order)
}

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	if _, err := s.repo.GetChat(ctx, job.ChatID); err != nil {
		return nil, false, err
	}
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}
