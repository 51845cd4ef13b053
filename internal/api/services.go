package api

import (
	"github.com/flowdeckapp/flowdeck-server/internal/backup"
	"github.com/flowdeckapp/flowdeck-server/internal/search"
	"github.com/flowdeckapp/flowdeck-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Board   *service.BoardService
	Task    *service.TaskService
	Timer   *service.TimerService
	Comment *service.CommentService
	Billing *service.BillingService
	Share   *service.ShareService
	Search  *search.SearchIndex // nil when search is disabled (tests)
	Backup  *backup.Service
	Restore *backup.RestoreService
}
