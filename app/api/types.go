package api

import (
	"context"

	"github.com/lysyi3m/news-relay/app/news"
	"github.com/lysyi3m/news-relay/app/notify"
	"github.com/lysyi3m/news-relay/app/push"
)

type ArticleService interface {
	FetchArticles(ctx context.Context, limit int, category string) ([]news.Article, error)
	FetchBreaking(ctx context.Context) ([]news.Article, error)
	FetchPopular(ctx context.Context) ([]news.Article, error)
	FetchCategory(ctx context.Context, category string) ([]news.Article, error)
	Configured() bool
}

type GeneratorInterface interface {
	Run(channel news.Channel, articles []news.Article) (string, error)
}

type RegistrarInterface interface {
	CurrentToken(ctx context.Context) (string, error)
	Subscribe(ctx context.Context, topic string) bool
	Unsubscribe(ctx context.Context, topic string) bool
}

type EventHandler interface {
	Handle(ctx context.Context, event push.Event) error
}

type HistoryInterface interface {
	List(ctx context.Context, limit int) ([]notify.HistoryEntry, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) (int64, error)
}

var (
	_ ArticleService     = (*news.Service)(nil)
	_ GeneratorInterface = (*news.Generator)(nil)
	_ RegistrarInterface = (*push.Registrar)(nil)
	_ EventHandler       = (*push.Dispatcher)(nil)
	_ HistoryInterface   = (*notify.History)(nil)
)

type Handler struct {
	articles   ArticleService
	generator  GeneratorInterface
	registrar  RegistrarInterface
	dispatcher EventHandler
	history    HistoryInterface
	baseURL    string
	version    string
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}
