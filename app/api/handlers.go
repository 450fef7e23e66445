package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/news-relay/app/fcm"
	"github.com/lysyi3m/news-relay/app/news"
	"github.com/lysyi3m/news-relay/app/notify"
	"github.com/lysyi3m/news-relay/app/push"
	"github.com/lysyi3m/news-relay/app/supabase"
)

const defaultArticleLimit = 20

func NewHandler(articles ArticleService, registrar RegistrarInterface, dispatcher EventHandler,
	history HistoryInterface, baseURL, version string) *Handler {
	return &Handler{
		articles:   articles,
		generator:  news.NewGenerator(),
		registrar:  registrar,
		dispatcher: dispatcher,
		history:    history,
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
	}
}

func (h *Handler) GetArticles(c *gin.Context) {
	limit := defaultArticleLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	articles, err := h.articles.FetchArticles(c.Request.Context(), limit, c.Query("category"))
	if err != nil {
		h.articleError(c, "fetch_articles", err)
		return
	}

	h.writeArticles(c, articles)
}

func (h *Handler) GetBreaking(c *gin.Context) {
	articles, err := h.articles.FetchBreaking(c.Request.Context())
	if err != nil {
		h.articleError(c, "fetch_breaking", err)
		return
	}

	h.writeArticles(c, articles)
}

func (h *Handler) GetPopular(c *gin.Context) {
	articles, err := h.articles.FetchPopular(c.Request.Context())
	if err != nil {
		h.articleError(c, "fetch_popular", err)
		return
	}

	h.writeArticles(c, articles)
}

func (h *Handler) GetCategory(c *gin.Context) {
	category := c.Param("category")

	articles, err := h.articles.FetchCategory(c.Request.Context(), category)
	if err != nil {
		h.articleError(c, "fetch_category", err)
		return
	}

	h.writeArticles(c, articles)
}

func (h *Handler) GetBreakingFeed(c *gin.Context) {
	articles, err := h.articles.FetchBreaking(c.Request.Context())
	if err != nil {
		h.feedError(c, "breaking", err)
		return
	}

	h.writeFeed(c, "Breaking news", "/feeds/breaking", articles)
}

func (h *Handler) GetPopularFeed(c *gin.Context) {
	articles, err := h.articles.FetchPopular(c.Request.Context())
	if err != nil {
		h.feedError(c, "popular", err)
		return
	}

	h.writeFeed(c, "Popular news", "/feeds/popular", articles)
}

func (h *Handler) GetCategoryFeed(c *gin.Context) {
	category := c.Param("category")

	articles, err := h.articles.FetchCategory(c.Request.Context(), category)
	if err != nil {
		h.feedError(c, category, err)
		return
	}

	h.writeFeed(c, category, "/feeds/category/"+category, articles)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":         time.Now().In(time.Local).Format(time.RFC3339),
		"version":           h.version,
		"source_configured": h.articles.Configured(),
	}

	if h.history != nil {
		if unread, err := h.history.UnreadCount(c.Request.Context()); err == nil {
			health["unread_notifications"] = unread
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIGetToken(c *gin.Context) {
	token, err := h.registrar.CurrentToken(c.Request.Context())
	if err != nil {
		if errors.Is(err, push.ErrNoPlatform) || errors.Is(err, fcm.ErrNoToken) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No push token available"})
			return
		}
		slog.Error("Failed to read push token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) APISaveToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	// A token-only event saves the token and queues its registration.
	if err := h.dispatcher.Handle(c.Request.Context(), push.Event{Token: strings.TrimSpace(req.Token)}); err != nil {
		if errors.Is(err, push.ErrEmptyEvent) || errors.Is(err, push.ErrEmptyToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
			return
		}
		slog.Error("Failed to save push token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save push token"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "saved"})
}

func (h *Handler) APIPushEvent(c *gin.Context) {
	var event push.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid push event"})
		return
	}

	if err := h.dispatcher.Handle(c.Request.Context(), event); err != nil {
		if errors.Is(err, push.ErrEmptyEvent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Push event has no content"})
			return
		}
		slog.Error("Failed to handle push event", "message_id", event.MessageID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to handle push event"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "handled"})
}

func (h *Handler) APISubscribe(c *gin.Context) {
	topic := c.Param("topic")
	c.JSON(http.StatusOK, gin.H{
		"topic":      topic,
		"subscribed": h.registrar.Subscribe(c.Request.Context(), topic),
	})
}

func (h *Handler) APIUnsubscribe(c *gin.Context) {
	topic := c.Param("topic")
	c.JSON(http.StatusOK, gin.H{
		"topic":        topic,
		"unsubscribed": h.registrar.Unsubscribe(c.Request.Context(), topic),
	})
}

func (h *Handler) APIListNotifications(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	entries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_notifications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if entries == nil {
		entries = []notify.HistoryEntry{}
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": entries,
		"total":         len(entries),
	})
}

func (h *Handler) APIUnreadCount(c *gin.Context) {
	count, err := h.history.UnreadCount(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "unread_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (h *Handler) APIMarkAllRead(c *gin.Context) {
	updated, err := h.history.MarkAllRead(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "mark_all_read", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) APIMarkRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.history.MarkRead(c.Request.Context(), id); err != nil {
		h.historyError(c, "mark_read", id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "is_read": true})
}

func (h *Handler) APIDeleteNotification(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.history.Delete(c.Request.Context(), id); err != nil {
		h.historyError(c, "delete_notification", id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) APIClearNotifications(c *gin.Context) {
	deleted, err := h.history.Clear(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "clear_notifications", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func (h *Handler) writeArticles(c *gin.Context, articles []news.Article) {
	if articles == nil {
		articles = []news.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) writeFeed(c *gin.Context, title, path string, articles []news.Article) {
	channel := news.Channel{
		Title:    title,
		Link:     h.baseURL,
		SelfLink: h.baseURL + path,
		Version:  h.version,
	}

	rss, err := h.generator.Run(channel, articles)
	if err != nil {
		slog.Error("RSS generation error", "feed", title, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(articles)))
	c.String(http.StatusOK, rss)
}

func (h *Handler) articleError(c *gin.Context, operation string, err error) {
	status, message := articleErrorStatus(err)
	slog.Error("Article query failed", "operation", operation, "status", status, "error", err)
	c.JSON(status, gin.H{"error": message})
}

func (h *Handler) feedError(c *gin.Context, feed string, err error) {
	status, _ := articleErrorStatus(err)
	slog.Error("Feed query failed", "feed", feed, "status", status, "error", err)
	c.Status(status)
}

func (h *Handler) historyError(c *gin.Context, operation string, id int64, err error) {
	if errors.Is(err, notify.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	slog.Error("Database error", "operation", operation, "id", id, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}

func articleErrorStatus(err error) (int, string) {
	var transportErr *supabase.TransportError

	switch {
	case errors.Is(err, news.ErrConfiguration):
		return http.StatusServiceUnavailable, "Article backend is not configured"
	case errors.Is(err, news.ErrInvalidLimit):
		return http.StatusBadRequest, "Limit must be positive"
	case errors.As(err, &transportErr):
		return http.StatusBadGateway, "Article backend request failed"
	default:
		return http.StatusInternalServerError, "Failed to fetch articles"
	}
}

func notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification id"})
		return 0, false
	}
	return id, true
}
