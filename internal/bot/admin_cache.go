package bot

import (
	"strconv"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	log "github.com/sirupsen/logrus"
)

const adminCacheSize = 4096

// AdminCache answers "is this user an admin of this chat" without asking
// the Telegram API on every message. A lookup failure counts as "not
// admin" and is not cached, so a transient transport error cannot grant
// or deny the bypass for the whole TTL.
type AdminCache struct {
	bot   *api.BotAPI
	cache *expirable.LRU[string, bool]
}

func NewAdminCache(bot *api.BotAPI, ttl time.Duration) *AdminCache {
	return &AdminCache{
		bot:   bot,
		cache: expirable.NewLRU[string, bool](adminCacheSize, nil, ttl),
	}
}

func (c *AdminCache) IsAdmin(chatID, userID int64) bool {
	key := strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
	if isAdmin, ok := c.cache.Get(key); ok {
		return isAdmin
	}
	isAdmin, err := IsChatAdmin(c.bot, chatID, userID)
	if err != nil {
		log.WithField("error", err.Error()).WithField("chat_id", chatID).Debug("admin lookup failed, treating as not admin")
		return false
	}
	c.cache.Add(key, isAdmin)
	return isAdmin
}

// Invalidate drops the cached status, used after promotions/demotions
// observed via chat member updates.
func (c *AdminCache) Invalidate(chatID, userID int64) {
	key := strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
	c.cache.Remove(key)
}
