package realtime

import "fmt"

// Топики рассылки. Клиент подписывается на один топик за соединение.
const (
	TopicCustoms     = "customs"
	TopicTournaments = "tournaments"
	TopicTeams       = "teams"
	TopicNews        = "news"
)

// UserTopic — персональный топик пользователя для уведомлений.
func UserTopic(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

// EventSink принимает доменные события и доставляет их подписчикам.
// Сервисы зависят только от этого интерфейса, не от websocket-хаба.
type EventSink interface {
	Publish(topic, eventType string, payload interface{})
}

// Типы событий.
const (
	EventCustomCreated     = "CUSTOM_CREATED"
	EventCustomUpdated     = "CUSTOM_UPDATED"
	EventCustomDeleted     = "CUSTOM_DELETED"
	EventMatchCompleted    = "MATCH_COMPLETED"
	EventTournamentCreated = "TOURNAMENT_CREATED"
	EventTournamentUpdated = "TOURNAMENT_UPDATED"
	EventTeamCreated       = "TEAM_CREATED"
	EventTeamUpdated       = "TEAM_UPDATED"
	EventNewsCreated       = "NEWS_CREATED"
	EventNotification      = "NOTIFICATION_NEW"
)

// NopSink игнорирует все события. Удобен в тестах.
type NopSink struct{}

func (NopSink) Publish(string, string, interface{}) {}
