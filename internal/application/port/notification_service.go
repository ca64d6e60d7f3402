package port

import "github.com/dreschagin/guild-insights/internal/application/dto"

// NotificationService определяет интерфейс для отправки уведомлений (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastAnalysis отправляет событие о завершенном анализе всем подписчикам
	BroadcastAnalysis(event *dto.AnalysisCompletedEvent)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
