package port

import "context"

// ReportStorage определяет интерфейс архива JSON-отчетов.
type ReportStorage interface {
	// PutObject загружает объект и возвращает URL для чтения.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)
}
