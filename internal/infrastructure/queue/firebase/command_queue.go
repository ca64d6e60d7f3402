package firebase

import (
	"context"
	"fmt"
	"path"
	"strings"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

// Config параметры подключения к Realtime Database
type Config struct {
	DatabaseURL     string
	CredentialsFile string
	Root            string
}

// refWriter абстрагирует запись по пути (db.Ref в production)
type refWriter interface {
	Set(ctx context.Context, p string, v interface{}) error
}

type dbWriter struct {
	client *db.Client
}

func (w dbWriter) Set(ctx context.Context, p string, v interface{}) error {
	return w.client.NewRef(p).Set(ctx, v)
}

// CommandQueue реализует port.CommandQueue поверх Firebase Realtime Database.
// Бот читает команды из <root>/<guild_id>/<command_id>.
type CommandQueue struct {
	writer refWriter
	root   string
	logger *logger.Logger
}

// NewCommandQueue создает клиента Realtime Database
func NewCommandQueue(ctx context.Context, cfg Config, log *logger.Logger) (*CommandQueue, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("firebase database url is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: cfg.DatabaseURL}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init realtime database client: %w", err)
	}

	log.Info("Connected to Firebase Realtime Database", "url", cfg.DatabaseURL)

	return newCommandQueue(dbWriter{client: client}, cfg.Root, log), nil
}

func newCommandQueue(writer refWriter, root string, log *logger.Logger) *CommandQueue {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		root = "commands"
	}
	return &CommandQueue{writer: writer, root: root, logger: log}
}

// Push записывает команду и возвращает путь записи
func (q *CommandQueue) Push(ctx context.Context, guildID, commandID string, command *dto.TicketCommandDTO) (string, error) {
	if guildID == "" || commandID == "" {
		return "", fmt.Errorf("guild id and command id are required")
	}
	if strings.ContainsAny(guildID+commandID, "/.#$[]") {
		return "", fmt.Errorf("invalid characters in command path")
	}

	p := "/" + path.Join(q.root, guildID, commandID)
	if err := q.writer.Set(ctx, p, command); err != nil {
		return "", fmt.Errorf("failed to write command: %w", err)
	}

	q.logger.Info("Command queued", "path", p, "action", command.Action)

	return p, nil
}
