package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"news-rag-chat/internal/domain"
	"news-rag-chat/internal/infra/metrics"
)

const sessionKeyPrefix = "session:"

// appendTurnsScript appends ARGV[3..] to the list at KEYS[1] and refreshes its
// expiry to ARGV[1] seconds. A key holding another type is reset or rejected
// depending on ARGV[2]. Returns {reset, full list after the append}.
var appendTurnsScript = redis.NewScript(`
local t = redis.call('TYPE', KEYS[1])
if type(t) == 'table' then t = t['ok'] end
local reset = 0
if t ~= 'none' and t ~= 'list' then
  if ARGV[2] == 'fail' then
    return redis.error_reply('WRONGSHAPE session record holds a ' .. t)
  end
  redis.call('DEL', KEYS[1])
  reset = 1
end
for i = 3, #ARGV do
  redis.call('RPUSH', KEYS[1], ARGV[i])
end
redis.call('EXPIRE', KEYS[1], ARGV[1])
return {reset, redis.call('LRANGE', KEYS[1], 0, -1)}
`)

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	policy domain.ShapePolicy
	logger *slog.Logger
}

// storedTurn is the JSON shape of one list element. Role is kept as a plain
// string so legacy values decode through domain.ParseRole.
type storedTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewRedisSessionRepository stores each session as a Redis list under "session:<id>".
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, policy domain.ShapePolicy, logger *slog.Logger) domain.SessionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = domain.ShapePolicyReset
	}
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
		policy: policy,
		logger: logger,
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *redisSessionRepository) Create(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		metrics.RecordStoreOperation("create", err)
		return "", fmt.Errorf("generate session id: %w: %w", domain.ErrStoreFailure, err)
	}
	metrics.RecordStoreOperation("create", nil)
	return id.String(), nil
}

func (r *redisSessionRepository) Append(ctx context.Context, sessionID string, turn domain.Turn) error {
	_, err := r.appendTurns(ctx, sessionID, turn)
	metrics.RecordStoreOperation("append", err)
	return err
}

func (r *redisSessionRepository) AppendPair(ctx context.Context, sessionID string, user, assistant domain.Turn) ([]domain.Turn, error) {
	raw, err := r.appendTurns(ctx, sessionID, user, assistant)
	metrics.RecordStoreOperation("append_pair", err)
	if err != nil {
		return nil, err
	}

	// The pair is already stored, so an old entry that no longer decodes must
	// not turn this call into a failure.
	turns := make([]domain.Turn, 0, len(raw))
	for i, entry := range raw {
		turn, err := decodeTurn(entry)
		if err != nil {
			r.logger.WarnContext(ctx, "session_entry_skipped",
				slog.String("session_id", sessionID),
				slog.Int("index", i),
				slog.String("error", err.Error()))
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// appendTurns runs the append script and returns the raw list it left behind.
func (r *redisSessionRepository) appendTurns(ctx context.Context, sessionID string, turns ...domain.Turn) ([]string, error) {
	args := make([]any, 0, len(turns)+2)
	args = append(args, strconv.Itoa(ttlSeconds(r.ttl)), string(r.policy))
	for _, turn := range turns {
		payload, err := json.Marshal(storedTurn{Role: string(turn.Role), Content: turn.Content})
		if err != nil {
			return nil, fmt.Errorf("encode turn: %w: %w", domain.ErrStoreFailure, err)
		}
		args = append(args, string(payload))
	}

	result, err := appendTurnsScript.Run(ctx, r.client, []string{sessionKey(sessionID)}, args...).Slice()
	if err != nil {
		if isShapeError(err) {
			r.logger.ErrorContext(ctx, "session_shape_mismatch",
				slog.String("session_id", sessionID),
				slog.String("policy", string(r.policy)),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("append turns: %w: %w", domain.ErrStoreFailure, err)
	}

	reset, entries, err := parseAppendResult(result)
	if err != nil {
		return nil, fmt.Errorf("append turns: %w: %w", domain.ErrStoreFailure, err)
	}
	if reset {
		metrics.SessionResetsTotal.Inc()
		r.logger.WarnContext(ctx, "session_record_reset",
			slog.String("session_id", sessionID),
			slog.Int("length", len(entries)))
	}
	return entries, nil
}

func parseAppendResult(result []any) (bool, []string, error) {
	if len(result) != 2 {
		return false, nil, fmt.Errorf("unexpected script result of %d elements", len(result))
	}
	reset, ok := result[0].(int64)
	if !ok {
		return false, nil, fmt.Errorf("unexpected reset flag %T", result[0])
	}
	items, ok := result[1].([]any)
	if !ok {
		return false, nil, fmt.Errorf("unexpected list payload %T", result[1])
	}
	entries := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(string)
		if !ok {
			return false, nil, fmt.Errorf("unexpected list entry %T", item)
		}
		entries = append(entries, entry)
	}
	return reset == 1, entries, nil
}

func (r *redisSessionRepository) GetHistory(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := r.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		if isShapeError(err) && r.policy == domain.ShapePolicyReset {
			r.logger.WarnContext(ctx, "session_record_unreadable",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()))
			metrics.RecordStoreOperation("get_history", nil)
			return []domain.Turn{}, nil
		}
		metrics.RecordStoreOperation("get_history", err)
		return nil, fmt.Errorf("read history: %w: %w", domain.ErrStoreFailure, err)
	}

	turns := make([]domain.Turn, 0, len(raw))
	for i, entry := range raw {
		turn, err := decodeTurn(entry)
		if err != nil {
			metrics.RecordStoreOperation("get_history", err)
			return nil, fmt.Errorf("decode turn %d: %w: %w", i, domain.ErrStoreFailure, err)
		}
		turns = append(turns, turn)
	}

	metrics.RecordStoreOperation("get_history", nil)
	return turns, nil
}

func decodeTurn(entry string) (domain.Turn, error) {
	var st storedTurn
	if err := json.Unmarshal([]byte(entry), &st); err != nil {
		return domain.Turn{}, err
	}
	role, err := domain.ParseRole(st.Role)
	if err != nil {
		return domain.Turn{}, err
	}
	return domain.Turn{Role: role, Content: st.Content}, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Del(ctx, sessionKey(sessionID)).Result()
	metrics.RecordStoreOperation("delete", err)
	if err != nil {
		return false, fmt.Errorf("delete session: %w: %w", domain.ErrStoreFailure, err)
	}
	return n > 0, nil
}

func (r *redisSessionRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w: %w", domain.ErrStoreFailure, err)
	}
	return nil
}

func ttlSeconds(ttl time.Duration) int {
	seconds := int(ttl / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func isShapeError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "WRONGTYPE") || strings.Contains(msg, "WRONGSHAPE")
}
