package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-rag-chat/internal/domain"
)

func setupRepo(t *testing.T, policy domain.ShapePolicy) (*miniredis.Miniredis, domain.SessionRepository) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisSessionRepository(client, time.Hour, policy, nil)
}

func TestRedisSessionRepository_CreateIsUnique(t *testing.T) {
	_, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for range 500 {
		id, err := repo.Create(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate session id %s", id)
		seen[id] = struct{}{}
	}
}

func TestRedisSessionRepository_CreateWritesNothing(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)

	_, err := repo.Create(context.Background())
	require.NoError(t, err)

	assert.Empty(t, mr.Keys())
}

func TestRedisSessionRepository_AppendPairAlternates(t *testing.T) {
	_, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()
	id, err := repo.Create(ctx)
	require.NoError(t, err)

	const n = 4
	for i := range n {
		returned, err := repo.AppendPair(ctx, id,
			domain.NewUserTurn(fmt.Sprintf("q%d", i)),
			domain.NewAssistantTurn(fmt.Sprintf("a%d", i)))
		require.NoError(t, err)
		require.Len(t, returned, 2*(i+1))
	}

	history, err := repo.GetHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2*n)
	for i, turn := range history {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, turn.Role)
			assert.Equal(t, fmt.Sprintf("q%d", i/2), turn.Content)
		} else {
			assert.Equal(t, domain.RoleAssistant, turn.Role)
			assert.Equal(t, fmt.Sprintf("a%d", i/2), turn.Content)
		}
	}
}

func TestRedisSessionRepository_GetHistoryAbsent(t *testing.T) {
	_, repo := setupRepo(t, domain.ShapePolicyReset)

	history, err := repo.GetHistory(context.Background(), "missing")

	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestRedisSessionRepository_Delete(t *testing.T) {
	_, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()

	first, _ := repo.Create(ctx)
	second, _ := repo.Create(ctx)
	require.NoError(t, repo.Append(ctx, first, domain.NewUserTurn("hello")))
	require.NoError(t, repo.Append(ctx, second, domain.NewUserTurn("other")))

	existed, err := repo.Delete(ctx, first)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, first)
	require.NoError(t, err)
	assert.False(t, existed)

	history, err := repo.GetHistory(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = repo.GetHistory(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{domain.NewUserTurn("other")}, history)
}

func TestRedisSessionRepository_TTL(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "s1", domain.NewUserTurn("hello")))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, repo.Append(ctx, "s1", domain.NewAssistantTurn("hi")))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"), "append refreshes expiry")

	mr.FastForward(time.Hour + time.Second)
	history, err := repo.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRedisSessionRepository_ShapeMismatchReset(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()
	require.NoError(t, mr.Set("session:legacy", "[]"))

	history, err := repo.GetHistory(ctx, "legacy")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = repo.AppendPair(ctx, "legacy", domain.NewUserTurn("q"), domain.NewAssistantTurn("a"))
	require.NoError(t, err)

	history, err = repo.GetHistory(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{domain.NewUserTurn("q"), domain.NewAssistantTurn("a")}, history)
	assert.Equal(t, time.Hour, mr.TTL("session:legacy"))
}

func TestRedisSessionRepository_ShapeMismatchFail(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyFail)
	ctx := context.Background()
	require.NoError(t, mr.Set("session:legacy", "[]"))

	_, err := repo.AppendPair(ctx, "legacy", domain.NewUserTurn("q"), domain.NewAssistantTurn("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreFailure)

	value, getErr := mr.Get("session:legacy")
	require.NoError(t, getErr)
	assert.Equal(t, "[]", value, "record left untouched")

	_, err = repo.GetHistory(ctx, "legacy")
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestRedisSessionRepository_LegacyBotRole(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	_, err := mr.RPush("session:old",
		`{"role":"user","content":"What happened?"}`,
		`{"role":"bot","content":"Markets fell."}`)
	require.NoError(t, err)

	history, err := repo.GetHistory(context.Background(), "old")

	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)
	assert.Equal(t, "Markets fell.", history[1].Content)
}

func TestRedisSessionRepository_UndecodableEntry(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	_, err := mr.RPush("session:bad", "not json")
	require.NoError(t, err)

	_, err = repo.GetHistory(context.Background(), "bad")

	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestRedisSessionRepository_AppendPairReturnsHistory(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()
	_, err := mr.RPush("session:s1", `{"role":"user","content":"earlier"}`, `{"role":"bot","content":"reply"}`)
	require.NoError(t, err)

	history, err := repo.AppendPair(ctx, "s1", domain.NewUserTurn("  spaced  "), domain.NewAssistantTurn("answer"))

	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{
		domain.NewUserTurn("earlier"),
		domain.NewAssistantTurn("reply"),
		domain.NewUserTurn("  spaced  "),
		domain.NewAssistantTurn("answer"),
	}, history)
}

func TestRedisSessionRepository_AppendPairSkipsUndecodableEntries(t *testing.T) {
	mr, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()
	_, err := mr.RPush("session:bad", "not json")
	require.NoError(t, err)

	history, err := repo.AppendPair(ctx, "bad", domain.NewUserTurn("q"), domain.NewAssistantTurn("a"))

	require.NoError(t, err, "the pair is stored, so the call succeeds")
	assert.Equal(t, []domain.Turn{domain.NewUserTurn("q"), domain.NewAssistantTurn("a")}, history)
	entries, err := mr.List("session:bad")
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRedisSessionRepository_ConcurrentAppendPairsStayContiguous(t *testing.T) {
	_, repo := setupRepo(t, domain.ShapePolicyReset)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AppendPair(ctx, "shared",
				domain.NewUserTurn(fmt.Sprintf("q%d", i)),
				domain.NewAssistantTurn(fmt.Sprintf("a%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := repo.GetHistory(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, history, 2*workers)
	for i := 0; i < len(history); i += 2 {
		require.Equal(t, domain.RoleUser, history[i].Role)
		require.Equal(t, domain.RoleAssistant, history[i+1].Role)
		assert.Equal(t, "a"+history[i].Content[1:], history[i+1].Content)
	}
}

func TestRedisSessionRepository_StoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	repo := NewRedisSessionRepository(client, time.Hour, domain.ShapePolicyReset, nil)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Ping(ctx), domain.ErrStoreFailure)
	assert.ErrorIs(t, repo.Append(ctx, "s", domain.NewUserTurn("x")), domain.ErrStoreFailure)
	_, err := repo.GetHistory(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrStoreFailure)
}
