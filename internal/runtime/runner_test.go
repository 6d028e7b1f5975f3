// ABOUTME: Tests for the turn orchestrator
// ABOUTME: Covers state persistence between turns, conflict surfacing, replay drops, and locking

package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/internal/activity"
	"github.com/parleybot/parley/internal/dialog"
	"github.com/parleybot/parley/internal/state"
)

// echoDialog waits on begin and echoes one input before completing.
type echoDialog struct {
	dialog.BaseHandler
}

func (echoDialog) BeginDialog(ctx context.Context, dc *dialog.Context, options any) (dialog.TurnResult, error) {
	dc.SendText("say something")
	return dialog.TurnResult{Status: dialog.StatusWaiting}, nil
}

func (echoDialog) ContinueDialog(ctx context.Context, dc *dialog.Context) (dialog.TurnResult, error) {
	dc.SendText("you said: " + dc.Activity().Text)
	return dc.EndDialog(ctx, dc.Activity().Text)
}

func testRunner(t *testing.T, st state.Store, opts Options) *Runner {
	t.Helper()
	set := dialog.NewSet(nil)
	require.NoError(t, set.Add("root", echoDialog{}))
	r, err := NewRunner(set, "root", st, nil, opts)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestProcessTurn_BeginsRootWhenNoActiveDialog(t *testing.T) {
	r := testRunner(t, state.NewMemoryStore(), Options{})

	out, res, err := r.ProcessTurn(context.Background(), activity.NewMessage("conv-1", "user", "hi"))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, dialog.StatusWaiting, res.Status)
	require.Len(t, out, 1)
	assert.Equal(t, "say something", out[0].Text)
}

func TestProcessTurn_StatePersistsAcrossTurns(t *testing.T) {
	store := state.NewMemoryStore()
	r := testRunner(t, store, Options{})
	ctx := context.Background()

	_, res, err := r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", "hi"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusWaiting, res.Status)

	out, res, err := r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", "hello"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusComplete, res.Status)
	assert.Equal(t, "hello", res.Result)
	require.Len(t, out, 1)
	assert.Equal(t, "you said: hello", out[0].Text)

	// The stack emptied, so the next turn begins the root dialog again.
	out, res, err = r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", "again"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusWaiting, res.Status)
	require.Len(t, out, 1)
	assert.Equal(t, "say something", out[0].Text)
}

func TestProcessTurn_ConversationsAreIndependent(t *testing.T) {
	r := testRunner(t, state.NewMemoryStore(), Options{})
	ctx := context.Background()

	_, res1, err := r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", "hi"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusWaiting, res1.Status)

	// conv-2 starts fresh even though conv-1 is mid-dialog.
	out, res2, err := r.ProcessTurn(ctx, activity.NewMessage("conv-2", "user", "hi"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusWaiting, res2.Status)
	require.Len(t, out, 1)
	assert.Equal(t, "say something", out[0].Text)
}

func TestProcessTurn_RequiresConversationID(t *testing.T) {
	r := testRunner(t, state.NewMemoryStore(), Options{})

	_, _, err := r.ProcessTurn(context.Background(), &activity.Activity{})
	assert.ErrorIs(t, err, ErrMissingConversation)

	_, _, err = r.ProcessTurn(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingConversation)
}

func TestProcessTurn_DropsDuplicateDeliveries(t *testing.T) {
	r := testRunner(t, state.NewMemoryStore(), Options{ReplayTTL: time.Minute})
	ctx := context.Background()

	act := activity.NewMessage("conv-1", "user", "hi")
	out, res, err := r.ProcessTurn(ctx, act)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, out, 1)

	// Same activity delivered again: no replies and no result, since the
	// stack was never touched.
	out, res, err = r.ProcessTurn(ctx, act)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Nil(t, res)
}

// conflictStore wraps a Store and forces ErrConflict on Put.
type conflictStore struct {
	state.Store
	conflicts bool
}

func (c *conflictStore) Put(ctx context.Context, key string, value []byte, expectedVersion string) (string, error) {
	if c.conflicts {
		return "", state.ErrConflict
	}
	return c.Store.Put(ctx, key, value, expectedVersion)
}

func TestProcessTurn_SurfacesWriteConflict(t *testing.T) {
	cs := &conflictStore{Store: state.NewMemoryStore(), conflicts: true}
	r := testRunner(t, cs, Options{})

	_, _, err := r.ProcessTurn(context.Background(), activity.NewMessage("conv-1", "user", "hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, state.ErrConflict)
}

func TestProcessTurn_SerializesTurnsPerConversation(t *testing.T) {
	store := state.NewMemoryStore()

	// A dialog whose continue records overlapping execution.
	var mu sync.Mutex
	var active, maxActive int
	set := dialog.NewSet(nil)
	require.NoError(t, set.Add("root", &slowDialog{
		enter: func() {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()
		},
		exit: func() {
			mu.Lock()
			active--
			mu.Unlock()
		},
	}))
	r, err := NewRunner(set, "root", store, nil, Options{})
	require.NoError(t, err)
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := r.ProcessTurn(context.Background(), activity.NewMessage("conv-1", "user", "hi"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxActive, "turns for one conversation must not overlap")
}

// slowDialog spends a little time inside begin/continue so overlap would be
// observable.
type slowDialog struct {
	dialog.BaseHandler
	enter func()
	exit  func()
}

func (d *slowDialog) BeginDialog(ctx context.Context, dc *dialog.Context, options any) (dialog.TurnResult, error) {
	d.enter()
	time.Sleep(5 * time.Millisecond)
	d.exit()
	return dialog.TurnResult{Status: dialog.StatusWaiting}, nil
}

func (d *slowDialog) ContinueDialog(ctx context.Context, dc *dialog.Context) (dialog.TurnResult, error) {
	d.enter()
	time.Sleep(5 * time.Millisecond)
	d.exit()
	return dialog.TurnResult{Status: dialog.StatusWaiting}, nil
}

func TestProcessTurn_WaterfallWithPromptAcrossTurns(t *testing.T) {
	set := dialog.NewSet(nil)
	require.NoError(t, set.Add("name", dialog.NewTextPrompt(nil)))
	require.NoError(t, set.Add("root", dialog.NewWaterfall(
		func(ctx context.Context, step *dialog.WaterfallStepContext) (dialog.TurnResult, error) {
			return step.Begin(ctx, "name", dialog.PromptOptions{Prompt: "who are you?"})
		},
		func(ctx context.Context, step *dialog.WaterfallStepContext) (dialog.TurnResult, error) {
			step.Context().SendText(fmt.Sprintf("hello, %v", step.Result))
			return step.End(ctx, step.Result)
		},
	)))
	r, err := NewRunner(set, "root", state.NewMemoryStore(), nil, Options{})
	require.NoError(t, err)
	defer r.Close()
	ctx := context.Background()

	out, res, err := r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", ""))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusWaiting, res.Status)
	require.Len(t, out, 1)
	assert.Equal(t, "who are you?", out[0].Text)

	out, res, err = r.ProcessTurn(ctx, activity.NewMessage("conv-1", "user", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, dialog.StatusComplete, res.Status)
	assert.Equal(t, "Ada", res.Result)
	require.Len(t, out, 1)
	assert.Equal(t, "hello, Ada", out[0].Text)
}

func TestNewRunner_RequiresRegisteredRoot(t *testing.T) {
	set := dialog.NewSet(nil)

	_, err := NewRunner(set, "missing", state.NewMemoryStore(), nil, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, dialog.ErrDialogNotFound)

	_, err = NewRunner(set, "", state.NewMemoryStore(), nil, Options{})
	require.Error(t, err)
}
