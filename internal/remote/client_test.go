package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/castlemilk/budgetsync/internal/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestClientFetchMissingIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := NewMockDocumentStore(ctrl)
	client := NewClient(mockStore)

	ctx := context.Background()
	mockStore.EXPECT().Get(gomock.Any(), "budgets", "uid-1").Return(nil, ErrNotFound)
	mockStore.EXPECT().Get(gomock.Any(), "budget", "uid-1").Return(map[string]any{"budget": 3000.0}, nil)

	doc, ok, err := client.Fetch(ctx, "uid-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, doc)

	doc, ok, err = client.FetchLegacy(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3000.0, doc["budget"])
}

func TestClientFetchPropagatesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := NewMockDocumentStore(ctrl)
	client := NewClient(mockStore)

	boom := &Error{Op: "get", Collection: "budgets", ID: "u", Cause: errors.New("unavailable")}
	mockStore.EXPECT().Get(gomock.Any(), "budgets", "u").Return(nil, boom)

	_, ok, err := client.Fetch(context.Background(), "u")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsUnavailable(err))
}

func TestClientSaveWritesCanonicalOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := NewMockDocumentStore(ctrl)
	client := NewClient(mockStore, WithCollections("budgets_v2", "budgets_v1"))

	state := budget.Defaults()
	state.Income = 10

	mockStore.EXPECT().
		Set(gomock.Any(), "budgets_v2", "u", gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection, id string, data map[string]any) error {
			assert.Equal(t, 10.0, data["income"])
			assert.Contains(t, data, "settings")
			return nil
		})

	require.NoError(t, client.Save(context.Background(), "u", state))
}

func TestClientTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStore := NewMockDocumentStore(ctrl)
	client := NewClient(mockStore, WithTimeout(time.Second))

	mockStore.EXPECT().
		Get(gomock.Any(), "budgets", "u").
		DoAndReturn(func(ctx context.Context, collection, id string) (map[string]any, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil, ErrNotFound
		})

	_, _, err := client.Fetch(context.Background(), "u")
	require.NoError(t, err)
}

func TestIsUnavailable(t *testing.T) {
	assert.False(t, IsUnavailable(nil))
	assert.False(t, IsUnavailable(ErrNotFound))
	assert.False(t, IsUnavailable(errors.New("plain")))
	assert.True(t, IsUnavailable(&Error{Op: "set", Cause: errors.New("x")}))
}
