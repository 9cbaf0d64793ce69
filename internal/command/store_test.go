package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	aliases []Alias
	attrs   []Attributes
}

func (f *fakeIndex) Aliases(ctx context.Context) ([]Alias, error)        { return f.aliases, nil }
func (f *fakeIndex) AllAttributes(ctx context.Context) ([]Attributes, error) { return f.attrs, nil }

func TestStoreGetByAlias(t *testing.T) {
	repo := &fakeIndex{
		aliases: []Alias{
			{Name: "say", CommandID: 1},
			{Name: "echo", CommandID: 1},
			{Name: "ch", CommandID: 2},
		},
		attrs: []Attributes{
			{ID: 1, HandlerName: "say", Enabled: true, DefaultActive: true},
			{ID: 2, HandlerName: "channel", Enabled: true, DefaultActive: true, Cooldown: 2 * time.Second},
		},
	}
	store, err := Load(context.Background(), repo)
	require.NoError(t, err)

	attrs, ok := store.GetByAlias("say")
	require.True(t, ok)
	require.Equal(t, int32(1), attrs.ID)

	// Two aliases, one command.
	viaEcho, ok := store.GetByAlias("echo")
	require.True(t, ok)
	require.Equal(t, attrs, viaEcho)

	attrs, ok = store.GetByAlias("ch")
	require.True(t, ok)
	require.Equal(t, 2*time.Second, attrs.Cooldown)

	_, ok = store.GetByAlias("missing")
	require.False(t, ok)
}

func TestStoreAliasWithoutCommand(t *testing.T) {
	repo := &fakeIndex{aliases: []Alias{{Name: "orphan", CommandID: 9}}}
	store, err := Load(context.Background(), repo)
	require.NoError(t, err)

	_, ok := store.GetByAlias("orphan")
	require.False(t, ok)
}

func TestEffectiveOverrides(t *testing.T) {
	attrs := Attributes{ID: 1, DefaultActive: true, Cooldown: 10 * time.Second}

	require.True(t, attrs.ActiveIn(nil))
	require.Equal(t, 10*time.Second, attrs.EffectiveCooldown(nil))

	off := false
	short := time.Second
	cfg := &ChannelConfig{Active: &off, Cooldown: &short}
	require.False(t, attrs.ActiveIn(cfg))
	require.Equal(t, time.Second, attrs.EffectiveCooldown(cfg))

	// Partial override: only cooldown set.
	cfg = &ChannelConfig{Cooldown: &short}
	require.True(t, attrs.ActiveIn(cfg))
}
