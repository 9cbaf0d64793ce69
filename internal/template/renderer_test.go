package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSources struct {
	sources []Source
	err     error
}

func (f *fakeSources) TemplateSources(ctx context.Context) ([]Source, error) {
	return f.sources, f.err
}

func TestRender(t *testing.T) {
	repo := &fakeSources{sources: []Source{
		{CommandID: 1, Text: "hello {{.sender_name}}!", Contexts: []string{"sender"}},
		{CommandID: 2, Text: "   "},
	}}
	r, err := Load(context.Background(), repo)
	require.NoError(t, err)

	out, ok, err := r.Render(1, map[string]any{"sender_name": "forsen"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello forsen!", out)

	contexts, ok := r.Contexts(1)
	require.True(t, ok)
	require.Equal(t, []string{"sender"}, contexts)

	// Blank templates are skipped on load.
	_, ok, err = r.Render(2, nil)
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.Render(99, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadRejectsBrokenTemplate(t *testing.T) {
	repo := &fakeSources{sources: []Source{{CommandID: 1, Text: "{{.unclosed"}}}
	_, err := Load(context.Background(), repo)
	require.Error(t, err)
}
