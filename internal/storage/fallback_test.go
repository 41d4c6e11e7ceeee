package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/storage"
)

type fakePort struct {
	mu      sync.Mutex
	data    map[string][]byte
	loadErr error
	saveErr error
}

func newFakePort() *fakePort {
	return &fakePort{data: map[string][]byte{}}
}

func (p *fakePort) Load(_ context.Context, key string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	v, ok := p.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (p *fakePort) Save(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.data[key] = append([]byte(nil), value...)
	return nil
}

func (p *fakePort) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, key)
	return nil
}

func (p *fakePort) get(key string) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.data[key]
	return v, ok
}

func TestFallbackLoadPrefersPrimary(t *testing.T) {
	primary := newFakePort()
	secondary := newFakePort()
	require.NoError(t, primary.Save(context.Background(), "cart:1", []byte(`primary`)))
	require.NoError(t, secondary.Save(context.Background(), "cart:1", []byte(`secondary`)))

	f := storage.Fallback{Primary: primary, Secondary: secondary, Logger: zerolog.Nop()}
	data, err := f.Load(context.Background(), "cart:1")
	require.NoError(t, err)
	require.Equal(t, []byte(`primary`), data)
}

func TestFallbackLoadFallsBackOnPrimaryError(t *testing.T) {
	primary := newFakePort()
	primary.loadErr = errors.New("cloud unavailable")
	secondary := newFakePort()
	require.NoError(t, secondary.Save(context.Background(), "cart:1", []byte(`secondary`)))

	f := storage.Fallback{Primary: primary, Secondary: secondary, Logger: zerolog.Nop()}
	data, err := f.Load(context.Background(), "cart:1")
	require.NoError(t, err)
	require.Equal(t, []byte(`secondary`), data)
}

func TestFallbackLoadFallsBackOnPrimaryMiss(t *testing.T) {
	primary := newFakePort()
	secondary := newFakePort()
	require.NoError(t, secondary.Save(context.Background(), "cart:1", []byte(`local`)))

	f := storage.Fallback{Primary: primary, Secondary: secondary, Logger: zerolog.Nop()}
	data, err := f.Load(context.Background(), "cart:1")
	require.NoError(t, err)
	require.Equal(t, []byte(`local`), data)
}

func TestFallbackLoadBothEmpty(t *testing.T) {
	f := storage.Fallback{Primary: newFakePort(), Secondary: newFakePort(), Logger: zerolog.Nop()}
	data, err := f.Load(context.Background(), "cart:1")
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestFallbackSaveMirrorsBothAndSwallowsPrimaryError(t *testing.T) {
	primary := newFakePort()
	primary.saveErr = errors.New("quota exceeded")
	secondary := newFakePort()

	f := storage.Fallback{Primary: primary, Secondary: secondary, Logger: zerolog.Nop()}
	require.NoError(t, f.Save(context.Background(), "cart:1", []byte(`snapshot`)))

	v, ok := secondary.get("cart:1")
	require.True(t, ok)
	require.Equal(t, []byte(`snapshot`), v)
}

func TestFallbackRemoveBothBackends(t *testing.T) {
	primary := newFakePort()
	secondary := newFakePort()
	require.NoError(t, primary.Save(context.Background(), "cart:1", []byte(`a`)))
	require.NoError(t, secondary.Save(context.Background(), "cart:1", []byte(`a`)))

	f := storage.Fallback{Primary: primary, Secondary: secondary, Logger: zerolog.Nop()}
	require.NoError(t, f.Remove(context.Background(), "cart:1"))

	_, ok := primary.get("cart:1")
	require.False(t, ok)
	_, ok = secondary.get("cart:1")
	require.False(t, ok)
}
