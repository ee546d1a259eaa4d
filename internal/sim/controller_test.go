// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sim

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeo/drivers/ads/ads"
)

type collector struct {
	mu      sync.Mutex
	samples [][]byte
	ch      chan struct{}
}

func newCollector() *collector {
	return &collector{ch: make(chan struct{}, 64)}
}

func (c *collector) handle(_ uint32, data []byte) {
	c.mu.Lock()
	c.samples = append(c.samples, data)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) [][]byte {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.ch:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for sample %d", i+1)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.samples...)
}

func newOpenController(t *testing.T) *Controller {
	t.Helper()
	c := New()
	t.Cleanup(c.Stop)
	require.NoError(t, c.Open(context.Background()))
	return c
}

func TestReadWrite(t *testing.T) {
	c := newOpenController(t)
	ctx := context.Background()
	require.NoError(t, c.Set("MAIN.n", ads.TypeDInt, 42))

	data, err := c.ReadByName(ctx, "MAIN.n", 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{42, 0, 0, 0}, data)

	require.NoError(t, c.WriteByName(ctx, "MAIN.n", []byte{7, 0, 0, 0}))
	raw, ok := c.Get("MAIN.n")
	require.True(t, ok)
	assert.Equal(t, []byte{7, 0, 0, 0}, raw)
}

func TestReadErrors(t *testing.T) {
	c := newOpenController(t)
	ctx := context.Background()
	require.NoError(t, c.Define("MAIN.b", ads.TypeBool, 0))

	_, err := c.ReadByName(ctx, "MAIN.missing", 1)
	assert.True(t, ads.IsSymbolNotFound(err))

	_, err = c.ReadByName(ctx, "MAIN.b", 4)
	assert.ErrorIs(t, err, ads.NewDeviceError(ads.ErrorCodeInvalidSize))

	require.NoError(t, c.Close())
	_, err = c.ReadByName(ctx, "MAIN.b", 1)
	assert.ErrorIs(t, err, ErrNotOpen)

	_, err = c.ReadState(ctx)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestOffline(t *testing.T) {
	c := newOpenController(t)
	ctx := context.Background()
	require.NoError(t, c.Define("MAIN.b", ads.TypeBool, 0))
	_, err := c.AddDeviceNotification(ctx, "MAIN.b", 1, func(uint32, []byte) {})
	require.NoError(t, err)

	c.SetOffline(true)
	assert.Equal(t, 0, c.Subscriptions())
	assert.ErrorIs(t, c.Open(ctx), ErrOffline)
	_, err = c.ReadState(ctx)
	assert.ErrorIs(t, err, ErrOffline)

	c.SetOffline(false)
	_, err = c.ReadState(ctx)
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, c.Open(ctx))
	st, err := c.ReadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, ads.StateRun, st)
}

func TestNotifications(t *testing.T) {
	c := newOpenController(t)
	ctx := context.Background()
	require.NoError(t, c.Set("MAIN.n", ads.TypeInt, 1))

	col := newCollector()
	h, err := c.AddDeviceNotification(ctx, "MAIN.n", 2, col.handle)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.Notification)

	require.NoError(t, c.Set("MAIN.n", ads.TypeInt, 2))
	require.NoError(t, c.Set("MAIN.n", ads.TypeInt, 2))
	require.NoError(t, c.WriteByName(ctx, "MAIN.n", []byte{3, 0}))

	samples := col.wait(t, 3)
	assert.Equal(t, [][]byte{{1, 0}, {2, 0}, {3, 0}}, samples)

	require.NoError(t, c.DelDeviceNotification(ctx, h))
	assert.ErrorIs(t, c.DelDeviceNotification(ctx, h), ads.NewDeviceError(ads.ErrorCodeNotifyHandleInvalid))

	require.NoError(t, c.Set("MAIN.n", ads.TypeInt, 4))
	select {
	case <-col.ch:
		t.Fatal("sample delivered after delete")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStringVariable(t *testing.T) {
	c := newOpenController(t)
	require.NoError(t, c.Define("MAIN.s", ads.TypeString, 10))
	require.NoError(t, c.Set("MAIN.s", ads.TypeString, "hello world"))

	raw, ok := c.Get("MAIN.s")
	require.True(t, ok)
	assert.Len(t, raw, 10)
	assert.Equal(t, "hello wor", ads.DecodeString(raw))
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.yaml")
	seed := `
- name: MAIN.flag
  type: bool
  value: true
- name: MAIN.temp
  type: REAL
  value: 20
- name: MAIN.msg
  type: string
  size: 16
  value: hi
- name: MAIN.empty
  type: udint
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	vars, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, vars, 4)

	c := newOpenController(t)
	require.NoError(t, c.Seed(vars))
	assert.Equal(t, []string{"MAIN.empty", "MAIN.flag", "MAIN.msg", "MAIN.temp"}, c.Symbols())

	raw, _ := c.Get("MAIN.temp")
	v, err := ads.Decode(ads.TypeReal, raw)
	require.NoError(t, err)
	assert.Equal(t, float32(20), v)

	raw, _ = c.Get("MAIN.msg")
	assert.Len(t, raw, 16)

	raw, _ = c.Get("MAIN.empty")
	assert.Equal(t, []byte{0, 0, 0, 0}, raw)
}

func TestSeedErrors(t *testing.T) {
	c := New()
	defer c.Stop()

	assert.ErrorIs(t, c.Seed([]Variable{{Name: "x", Type: "float"}}), ads.ErrUnsupportedType)
	assert.ErrorIs(t, c.Seed([]Variable{{Name: "x", Type: "sint", Value: 500}}), ads.ErrInvalidValue)
	assert.Error(t, c.Seed([]Variable{{Type: "bool"}}))

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultVariables(t *testing.T) {
	c := New()
	defer c.Stop()
	require.NoError(t, c.Seed(DefaultVariables()))
	assert.Len(t, c.Symbols(), len(DefaultVariables()))
}
