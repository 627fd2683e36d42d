// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/ebsp/emu"
	"code.hybscloud.com/ebsp/wire"
)

func TestDefaultPlatform(t *testing.T) {
	p := emu.DefaultPlatform()
	require.NoError(t, p.Validate())
	assert.Equal(t, 16, p.Cores())
	assert.Equal(t, 32<<10, p.LocalSize)
	assert.Equal(t, 1<<20, p.ExternalSize)
}

func TestParsePlatformOverridesDefaults(t *testing.T) {
	p, err := emu.ParsePlatform([]byte("name: mesh-64\nrows: 8\ncols: 8\n"))
	require.NoError(t, err)
	assert.Equal(t, "mesh-64", p.Name)
	assert.Equal(t, 64, p.Cores())
	assert.Equal(t, emu.DefaultPlatform().LocalSize, p.LocalSize)
	assert.Equal(t, emu.DefaultPlatform().ExternalSize, p.ExternalSize)
}

func TestParsePlatformRejects(t *testing.T) {
	cases := map[string]string{
		"syntax":      "rows: [",
		"empty mesh":  "rows: 0",
		"small local": "local_size: 16",
		"small ext":   "external_size: 64",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := emu.ParsePlatform([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadPlatform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platform.yaml")
	doc := "name: tiny\nrows: 1\ncols: 2\nlocal_size: 16384\nexternal_size: 65536\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	p, err := emu.LoadPlatform(path)
	require.NoError(t, err)
	assert.Equal(t, emu.Platform{Name: "tiny", Rows: 1, Cols: 2, LocalSize: 16384, ExternalSize: 65536}, p)

	_, err = emu.LoadPlatform(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestPlatformHoldsLayout(t *testing.T) {
	p := emu.Platform{Rows: 1, Cols: 1, LocalSize: wire.MinLocalSize, ExternalSize: wire.MinExternalSize}
	require.NoError(t, p.Validate())
}
