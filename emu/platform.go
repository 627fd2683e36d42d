// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package emu

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"code.hybscloud.com/ebsp/wire"
)

// Platform describes the emulated chip: a Rows×Cols mesh of cores, each
// with LocalSize bytes of local memory, sharing ExternalSize bytes.
type Platform struct {
	// Name is informational.
	Name string `yaml:"name"`

	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`

	// LocalSize is the per-core local memory in bytes.
	LocalSize int `yaml:"local_size"`

	// ExternalSize is the shared external segment in bytes.
	ExternalSize int `yaml:"external_size"`
}

// DefaultPlatform is a 16-core 4×4 mesh with 32 KiB per core and a
// 1 MiB external segment.
func DefaultPlatform() Platform {
	return Platform{
		Name:         "emu-16",
		Rows:         4,
		Cols:         4,
		LocalSize:    32 << 10,
		ExternalSize: 1 << 20,
	}
}

// Cores returns Rows×Cols.
func (p Platform) Cores() int {
	return p.Rows * p.Cols
}

// Validate checks that the platform can hold the runtime layout.
func (p Platform) Validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("emu: platform %q: mesh %dx%d", p.Name, p.Rows, p.Cols)
	}
	if p.LocalSize < wire.MinLocalSize {
		return fmt.Errorf("emu: platform %q: local_size %d below %d", p.Name, p.LocalSize, wire.MinLocalSize)
	}
	if p.ExternalSize < wire.MinExternalSize {
		return fmt.Errorf("emu: platform %q: external_size %d below %d", p.Name, p.ExternalSize, wire.MinExternalSize)
	}
	return nil
}

// ParsePlatform reads a YAML platform description. Missing fields keep
// their DefaultPlatform values.
func ParsePlatform(data []byte) (Platform, error) {
	p := DefaultPlatform()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Platform{}, fmt.Errorf("emu: parse platform: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Platform{}, err
	}
	return p, nil
}

// LoadPlatform reads a YAML platform description from path.
func LoadPlatform(path string) (Platform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Platform{}, fmt.Errorf("emu: read platform: %w", err)
	}
	return ParsePlatform(data)
}
