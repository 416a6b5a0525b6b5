package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/foundry-rs/foundryup/internal/platform"
	lua "github.com/yuin/gopher-lua"
)

// SettingsFileName is the settings file looked up under the root directory.
const SettingsFileName = "settings.lua"

// Settings are user defaults read from the settings file.
type Settings struct {
	Network  string    // default network name, empty for the primary network
	Jobs     uint      // default build parallelism, 0 for the build tool default
	Networks []Network // additional networks
}

// Parser evaluates settings files with the platform table for target.
type Parser struct {
	target platform.Target
}

// NewParser creates a settings parser for target.
func NewParser(target platform.Target) *Parser {
	return &Parser{target: target}
}

// ParseFile parses the settings file at path. A missing file yields empty
// settings.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	return p.ParseString(ctx, string(data))
}

// ParseString parses settings from Lua source.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	L := newSandboxedVM(ctx)
	defer L.Close()

	if err := platform.InjectPlatformTable(L, p.target); err != nil {
		return nil, fmt.Errorf("inject platform table: %w", err)
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractSettings(L)
}

// ParseError represents a settings parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractSettings reads the global "foundryup" table.
func extractSettings(L *lua.LState) (*Settings, error) {
	root := L.GetGlobal("foundryup")
	if root.Type() == lua.LTNil {
		return &Settings{}, nil
	}
	table, ok := root.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "invalid 'foundryup' table",
			Detail:  fmt.Sprintf("expected table, got %s", root.Type()),
		}
	}

	settings := &Settings{}

	switch v := table.RawGetString("network").(type) {
	case lua.LString:
		settings.Network = string(v)
	case *lua.LNilType:
	default:
		return nil, fieldError("network", "string", v)
	}

	switch v := table.RawGetString("jobs").(type) {
	case lua.LNumber:
		jobs := float64(v)
		if jobs < 0 || jobs != math.Trunc(jobs) {
			return nil, &ParseError{Message: "invalid 'jobs'", Detail: fmt.Sprintf("expected non-negative integer, got %v", jobs)}
		}
		settings.Jobs = uint(jobs)
	case *lua.LNilType:
	default:
		return nil, fieldError("jobs", "number", v)
	}

	switch v := table.RawGetString("networks").(type) {
	case *lua.LTable:
		networks, err := extractNetworks(v)
		if err != nil {
			return nil, err
		}
		settings.Networks = networks
	case *lua.LNilType:
	default:
		return nil, fieldError("networks", "table", v)
	}

	return settings, nil
}

// extractNetworks reads an array of network definitions. Entries that are
// nil (from platform conditionals) are skipped.
func extractNetworks(table *lua.LTable) ([]Network, error) {
	var networks []Network
	var firstErr error

	table.ForEach(func(key, value lua.LValue) {
		if firstErr != nil || value.Type() == lua.LTNil {
			return
		}
		entry, ok := value.(*lua.LTable)
		if !ok {
			firstErr = fieldError("networks[]", "table", value)
			return
		}

		n := Network{
			Name:           stringField(entry, "name"),
			Repo:           stringField(entry, "repo"),
			ArchivePrefix:  stringField(entry, "archive_prefix"),
			DefaultVersion: stringField(entry, "default_version"),
			DisplayName:    stringField(entry, "display_name"),
		}
		if n.ArchivePrefix == "" {
			n.ArchivePrefix = "foundry"
		}
		if n.DefaultVersion == "" {
			n.DefaultVersion = "nightly"
		}
		if n.DisplayName == "" {
			n.DisplayName = n.Name
		}
		if b, ok := entry.RawGetString("attestation").(lua.LBool); ok {
			n.HasAttestation = bool(b)
		}
		if bins, ok := entry.RawGetString("bins").(*lua.LTable); ok {
			bins.ForEach(func(_, bin lua.LValue) {
				if s, ok := bin.(lua.LString); ok {
					n.Bins = append(n.Bins, string(s))
				}
			})
		}

		if err := n.Validate(); err != nil {
			firstErr = &ParseError{Message: "invalid network definition", Detail: err.Error()}
			return
		}
		networks = append(networks, n)
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return networks, nil
}

func stringField(table *lua.LTable, name string) string {
	if s, ok := table.RawGetString(name).(lua.LString); ok {
		return string(s)
	}
	return ""
}

func fieldError(name, want string, got lua.LValue) error {
	return &ParseError{
		Message: fmt.Sprintf("invalid '%s'", name),
		Detail:  fmt.Sprintf("expected %s, got %s", want, got.Type()),
	}
}
