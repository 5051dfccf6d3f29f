// Package agentconfig reads agent definitions and channel bindings straight
// from the gateway's configuration directory.
//
// Two on-disk formats are understood: the structured JSON document
// (clawdbot.json) and the older indentation-based config.yaml. When the
// structured document exists and has the expected shape it is used
// exclusively; otherwise the legacy file is tried.
package agentconfig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/musher-dev/clawdash/internal/model"
	"github.com/musher-dev/clawdash/internal/observability"
)

// File names inside the gateway configuration directory.
const (
	StructuredFile = "clawdbot.json"
	LegacyFile     = "config.yaml"
)

// Format identifies which document an overview came from.
type Format string

// Known formats.
const (
	FormatNone       Format = ""
	FormatStructured Format = "structured"
	FormatLegacy     Format = "legacy"
)

var (
	// ErrNoConfig means neither configuration file exists.
	ErrNoConfig = errors.New("no gateway configuration found")
	// ErrShape means a document parsed but does not describe agents.
	ErrShape = errors.New("configuration does not describe agents")
)

// Reader loads agent overviews from a gateway configuration directory.
type Reader struct {
	Dir string
	// DefaultModel is applied to agents that name no model when the document
	// carries no default of its own.
	DefaultModel string
}

// NewReader returns a Reader for dir.
func NewReader(dir, defaultModel string) *Reader {
	return &Reader{Dir: dir, DefaultModel: defaultModel}
}

// StructuredPath returns the path of the structured document.
func (r *Reader) StructuredPath() string {
	return filepath.Join(r.Dir, StructuredFile)
}

// LegacyPath returns the path of the legacy document.
func (r *Reader) LegacyPath() string {
	return filepath.Join(r.Dir, LegacyFile)
}

// Detect reports which format Read would use, without projecting it.
func (r *Reader) Detect() (Format, error) {
	if data, err := os.ReadFile(r.StructuredPath()); err == nil {
		if _, projErr := ProjectStructured(data, ""); projErr == nil {
			return FormatStructured, nil
		}
	}

	data, err := os.ReadFile(r.LegacyPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FormatNone, ErrNoConfig
		}

		return FormatNone, fmt.Errorf("read %s: %w", LegacyFile, err)
	}

	if _, err := ParseLegacy(data, ""); err != nil {
		return FormatNone, err
	}

	return FormatLegacy, nil
}

// Read returns the agents overview with derived per-agent bindings.
//
// On failure it returns an empty overview (never nil slices) alongside the
// error, and logs the failure through the logger carried by ctx.
func (r *Reader) Read(ctx context.Context) (model.AgentsOverview, Format, error) {
	logger := observability.FromContext(ctx)

	structuredErr := error(ErrNoConfig)

	data, err := os.ReadFile(r.StructuredPath())
	switch {
	case err == nil:
		overview, projErr := ProjectStructured(data, r.DefaultModel)
		if projErr == nil {
			return overview, FormatStructured, nil
		}

		structuredErr = projErr
		logger.Debug("structured gateway config unusable, trying legacy",
			slog.String("path", r.StructuredPath()),
			slog.String("error", projErr.Error()),
		)
	case !errors.Is(err, os.ErrNotExist):
		structuredErr = fmt.Errorf("read %s: %w", StructuredFile, err)
	}

	data, err = os.ReadFile(r.LegacyPath())
	if err != nil {
		readErr := structuredErr
		if !errors.Is(err, os.ErrNotExist) {
			readErr = fmt.Errorf("read %s: %w", LegacyFile, err)
		}

		observability.LogFailure(ctx, "agents.config", "config-read", readErr, slog.String("dir", r.Dir))

		return model.EmptyOverview(), FormatNone, readErr
	}

	overview, err := ParseLegacy(data, r.DefaultModel)
	if err != nil {
		observability.LogFailure(ctx, "agents.config", "config-read", err, slog.String("path", r.LegacyPath()))

		return model.EmptyOverview(), FormatNone, err
	}

	return overview, FormatLegacy, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// finish sorts agents, drops duplicates, and derives per-agent bindings.
func finish(agents []model.Agent, bindings []model.Binding) model.AgentsOverview {
	seen := make(map[string]bool, len(agents))
	unique := make([]model.Agent, 0, len(agents))

	for _, agent := range agents {
		if agent.ID == "" || seen[agent.ID] {
			continue
		}

		seen[agent.ID] = true
		unique = append(unique, agent)
	}

	slices.SortStableFunc(unique, func(a, b model.Agent) int {
		return strings.Compare(a.ID, b.ID)
	})

	valid := make([]model.Binding, 0, len(bindings))

	for _, b := range bindings {
		if b.Valid() {
			valid = append(valid, b)
		}
	}

	overview := model.AgentsOverview{Agents: unique, Bindings: valid}
	overview.DeriveBindings()

	return overview
}
