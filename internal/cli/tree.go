package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/outline"
	"github.com/aretw0/outline/internal/presentation/graph"
	"github.com/aretw0/outline/internal/presentation/tui"
	httpAdapter "github.com/aretw0/outline/pkg/adapters/http"
	"github.com/aretw0/outline/pkg/domain"
)

// Output formats of the tree and graph commands.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

// RemoteOptions locates a course on a running authority.
type RemoteOptions struct {
	URL            string
	CourseID       string
	MethodOverride bool
	Settings       domain.CourseSettings
	Logger         *slog.Logger
}

// OpenRemote loads the outline of a course through the HTTP client.
func OpenRemote(ctx context.Context, opts RemoteOptions) (*outline.Editor, error) {
	if opts.CourseID == "" {
		return nil, fmt.Errorf("course id is required")
	}
	client := httpAdapter.NewClient(opts.URL, httpAdapter.WithMethodOverride(opts.MethodOverride))
	editorOpts := []outline.Option{
		outline.WithTransport(client),
		outline.WithCourseSettings(opts.Settings),
	}
	if opts.Logger != nil {
		editorOpts = append(editorOpts, outline.WithLogger(opts.Logger))
	}
	ed, err := outline.Open(ctx, opts.CourseID, editorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.CourseID, err)
	}
	return ed, nil
}

// WriteOutline renders the editor's outline in the given format.
// Rich text output is only used when rich is set (typically when Stdout is a terminal).
func WriteOutline(w io.Writer, ed *outline.Editor, format string, rich bool) error {
	var (
		out string
		err error
	)
	switch format {
	case FormatText, "":
		out, err = tui.RenderOutline(ed.Tree(), ed.NodeState, rich)
	case FormatMarkdown:
		out = tui.OutlineMarkdown(ed.Tree(), ed.NodeState)
	case FormatMermaid:
		out = graph.GenerateMermaid(ed.Tree(), ed.NodeState, nil)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
