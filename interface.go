package warden

import (
	"context"
	"fmt"
	"io"
)

// Apply runs content through the pipeline without prompting and without
// terminal output. Config is read from opts.Root as the CLI does.
func Apply(ctx context.Context, content string, opts Options) (Outcome, error) {
	cfg, err := LoadConfig(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize warden: %w", err)
	}

	opts = opts.withPreferences(cfg.Preferences)
	opts.Force = true
	app := NewApp(opts, cfg)
	app.SetOutput(io.Discard)
	app.SetClipboard(nil)
	app.SetConfirmer(nil)
	return app.ProcessInput(ctx, content)
}

// Check validates content without writing anything and returns the message
// that would be sent back to the model, or "" when the payload is accepted.
func Check(content string) (Outcome, string) {
	manifest, _ := ParseManifest(content)
	o := Validate(manifest, ExtractFiles(content))
	if vf, ok := o.(ValidationFailure); ok {
		return o, vf.AIMessage
	}
	return o, ""
}
