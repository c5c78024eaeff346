package warden

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const dryRunPlaceholder = "(Dry Run) Files verified"

type Options struct {
	Force    bool
	DryRun   bool
	Diff     bool
	NoVerify bool
	NoCommit bool
	AutoCopy bool
	Root     string

	RoadmapPath     string
	BackupRetention int
}

// withPreferences folds the warden.toml preferences into o. Flags can only
// narrow what the config allows: auto_commit = false always wins.
func (o Options) withPreferences(p Preferences) Options {
	o.NoCommit = o.NoCommit || !p.AutoCommit
	o.AutoCopy = p.AutoCopy
	if o.BackupRetention == 0 {
		o.BackupRetention = p.BackupRetention
	}
	return o
}

type App struct {
	opts      Options
	source    PayloadSource
	confirmer Confirmer
	verifier  Verifier
	committer Committer
	intents   IntentStore
	roadmap   RoadmapProcessor
	clipboard Clipboard
	reloader  BufferReloader
	logger    *zap.Logger
	out       io.Writer
}

type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }

func (e *DetailedError) Unwrap() error { return e.Err }

// NewApp wires the real collaborators for opts.Root from cfg.
func NewApp(opts Options, cfg *Config) *App {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	verifier := &CommandVerifier{
		Checks: cfg.Checks(),
		Scan:   cfg.Command("scan"),
		Dir:    opts.Root,
	}
	if IsTerminal(os.Stderr) {
		verifier.Progress = NewProgress(os.Stderr)
	}

	a := &App{
		opts:      opts,
		source:    NewSourceProvider(),
		confirmer: NewPromptConfirmer(),
		verifier:  verifier,
		committer: &GitCommitter{Dir: opts.Root, Prefix: cfg.Preferences.CommitPrefix},
		intents:   NewFileIntentStore(opts.Root),
		clipboard: SystemClipboard{},
		reloader:  NewNvimReloader(opts.Root),
		logger:    zap.NewNop(),
		out:       os.Stdout,
	}
	if cmd := cfg.Command("roadmap"); cmd != "" {
		a.roadmap = &CommandRoadmap{Command: cmd, Dir: opts.Root}
	}
	return a
}

func (a *App) SetSource(s PayloadSource) { a.source = s }
func (a *App) SetConfirmer(c Confirmer) { a.confirmer = c }
func (a *App) SetVerifier(v Verifier) { a.verifier = v }
func (a *App) SetCommitter(c Committer) { a.committer = c }
func (a *App) SetIntentStore(s IntentStore) { a.intents = s }
func (a *App) SetRoadmap(r RoadmapProcessor) { a.roadmap = r }
func (a *App) SetClipboard(c Clipboard) { a.clipboard = c }
func (a *App) SetReloader(r BufferReloader) { a.reloader = r }
func (a *App) SetOutput(w io.Writer) { a.out = w }
func (a *App) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	a.logger = l
	if v, ok := a.verifier.(*CommandVerifier); ok {
		v.Logger = l
	}
}

func (a *App) Execute(ctx context.Context) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()
	return a.Run(ctx)
}

func (a *App) Run(ctx context.Context) (Outcome, error) {
	text, err := a.source.ReadPayload()
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return a.ProcessInput(ctx, text)
}

// ProcessInput takes one payload from plan review through commit. Every
// terminal outcome is reported to the output before it is returned.
func (a *App) ProcessInput(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return a.finish(ParseError{Message: "Clipboard/Input is empty"}), nil
	}

	plan, hasPlan := ExtractPlan(text)
	ok, err := a.ensureConsent(plan, hasPlan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return a.finish(ParseError{Message: "Operation cancelled by user."}), nil
	}

	manifest, _ := ParseManifest(text)
	files := ExtractFiles(text)
	a.logger.Debug("payload parsed",
		zap.Int("manifest_entries", len(manifest)),
		zap.Int("files", len(files)),
		zap.Bool("plan", hasPlan),
	)

	if o := Validate(manifest, files); IsFailure(o) {
		return a.finish(o), nil
	}
	manifest = withUndeclared(manifest, files)

	if a.opts.DryRun {
		return a.dryRun(manifest, files)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	success, err := WriteFiles(manifest, files, a.opts.Root)
	if err != nil {
		return a.finish(WriteError{Message: err.Error()}), nil
	}
	a.afterWrite(&success, text)
	a.finish(success)

	if !success.Changed() {
		fmt.Fprint(a.out, dimStyle.Render("No changes detected.")+"\n")
		return success, nil
	}

	a.verifyAndCommit(ctx, plan, hasPlan)
	return success, nil
}

func (a *App) ensureConsent(plan string, hasPlan bool) (bool, error) {
	skip := a.opts.Force || a.opts.DryRun
	if !hasPlan {
		if skip {
			return true, nil
		}
		fmt.Fprint(a.out, FormatWarning("No PLAN block found. Proceed with caution."))
		return a.confirm("Apply these changes without a plan?")
	}

	fmt.Fprint(a.out, FormatPlan(plan))
	if skip {
		return true, nil
	}
	if !ParsePlan(plan).Structured() {
		fmt.Fprint(a.out, FormatWarning("Plan is unstructured (missing GOAL/CHANGES)."))
	}
	return a.confirm("Apply these changes?")
}

func (a *App) confirm(prompt string) (bool, error) {
	if a.confirmer == nil {
		return false, nil
	}
	ok, err := a.confirmer.Confirm(prompt)
	if err != nil {
		return false, fmt.Errorf("failed to confirm: %w", err)
	}
	return ok, nil
}

// withUndeclared appends an Update for every extracted file the manifest
// does not name, so a payload without a manifest still applies its blocks.
func withUndeclared(m Manifest, files ExtractedFiles) Manifest {
	declared := make(map[string]struct{}, len(m))
	for _, e := range m {
		declared[e.Path] = struct{}{}
	}

	var extra []string
	for p := range files {
		if _, ok := declared[p]; !ok {
			extra = append(extra, p)
		}
	}
	sort.Strings(extra)

	out := make(Manifest, 0, len(m)+len(extra))
	out = append(out, m...)
	for _, p := range extra {
		out = append(out, ManifestEntry{Path: p, Op: OpUpdate})
	}
	return out
}

func (a *App) dryRun(m Manifest, files ExtractedFiles) (Outcome, error) {
	if a.opts.Diff {
		diff, err := PreviewChanges(m, files, a.opts.Root)
		if err != nil {
			a.logger.Warn("dry-run preview failed", zap.Error(err))
		} else if diff != "" {
			fmt.Fprint(a.out, diff)
		}
	}
	return a.finish(Success{Written: []string{dryRunPlaceholder}}), nil
}

func (a *App) afterWrite(s *Success, text string) {
	if s.BackedUp {
		removed, err := PruneBackups(a.opts.Root, a.opts.BackupRetention)
		if err != nil {
			a.logger.Warn("failed to prune backups", zap.Error(err))
		} else if len(removed) > 0 {
			a.logger.Debug("pruned backups", zap.Strings("snapshots", removed))
		}
	}

	if a.roadmap != nil && ContainsRoadmapBlock(text) {
		results, err := a.roadmap.HandleInput(a.opts.RoadmapPath, text)
		if err != nil {
			a.logger.Warn("roadmap update failed", zap.Error(err))
		} else {
			s.RoadmapResults = append(s.RoadmapResults, results...)
		}
	}

	if a.reloader != nil && len(s.Written) > 0 {
		if err := a.reloader.Reload(s.Written); err != nil {
			a.logger.Debug("buffer reload failed", zap.Error(err))
		}
	}
}

func (a *App) verifyAndCommit(ctx context.Context, plan string, hasPlan bool) {
	if !a.opts.NoVerify && a.verifier != nil {
		fmt.Fprint(a.out, "\n"+headerStyle.Render("Verifying changes...")+"\n")
		ok, log := a.verifier.Verify(ctx)
		if !ok {
			a.retainFailure(plan, hasPlan, log)
			return
		}
		fmt.Fprint(a.out, successStyle.Bold(true).Render("Verification Passed.")+"\n")
	}

	if a.opts.NoCommit || a.committer == nil {
		return
	}

	intent, _, err := a.intents.Read()
	if err != nil {
		a.logger.Warn("failed to read intent", zap.Error(err))
	}
	res, err := a.committer.CommitAndPush(ctx, BuildCommitMessage(plan, hasPlan, intent))
	if err != nil {
		a.logger.Warn("git operation failed", zap.Error(err))
		fmt.Fprint(a.out, FormatWarning("Git operation failed: "+err.Error()))
	} else {
		fmt.Fprint(a.out, dimStyle.Render(res)+"\n")
	}

	if err := a.intents.Clear(); err != nil {
		a.logger.Warn("failed to clear intent", zap.Error(err))
	}
}

// retainFailure keeps the changes on disk and hands the log back. The
// first failing goal is stored and later failures never replace it.
func (a *App) retainFailure(plan string, hasPlan bool, log string) {
	fmt.Fprint(a.out, errorStyle.Bold(true).Render("Verification Failed. Changes applied but NOT committed.")+"\n")

	msg := FormatVerificationFailure(log)
	fmt.Fprint(a.out, FormatFeedback(msg, a.copy(msg)))

	_, found, err := a.intents.Read()
	if err != nil {
		a.logger.Warn("failed to read intent", zap.Error(err))
		return
	}
	if found || !hasPlan {
		return
	}
	if goal := GoalText(plan); goal != "" {
		if err := a.intents.Write(goal); err != nil {
			a.logger.Warn("failed to store intent", zap.Error(err))
		}
	}
}

func (a *App) finish(o Outcome) Outcome {
	fmt.Fprint(a.out, FormatOutcome(o))
	if vf, ok := o.(ValidationFailure); ok {
		fmt.Fprint(a.out, FormatFeedback(vf.AIMessage, a.copy(vf.AIMessage)))
	}
	return o
}

func (a *App) copy(msg string) bool {
	if !a.opts.AutoCopy || a.clipboard == nil {
		return false
	}
	if err := a.clipboard.Copy(msg); err != nil {
		a.logger.Debug("clipboard copy failed", zap.Error(err))
		return false
	}
	return true
}
