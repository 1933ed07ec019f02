package organizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"curator/internal/annotate"
	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/pathgen"
	"curator/internal/provenance"
	"curator/internal/services"
	"curator/internal/templates"
)

// State is the position of one file in the organize transaction.
type State string

const (
	StateDiscovered   State = "discovered"
	StateClassified   State = "classified"
	StatePathResolved State = "path_resolved"
	StateConfirmed    State = "confirmed"
	StateMoved        State = "moved"
	StateRecorded     State = "recorded"
	StateAnnotated    State = "annotated"
	StateAborted      State = "aborted"
)

// Request describes one file to organize under one template.
type Request struct {
	Path     string
	Template templates.Template
	// CustomContext is extra guidance passed through to the classifier.
	CustomContext string
}

// Transaction reports how far one organize operation got and what it
// produced. State is terminal when Organize returns.
type Transaction struct {
	State      State
	SourcePath string
	DestPath   string
	BackupPath string
	RecordID   int64
	Result     classify.Result
	// FolderFellBack reports that the classifier's suggested folder was
	// outside the template whitelist and the first entry was used instead.
	FolderFellBack bool
}

// Organizer executes organize transactions: classify, resolve a destination,
// confirm, back up, move, record, annotate.
type Organizer struct {
	cfg       *config.Config
	store     *provenance.Store
	provider  classify.Provider
	annotator annotate.Annotator
	logger    *slog.Logger
}

// New wires an organizer. A nil logger disables logging.
func New(cfg *config.Config, store *provenance.Store, provider classify.Provider, annotator annotate.Annotator, logger *slog.Logger) *Organizer {
	if annotator == nil {
		annotator = annotate.Nop{}
	}
	return &Organizer{
		cfg:       cfg,
		store:     store,
		provider:  provider,
		annotator: annotator,
		logger:    logging.NewComponentLogger(logger, "organizer"),
	}
}

// Organize runs the transaction for one file. A nil confirmer leaves the file
// at PathResolved, unmoved, with its proposal recorded for later manual
// review; this is the daemon path for templates without auto-organize.
//
// Failures before the move leave the source file untouched. Annotation
// failures after the move are logged and do not roll anything back.
func (o *Organizer) Organize(ctx context.Context, req Request, confirmer Confirmer) (*Transaction, error) {
	tx := &Transaction{State: StateDiscovered, SourcePath: req.Path}

	info, err := os.Stat(req.Path)
	if err != nil || info.IsDir() {
		return tx, services.Wrap(services.ErrPathUnavailable, "organizer", "organize",
			"source file not accessible: "+req.Path, err)
	}

	result, err := o.classifyFile(ctx, req)
	if err != nil {
		o.markUnorganized(ctx, req, info)
		return tx, err
	}
	tx.Result = result
	tx.State = StateClassified

	proposal, err := o.resolvePath(req, result)
	if err != nil {
		o.markUnorganized(ctx, req, info)
		return tx, err
	}
	tx.DestPath = proposal.DestPath
	tx.FolderFellBack = proposal.FolderFellBack
	tx.State = StatePathResolved

	if confirmer == nil {
		o.markUnorganized(ctx, req, info)
		o.logger.Info("awaiting manual review",
			logging.String("path", req.Path),
			logging.String("proposed", proposal.DestPath))
		return tx, nil
	}

	proposal, err = o.confirm(ctx, confirmer, proposal)
	if err != nil {
		tx.State = StateAborted
		o.markUnorganized(ctx, req, info)
		return tx, err
	}
	tx.DestPath = proposal.DestPath
	tx.State = StateConfirmed

	backupPath, err := o.execute(req.Path, proposal.DestPath, info)
	if err != nil {
		tx.State = StateAborted
		o.markUnorganized(ctx, req, info)
		return tx, err
	}
	tx.BackupPath = backupPath
	tx.State = StateMoved

	recordID, err := o.store.RecordOrganization(ctx, provenance.NewRecord{
		OriginalPath:        req.Path,
		CurrentPath:         proposal.DestPath,
		BackupPath:          backupPath,
		TemplateID:          req.Template.ID,
		Category:            result.Category,
		Title:               result.Title,
		Tags:                result.Tags,
		Summary:             result.Summary,
		ClassifierProvider:  result.Provider,
		ClassifierModel:     result.Model,
		RawClassifierOutput: result.Raw,
	})
	if err != nil {
		return tx, err
	}
	tx.RecordID = recordID
	tx.State = StateRecorded

	o.annotate(proposal.DestPath, result)
	tx.State = StateAnnotated

	o.markOrganized(ctx, req, info)
	o.logger.Info("organized",
		logging.String("source", req.Path),
		logging.String("destination", proposal.DestPath),
		logging.Int64("record_id", recordID))
	return tx, nil
}

func (o *Organizer) classifyFile(ctx context.Context, req Request) (classify.Result, error) {
	content, err := readExcerpt(req.Path, o.cfg.Classifier.MaxContentBytes)
	if err != nil {
		return classify.Result{}, services.Wrap(services.ErrPathUnavailable, "organizer", "classify",
			"read "+req.Path, err)
	}
	return o.provider.Classify(ctx, classify.Request{
		FileName:      filepath.Base(req.Path),
		Content:       content,
		MIMEType:      mime.TypeByExtension(filepath.Ext(req.Path)),
		Templates:     []templates.Template{req.Template},
		CustomContext: req.CustomContext,
	})
}

// Proposal is a resolved destination awaiting confirmation.
type Proposal struct {
	SourcePath     string
	DestPath       string
	Template       templates.Template
	Result         classify.Result
	FolderFellBack bool
}

func (o *Organizer) resolvePath(req Request, result classify.Result) (Proposal, error) {
	tpl := req.Template
	style, ok := pathgen.ParseStyle(tpl.CaseStyle)
	if !ok {
		style, ok = pathgen.ParseStyle(o.cfg.Organize.DefaultCaseStyle)
		if !ok {
			style = pathgen.DefaultStyle
		}
	}

	now := time.Now()
	facts := map[string]string{
		"category": result.Category,
		"title":    result.Title,
		"filename": strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path)),
		"date":     now.Format("2006-01-02"),
		"year":     now.Format("2006"),
		"month":    now.Format("01"),
		"day":      now.Format("02"),
	}
	if len(result.Subcategories) > 0 {
		facts["subcategory"] = result.Subcategories[0]
	}

	rendered, err := pathgen.Render(tpl.NamingPattern, facts, tpl.BasePath, filepath.Ext(req.Path), style)
	if err != nil {
		return Proposal{}, services.Wrap(services.ErrValidation, "organizer", "resolve_path",
			"render pattern "+tpl.NamingPattern, err)
	}

	proposal := Proposal{
		SourcePath: req.Path,
		DestPath:   rendered,
		Template:   tpl,
		Result:     result,
	}

	// A restricted template pins the directory to a whitelist entry; an
	// unrestricted one takes any classifier-suggested folder verbatim.
	if result.SelectedFolderPath != "" || tpl.Restricted() {
		folder, fellBack := pathgen.ValidateFolder(result.SelectedFolderPath, tpl.FolderWhitelist)
		if fellBack {
			o.logger.Error("suggested folder outside whitelist",
				logging.String(logging.FieldTemplate, tpl.Name),
				logging.String("suggested", result.SelectedFolderPath),
				logging.String("fallback", folder))
			proposal.FolderFellBack = true
		}
		if folder != "" {
			base, err := pathgen.ExpandHome(tpl.BasePath)
			if err != nil {
				return Proposal{}, services.Wrap(services.ErrValidation, "organizer", "resolve_path",
					"expand base path", err)
			}
			dest, err := filepath.Abs(filepath.Join(base, folder, filepath.Base(rendered)))
			if err != nil {
				return Proposal{}, services.Wrap(services.ErrValidation, "organizer", "resolve_path",
					"resolve destination", err)
			}
			proposal.DestPath = dest
		}
	}
	return proposal, nil
}

func (o *Organizer) confirm(ctx context.Context, confirmer Confirmer, proposal Proposal) (Proposal, error) {
	for {
		decision, err := confirmer.Confirm(ctx, proposal)
		if err != nil {
			return proposal, services.Wrap(services.ErrCancelled, "organizer", "confirm", "confirmation failed", err)
		}
		switch decision.Action {
		case ActionAccept:
			return proposal, nil
		case ActionReject:
			return proposal, services.Wrap(services.ErrCancelled, "organizer", "confirm",
				"placement rejected for "+proposal.SourcePath, nil)
		case ActionRevise:
			// Revision adjusts the proposed name only; classification is
			// never re-run from here.
			proposal.DestPath = applyRevision(proposal.DestPath, decision.Revision)
		default:
			return proposal, services.Wrap(services.ErrValidation, "organizer", "confirm",
				fmt.Sprintf("unknown confirmation action %d", decision.Action), nil)
		}
	}
}

func (o *Organizer) annotate(path string, result classify.Result) {
	if err := o.annotator.AddTags(path, result.Tags); err != nil {
		o.logger.Warn("tag annotation failed", logging.String("path", path), logging.Error(err))
	}
	if err := o.annotator.AddComment(path, result.Summary); err != nil {
		o.logger.Warn("comment annotation failed", logging.String("path", path), logging.Error(err))
	}
}

func (o *Organizer) markOrganized(ctx context.Context, req Request, info os.FileInfo) {
	o.upsertDiscovered(ctx, req, info, provenance.StatusOrganized)
}

func (o *Organizer) markUnorganized(ctx context.Context, req Request, info os.FileInfo) {
	o.upsertDiscovered(ctx, req, info, provenance.StatusUnorganized)
}

func (o *Organizer) upsertDiscovered(ctx context.Context, req Request, info os.FileInfo, status provenance.DiscoveredStatus) {
	size := info.Size()
	modified := info.ModTime()
	err := o.store.UpsertDiscovered(ctx, provenance.DiscoveredFile{
		FilePath:       req.Path,
		Status:         status,
		FileSize:       &size,
		FileModifiedAt: &modified,
		TemplateID:     req.Template.ID,
	})
	if err != nil {
		o.logger.Warn("discovered-file upsert failed", logging.String("path", req.Path), logging.Error(err))
	}
}

// applyRevision prepends the context prefix and appends the suffix to the
// filename stem, leaving directory and extension alone.
func applyRevision(destPath string, revision Revision) string {
	dir := filepath.Dir(destPath)
	ext := filepath.Ext(destPath)
	stem := strings.TrimSuffix(filepath.Base(destPath), ext)
	if prefix := strings.TrimSpace(revision.ContextPrefix); prefix != "" {
		stem = prefix + "-" + stem
	}
	if suffix := strings.TrimSpace(revision.Suffix); suffix != "" {
		stem = stem + "-" + suffix
	}
	return filepath.Join(dir, stem+ext)
}

func readExcerpt(path string, limit int) ([]byte, error) {
	if limit <= 0 {
		limit = 32 * 1024
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	buf := make([]byte, limit)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	return buf[:n], nil
}
