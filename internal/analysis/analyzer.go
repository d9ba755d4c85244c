// Package analysis runs the genotype classification pipeline for one sample.
package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/genomenote/rsclass/internal/cache"
	"github.com/genomenote/rsclass/internal/citations"
	"github.com/genomenote/rsclass/internal/classify"
	"github.com/genomenote/rsclass/internal/genotype"
	"github.com/genomenote/rsclass/internal/refsnp"
)

// Annotations serves annotation rows for identifiers. *cache.Cache implements it.
type Annotations interface {
	Rows(ctx context.Context, ids []string) (*cache.Result, error)
	Rebuild(ctx context.Context, ids []string) (*cache.Result, error)
}

// Report is the outcome of one analysis run.
type Report struct {
	RunID     string
	SampleID  string
	CreatedAt time.Time
	Calls     []classify.ClassifiedCall
	// Requested is the number of identifiers annotation was requested for.
	Requested int
	// Failed lists identifiers that could not be resolved in this run.
	Failed []string
	// Incomplete is set when annotation may be missing for some calls.
	Incomplete bool
}

// Analyzer classifies genotype calls against the annotation table.
type Analyzer struct {
	annotations  Annotations
	classifier   *classify.Classifier
	studied      citations.Set
	forceRebuild bool
	logger       *zap.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(annotations Annotations, classifier *classify.Classifier) *Analyzer {
	return &Analyzer{
		annotations: annotations,
		classifier:  classifier,
		logger:      zap.NewNop(),
	}
}

// SetStudied restricts annotation to the given identifiers. A nil set disables
// the restriction.
func (a *Analyzer) SetStudied(s citations.Set) {
	a.studied = s
}

// SetForceRebuild makes the analyzer re-resolve every requested identifier.
func (a *Analyzer) SetForceRebuild(force bool) {
	a.forceRebuild = force
}

// SetLogger sets the logger.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Analyze annotates and classifies calls.
func (a *Analyzer) Analyze(ctx context.Context, calls []genotype.Call) (*Report, error) {
	ids := a.identifiers(calls)

	report := &Report{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Requested: len(ids),
	}
	if len(calls) > 0 {
		report.SampleID = calls[0].SampleID
	}

	log := a.logger.With(zap.String("run_id", report.RunID), zap.String("sample", report.SampleID))
	log.Info("analyzing genotype calls",
		zap.Int("calls", len(calls)),
		zap.Int("identifiers", len(ids)))

	lookup := a.annotations.Rows
	if a.forceRebuild {
		lookup = a.annotations.Rebuild
	}
	res, err := lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("annotate identifiers: %w", err)
	}

	report.Calls = a.classifier.Classify(calls, classify.NewTable(res.Rows))
	report.Failed = res.Failed
	report.Incomplete = res.Incomplete

	log.Info("analysis finished",
		zap.Int("annotation_rows", len(res.Rows)),
		zap.Int("fetched", len(res.Fetched)),
		zap.Int("failed", len(res.Failed)),
		zap.Int("reported", len(report.Calls)))
	return report, nil
}

// identifiers returns the distinct rs identifiers of calls, restricted to the
// studied set when one is configured.
func (a *Analyzer) identifiers(calls []genotype.Call) []string {
	var ids []string
	for _, id := range genotype.Identifiers(calls) {
		if refsnp.IsIdentifier(id) {
			ids = append(ids, id)
		}
	}
	if a.studied != nil {
		ids = a.studied.Filter(ids)
	}
	return ids
}
