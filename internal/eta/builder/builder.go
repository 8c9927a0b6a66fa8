// Package builder turns raw sales records into validated ETA invoices and receipts.
package builder

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/smallbiznis/etabridge/internal/eta/domain"
	"github.com/smallbiznis/etabridge/internal/eta/taxcalc"
)

// Builder fetches records and assembles documents. A Builder is bound to one settings
// snapshot; build a new one when the settings change.
type Builder struct {
	source   domain.RecordSource
	settings domain.Settings
	calc     *taxcalc.Calculator
	loc      *time.Location
	log      *zap.Logger
}

func New(source domain.RecordSource, settings domain.Settings, log *zap.Logger) (*Builder, error) {
	settings = settings.WithDefaults()
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", settings.Timezone, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		source:   source,
		settings: settings,
		calc:     taxcalc.New(settings),
		loc:      loc,
		log:      log.Named("eta.builder"),
	}, nil
}

// Settings returns the snapshot the builder was created with.
func (b *Builder) Settings() domain.Settings {
	return b.settings
}

// buildContext is the per-document state shared by the assembly steps.
type buildContext struct {
	rec  *domain.SalesRecord
	line taxcalc.LineContext
}

func (b *Builder) fetch(ctx context.Context, kind domain.DocumentKind, name string) (buildContext, error) {
	rec, err := b.source.FetchRecord(ctx, kind, name)
	if err != nil {
		return buildContext{}, fmt.Errorf("fetch %s %s: %w", kind, name, err)
	}
	if rec == nil {
		return buildContext{}, fmt.Errorf("fetch %s %s: %w", kind, name, domain.ErrRecordNotFound)
	}
	if rec.Kind != "" && rec.Kind != kind {
		return buildContext{}, fmt.Errorf("%s is a %s record: %w", name, rec.Kind, domain.ErrKindMismatch)
	}
	return newContext(rec), nil
}

func newContext(rec *domain.SalesRecord) buildContext {
	return buildContext{rec: rec, line: taxcalc.ContextFor(rec)}
}

// BuildInvoice fetches the named record and returns the validated invoice.
func (b *Builder) BuildInvoice(ctx context.Context, name string) (*domain.Invoice, error) {
	bc, err := b.fetch(ctx, domain.KindInvoice, name)
	if err != nil {
		return nil, err
	}
	return b.invoice(bc)
}

// InvoiceFromRecord builds and validates an invoice from an already loaded record.
func (b *Builder) InvoiceFromRecord(rec *domain.SalesRecord) (*domain.Invoice, error) {
	return b.invoice(newContext(rec))
}

// BuildReceipt fetches the named record and returns the validated receipt with its UUID stamped.
func (b *Builder) BuildReceipt(ctx context.Context, name string) (*domain.Receipt, error) {
	bc, err := b.fetch(ctx, domain.KindReceipt, name)
	if err != nil {
		return nil, err
	}
	return b.receipt(bc)
}

// ReceiptFromRecord builds, validates and stamps a receipt from an already loaded record.
func (b *Builder) ReceiptFromRecord(rec *domain.SalesRecord) (*domain.Receipt, error) {
	return b.receipt(newContext(rec))
}
