// Package gateway decides whether a caller may read a document and returns it.
//
// Every request is a single pass: field presence, allow-list membership,
// credential check against a freshly loaded registry, then the document read.
// The allow-list check runs before the registry is touched, so probing for
// arbitrary file names never reaches credential logic.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/avajson/internal/documents"
	"github.com/geocoder89/avajson/internal/domain/document"
	"github.com/geocoder89/avajson/internal/registry"
)

const RootMessage = "AVA JSON API running"

// Options is fixed at startup and never derived from request input.
type Options struct {
	AllowedFiles []string
	// DefaultFile is served when a request names no file. Empty means the
	// first allowed file.
	DefaultFile string
}

type DocumentStore interface {
	Load(ctx context.Context, name string) (document.Document, error)
	List(ctx context.Context) ([]string, error)
}

type OutcomeObserver interface {
	ObserveOutcome(file, outcome string)
}

type nopOutcomes struct{}

func (nopOutcomes) ObserveOutcome(string, string) {}

type Gateway struct {
	allowList   []string
	allowed     map[string]struct{}
	defaultFile string

	users  registry.Loader
	docs   DocumentStore
	obs    OutcomeObserver
	tracer trace.Tracer
}

func New(opts Options, users registry.Loader, docs DocumentStore, obs OutcomeObserver) (*Gateway, error) {
	if len(opts.AllowedFiles) == 0 {
		return nil, errors.New("gateway: allow-list is empty")
	}
	if obs == nil {
		obs = nopOutcomes{}
	}

	allowList := make([]string, len(opts.AllowedFiles))
	copy(allowList, opts.AllowedFiles)

	allowed := make(map[string]struct{}, len(allowList))
	for _, name := range allowList {
		allowed[name] = struct{}{}
	}

	def := opts.DefaultFile
	if def == "" {
		def = allowList[0]
	}
	if _, ok := allowed[def]; !ok {
		return nil, fmt.Errorf("gateway: default file %q is not in the allow-list", def)
	}

	return &Gateway{
		allowList:   allowList,
		allowed:     allowed,
		defaultFile: def,
		users:       users,
		docs:        docs,
		obs:         obs,
		tracer:      otel.Tracer("github.com/geocoder89/avajson/internal/gateway"),
	}, nil
}

// ServeRequest carries the caller's input. A nil File means the field was omitted.
type ServeRequest struct {
	Name string
	PIN  string
	File *string
}

func (g *Gateway) Allowed(name string) bool {
	_, ok := g.allowed[name]
	return ok
}

func (g *Gateway) AllowedFiles() []string {
	out := make([]string, len(g.allowList))
	copy(out, g.allowList)
	return out
}

func (g *Gateway) DefaultFile() string {
	return g.defaultFile
}

// Serve returns the requested document when the credentials match. Errors are
// *Error values wrapping ErrBadRequest, ErrUnauthorized or ErrNotFound; any
// other error is an internal failure.
func (g *Gateway) Serve(ctx context.Context, req ServeRequest) (doc document.Document, err error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Serve")
	defer span.End()

	file := g.defaultFile
	if req.File != nil {
		file = *req.File
	}

	// unknown names are not used as a metric label
	label := "other"

	defer func() {
		outcome := Outcome(err)
		g.obs.ObserveOutcome(label, outcome)
		span.SetAttributes(attribute.String("gateway.outcome", outcome))
		if outcome == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if req.Name == "" || req.PIN == "" {
		return document.Document{}, badRequest("Missing name or PIN")
	}
	if !g.Allowed(file) {
		return document.Document{}, badRequest("Invalid file requested")
	}

	label = file
	span.SetAttributes(attribute.String("gateway.file", file))

	reg, err := g.users.Load(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrRegistryNotFound) {
			return document.Document{}, notFound("Registry not found", err)
		}
		return document.Document{}, fmt.Errorf("load registry: %w", err)
	}

	u, ok := reg.Lookup(req.Name)
	if !ok || !u.PINMatches(req.PIN) {
		return document.Document{}, unauthorized()
	}

	// allow-listed does not mean present on disk
	doc, err = g.docs.Load(ctx, file)
	if err != nil {
		if errors.Is(err, documents.ErrDocumentNotFound) {
			return document.Document{}, notFound(file+documents.Ext+" not found", err)
		}
		return document.Document{}, fmt.Errorf("load document %s: %w", file, err)
	}

	return doc, nil
}

// Description is the unauthenticated root listing. It exposes every document
// name on disk and every registered identifier to any caller.
type Description struct {
	Message         string   `json:"message"`
	AvailableFiles  []string `json:"available_files"`
	RegisteredUsers []string `json:"registered_users"`
}

func (g *Gateway) Describe(ctx context.Context) (Description, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Describe")
	defer span.End()

	files, err := g.docs.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Description{}, fmt.Errorf("list documents: %w", err)
	}

	reg, err := g.users.Load(ctx)
	if err != nil {
		if errors.Is(err, registry.ErrRegistryNotFound) {
			return Description{}, notFound("Registry not found", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Description{}, fmt.Errorf("load registry: %w", err)
	}

	span.SetAttributes(
		attribute.Int("gateway.files", len(files)),
		attribute.Int("gateway.users", len(reg)),
	)

	return Description{
		Message:         RootMessage,
		AvailableFiles:  files,
		RegisteredUsers: reg.Identifiers(),
	}, nil
}
