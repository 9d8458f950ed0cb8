// Package protocol defines the tagged messages exchanged between the
// controller and the rendering workers.
//
// Every message travels as a triple [kind, ticket, params]. Requests flow
// from the controller to a worker, responses flow back carrying the ticket of
// the request they answer. Page indexes are zero-based on both sides.
package protocol

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type Kind string

// Requests, controller -> worker.
const (
	KindSetEngine    Kind = "setEngine"
	KindSetOptions   Kind = "setOptions"
	KindLoadDocument Kind = "loadDocument"
	KindRenderPage   Kind = "renderPage"
	KindEdit         Kind = "edit"
	KindGetDocument  Kind = "getDocument"
)

// Responses, worker -> controller.
const (
	KindError          Kind = "error"
	KindDocumentLoaded Kind = "documentLoaded"
	KindPageRendered   Kind = "pageRendered"
	KindDocument       Kind = "document"
)

// Ticket correlates a request with its response. Zero is never issued and
// stands for "no ticket".
type Ticket uint64

var ErrUnknownKind = errors.New("unknown message kind")
var ErrMalformed = errors.New("malformed message")

// Message is implemented only by the param types of this package.
type Message interface {
	Kind() Kind
	message()
}

type SetEngine struct {
	Location string `json:"location"`
}

type SetOptions struct {
	Options RenderOptions `json:"options"`
}

type LoadDocument struct {
	Content string `json:"content"`
}

type RenderPage struct {
	PageIndex int `json:"pageIndex"`
}

type Edit struct {
	Action    EditAction `json:"action"`
	PageIndex int        `json:"pageIndex"`
}

type GetDocument struct{}

type Error struct {
	Error string `json:"error"`
}

type DocumentLoaded struct {
	PageCount int `json:"pageCount"`
}

type PageRendered struct {
	PageIndex      int    `json:"pageIndex"`
	Markup         string `json:"markup"`
	RebuildOverlay bool   `json:"rebuildOverlay"`
	Document       string `json:"document"`
}

type Document struct {
	Document string `json:"document"`
}

func (SetEngine) Kind() Kind      { return KindSetEngine }
func (SetOptions) Kind() Kind     { return KindSetOptions }
func (LoadDocument) Kind() Kind   { return KindLoadDocument }
func (RenderPage) Kind() Kind     { return KindRenderPage }
func (Edit) Kind() Kind           { return KindEdit }
func (GetDocument) Kind() Kind    { return KindGetDocument }
func (Error) Kind() Kind          { return KindError }
func (DocumentLoaded) Kind() Kind { return KindDocumentLoaded }
func (PageRendered) Kind() Kind   { return KindPageRendered }
func (Document) Kind() Kind       { return KindDocument }

func (SetEngine) message()      {}
func (SetOptions) message()     {}
func (LoadDocument) message()   {}
func (RenderPage) message()     {}
func (Edit) message()           {}
func (GetDocument) message()    {}
func (Error) message()          {}
func (DocumentLoaded) message() {}
func (PageRendered) message()   {}
func (Document) message()       {}

// IsRequest reports whether kind travels from the controller to a worker.
func IsRequest(kind Kind) bool {
	switch kind {
	case KindSetEngine, KindSetOptions, KindLoadDocument, KindRenderPage, KindEdit, KindGetDocument:
		return true
	}
	return false
}

type envelope struct {
	_      struct{} `cbor:",toarray"`
	Kind   Kind
	Ticket Ticket
	Params cbor.RawMessage
}

// Encode serializes msg tagged with ticket.
func Encode(ticket Ticket, msg Message) ([]byte, error) {
	params, err := encMode.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s params: %w", msg.Kind(), err)
	}
	data, err := encMode.Marshal(envelope{
		Kind:   msg.Kind(),
		Ticket: ticket,
		Params: params,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	return data, nil
}

// Decode parses a tagged message. When the envelope itself is readable the
// ticket is returned even if the kind is unknown or the params are invalid,
// so the caller can still answer with an error naming it.
func Decode(data []byte) (Ticket, Message, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var msg Message
	var err error
	switch env.Kind {
	case KindSetEngine:
		msg, err = decodeAs[SetEngine](env.Params)
	case KindSetOptions:
		msg, err = decodeAs[SetOptions](env.Params)
	case KindLoadDocument:
		msg, err = decodeAs[LoadDocument](env.Params)
	case KindRenderPage:
		msg, err = decodeAs[RenderPage](env.Params)
	case KindEdit:
		msg, err = decodeAs[Edit](env.Params)
	case KindGetDocument:
		msg, err = decodeAs[GetDocument](env.Params)
	case KindError:
		msg, err = decodeAs[Error](env.Params)
	case KindDocumentLoaded:
		msg, err = decodeAs[DocumentLoaded](env.Params)
	case KindPageRendered:
		msg, err = decodeAs[PageRendered](env.Params)
	case KindDocument:
		msg, err = decodeAs[Document](env.Params)
	default:
		return env.Ticket, nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if err != nil {
		return env.Ticket, nil, fmt.Errorf("%w: %s params: %v", ErrMalformed, env.Kind, err)
	}

	return env.Ticket, msg, nil
}

func decodeAs[T Message](raw []byte) (Message, error) {
	var m T
	if len(raw) == 0 {
		return m, nil
	}
	if err := decMode.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeRaw builds an envelope for an arbitrary kind. It only exists so
// tests and diagnostics can produce messages outside the closed set.
func EncodeRaw(kind Kind, ticket Ticket, params any) ([]byte, error) {
	raw, err := encMode.Marshal(params)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(envelope{Kind: kind, Ticket: ticket, Params: raw})
}
