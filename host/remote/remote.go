// Package remote serves a host.Backend over Connect and provides the matching
// client backend, so executions can run against slots held by another process.
//
// Every procedure exchanges google.protobuf.BytesValue messages whose payload
// is framed by internal/wire: a Get answers with a record, Apply and Scan
// carry batches.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"github.com/gorilla/mux"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/unkn0wn-root/slotcache/host"
	"github.com/unkn0wn-root/slotcache/internal/util"
	"github.com/unkn0wn-root/slotcache/internal/wire"
)

const (
	ServiceName = `slotcache.host.v1.Host`

	GetProcedure   = `/` + ServiceName + `/Get`
	ApplyProcedure = `/` + ServiceName + `/Apply`
	ScanProcedure  = `/` + ServiceName + `/Scan`
)

var ErrNilBackend = errors.New("remote: backend is required")

// NewHandler exposes b. It returns the path prefix to mount the handler on.
// Scan answers CodeUnimplemented when b is not a host.Scanner.
func NewHandler(b host.Backend, opts ...connect.HandlerOption) (string, http.Handler, error) {
	if b == nil {
		return "", nil, ErrNilBackend
	}
	s := &server{backend: b}

	r := mux.NewRouter()
	r.Handle(GetProcedure, connect.NewUnaryHandler(GetProcedure, s.get, opts...))
	r.Handle(ApplyProcedure, connect.NewUnaryHandler(ApplyProcedure, s.apply, opts...))
	r.Handle(ScanProcedure, connect.NewUnaryHandler(ScanProcedure, s.scan, opts...))
	return `/` + ServiceName + `/`, r, nil
}

type server struct {
	backend host.Backend
}

func (s *server) get(ctx context.Context, req *connect.Request[wrapperspb.BytesValue]) (*connect.Response[wrapperspb.BytesValue], error) {
	key := req.Msg.GetValue()
	if len(key) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("empty key"))
	}
	v, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(wrapperspb.Bytes(wire.EncodeRecord(ok, v))), nil
}

func (s *server) apply(ctx context.Context, req *connect.Request[wrapperspb.BytesValue]) (*connect.Response[emptypb.Empty], error) {
	items, err := wire.DecodeBatch(req.Msg.GetValue())
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	ops := make([]host.Op, len(items))
	for i, it := range items {
		ops[i] = host.Op{Key: it.Key, Value: it.Value, Delete: it.Delete}
	}
	if err := host.Apply(ctx, s.backend, ops); err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *server) scan(ctx context.Context, req *connect.Request[wrapperspb.BytesValue]) (*connect.Response[wrapperspb.BytesValue], error) {
	sc, ok := s.backend.(host.Scanner)
	if !ok {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("backend cannot scan"))
	}
	var items []wire.Item
	err := sc.Scan(ctx, req.Msg.GetValue(), func(key, value []byte) bool {
		items = append(items, wire.Item{Key: util.CloneBytes(key), Value: util.CloneBytes(value)})
		return true
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out, err := wire.EncodeBatch(items)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(wrapperspb.Bytes(out)), nil
}

// Client is a host.Backend that forwards every call to a remote handler.
type Client struct {
	get   *connect.Client[wrapperspb.BytesValue, wrapperspb.BytesValue]
	apply *connect.Client[wrapperspb.BytesValue, emptypb.Empty]
	scan  *connect.Client[wrapperspb.BytesValue, wrapperspb.BytesValue]
}

var (
	_ host.Backend = (*Client)(nil)
	_ host.Batcher = (*Client)(nil)
	_ host.Scanner = (*Client)(nil)
)

// NewClient targets the handler served at baseURL (scheme and host, no path).
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, `/`)
	return &Client{
		get:   connect.NewClient[wrapperspb.BytesValue, wrapperspb.BytesValue](httpClient, baseURL+GetProcedure, opts...),
		apply: connect.NewClient[wrapperspb.BytesValue, emptypb.Empty](httpClient, baseURL+ApplyProcedure, opts...),
		scan:  connect.NewClient[wrapperspb.BytesValue, wrapperspb.BytesValue](httpClient, baseURL+ScanProcedure, opts...),
	}
}

func (c *Client) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	res, err := c.get.CallUnary(ctx, connect.NewRequest(wrapperspb.Bytes(key)))
	if err != nil {
		return nil, false, fmt.Errorf("remote: get: %w", err)
	}
	ok, payload, err := wire.DecodeRecord(res.Msg.GetValue())
	if err != nil {
		return nil, false, fmt.Errorf("remote: get: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	out := util.CloneBytes(payload)
	if out == nil {
		out = []byte{}
	}
	return out, true, nil
}

func (c *Client) Set(ctx context.Context, key, value []byte) error {
	return c.Apply(ctx, []host.Op{{Key: key, Value: value}})
}

func (c *Client) Del(ctx context.Context, key []byte) error {
	return c.Apply(ctx, []host.Op{{Key: key, Delete: true}})
}

// Apply ships ops in one request; the server applies them atomically when
// its backend is a host.Batcher.
func (c *Client) Apply(ctx context.Context, ops []host.Op) error {
	if len(ops) == 0 {
		return nil
	}
	items := make([]wire.Item, len(ops))
	for i, op := range ops {
		items[i] = wire.Item{Key: op.Key, Value: op.Value, Delete: op.Delete}
		if op.Delete {
			items[i].Value = nil
		}
	}
	payload, err := wire.EncodeBatch(items)
	if err != nil {
		return fmt.Errorf("remote: apply: %w", err)
	}
	if _, err := c.apply.CallUnary(ctx, connect.NewRequest(wrapperspb.Bytes(payload))); err != nil {
		return fmt.Errorf("remote: apply: %w", err)
	}
	return nil
}

func (c *Client) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	res, err := c.scan.CallUnary(ctx, connect.NewRequest(wrapperspb.Bytes(prefix)))
	if err != nil {
		return fmt.Errorf("remote: scan: %w", err)
	}
	items, err := wire.DecodeBatch(res.Msg.GetValue())
	if err != nil {
		return fmt.Errorf("remote: scan: %w", err)
	}
	for _, it := range items {
		if !fn(it.Key, it.Value) {
			return nil
		}
	}
	return nil
}

// Close is a no-op; the HTTP client belongs to the caller.
func (c *Client) Close(context.Context) error { return nil }
