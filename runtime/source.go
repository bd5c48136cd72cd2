package runtime

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/wippyai/wasm-bridge/errors"
)

// WasmContentType is the media type a streamed response must declare.
const WasmContentType = "application/wasm"

// Source produces module bytes for streaming compilation and loaders.
type Source interface {
	Read(ctx context.Context) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]byte, error)

func (f SourceFunc) Read(ctx context.Context) ([]byte, error) { return f(ctx) }

// Bytes is an in-memory module.
type Bytes []byte

func (b Bytes) Read(context.Context) ([]byte, error) { return b, nil }

type streamSource struct {
	r io.Reader
}

// Stream reads the module from r until EOF. If r is an io.Closer it is
// closed afterwards.
func Stream(r io.Reader) Source {
	return streamSource{r: r}
}

func (s streamSource) Read(ctx context.Context) ([]byte, error) {
	if c, ok := s.r.(io.Closer); ok {
		defer c.Close()
	}
	data, err := io.ReadAll(contextReader{ctx: ctx, r: s.r})
	if err != nil {
		return nil, errors.Load("read module stream", err)
	}
	return data, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

type responseSource struct {
	resp *http.Response
}

// Response reads the module from an HTTP response body. The response must
// have a 2xx status and the application/wasm content type.
func Response(resp *http.Response) Source {
	return responseSource{resp: resp}
}

func (s responseSource) Read(ctx context.Context) ([]byte, error) {
	if s.resp == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil response")
	}
	if s.resp.StatusCode < 200 || s.resp.StatusCode > 299 {
		s.resp.Body.Close()
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Value(s.resp.StatusCode).
			Detail("response status %s", s.resp.Status).
			Build()
	}
	ct := s.resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != WasmContentType {
		s.resp.Body.Close()
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Value(ct).
			Detail("content type %q is not %s", ct, WasmContentType).
			Build()
	}
	return Stream(s.resp.Body).Read(ctx)
}
