package web

import (
	"context"
	"net/http"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
)

// mapper is a generic HTTP handler that maps requests to target
// function calls and writes the output to the response.
type mapper[IN, OUT any] struct {
	s      *Server
	req    func(*http.Request) (IN, error)
	target func(context.Context, IN) (OUT, error)
	res    func(result[IN, OUT]) error
}

// result is the result of a succesful request.
// it contains all relevant data because we can't know
// in advance what we will need to construct a response.
type result[IN, OUT any] struct {
	s   *Server
	r   *http.Request
	w   http.ResponseWriter
	in  IN
	out OUT
}

// mapBoth creates a HTTP Handler that:
// 1. Maps the request body to a value of input type IN.
// 2. Calls the target func with that value.
// 3. Writes the output of type OUT in a success envelope with status 200.
//
// Errors are written using the server error handler.
func mapBoth[IN, OUT any](s *Server, message string, targetFunc func(context.Context, IN) (OUT, error)) *mapper[IN, OUT] {
	return &mapper[IN, OUT]{
		s: s,
		req: func(r *http.Request) (IN, error) {
			return defaultRequest[IN](s, r)
		},
		target: targetFunc,
		res: func(r result[IN, OUT]) error {
			return defaultResponse(r, message)
		},
	}
}

// mapAuthed is like mapBoth, but the target func also receives the
// identity the request was authenticated as.
func mapAuthed[IN, OUT any](s *Server, message string, targetFunc func(context.Context, auth.Identity, IN) (OUT, error)) *mapper[IN, OUT] {
	return mapBoth(s, message, func(ctx context.Context, in IN) (OUT, error) {
		id, ok := identityFromContext(ctx)
		if !ok {
			var zero OUT
			return zero, auth.ErrUnauthenticated
		}

		return targetFunc(ctx, id, in)
	})
}

// mapResponse creates a HTTP Handler that:
// 1. Calls the target func with the authenticated identity.
// 2. Writes the returned value of type OUT in a success envelope with status 200.
//
// The request body is ignored.
func mapResponse[OUT any](s *Server, message string, targetFunc func(context.Context, auth.Identity) (OUT, error)) *mapper[struct{}, OUT] {
	m := mapAuthed(s, message, func(ctx context.Context, id auth.Identity, _ struct{}) (OUT, error) {
		return targetFunc(ctx, id)
	})

	return m.request(func(*http.Request) (struct{}, error) {
		return struct{}{}, nil
	})
}

// request overwrites the function that maps the request to the input type.
func (m *mapper[IN, OUT]) request(fn func(r *http.Request) (IN, error)) *mapper[IN, OUT] {
	m.req = fn
	return m
}

func (m *mapper[IN, OUT]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, m.s.cfg.MaxBodyBytes)

	in, err := m.req(r)
	if err != nil {
		m.s.handleError(w, r, err)
		return
	}

	out, err := m.target(r.Context(), in)
	if err != nil {
		m.s.handleError(w, r, err)
		return
	}

	err = m.res(result[IN, OUT]{
		s:   m.s,
		r:   r,
		w:   w,
		in:  in,
		out: out,
	})
	if err != nil {
		m.s.handleError(w, r, err)
		return
	}
}

// defaultResponse writes the output in a success envelope.
func defaultResponse[IN, OUT any](r result[IN, OUT], message string) error {
	r.s.writeSuccess(r.w, r.r, http.StatusOK, message, r.out)
	return nil
}
