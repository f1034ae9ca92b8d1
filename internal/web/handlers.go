package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/ferrianes/foodmarket-backend/internal/errorz"
	"github.com/gorilla/schema"
)

// errBadRequest is returned when the request body can't be decoded.
var errBadRequest = errors.New("bad request")

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

// defaultRequest is the default way to map a request to a struct.
// JSON bodies are decoded as JSON, everything else as a form.
// The body size is limited by the caller.
func defaultRequest[IN any](s *Server, r *http.Request) (IN, error) {
	var in IN

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&in)
		if errors.Is(err, io.EOF) {
			// An empty body is left to validation.
			return in, nil
		}

		return in, decodeJSONError(err)
	}

	var err error
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(s.cfg.MaxBodyBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		if isBodyTooLarge(err) {
			return in, err
		}
		return in, badRequest(err)
	}

	err = s.decoder.Decode(&in, r.PostForm)
	return in, decodeFormError(err)
}

func decodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	if isBodyTooLarge(err) {
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return errorz.InvalidInput{
			errorz.Keyed{Key: typeErr.Field, Err: fmt.Errorf("must be a %s", typeErr.Type)},
		}
	}

	return badRequest(err)
}

func decodeFormError(err error) error {
	if err == nil {
		return nil
	}

	var multiErr schema.MultiError
	if errors.As(err, &multiErr) {
		var invalidInput errorz.InvalidInput
		for key, e := range multiErr {
			invalidInput = append(invalidInput, errorz.Keyed{
				Key: key,
				Err: e,
			})
		}

		return invalidInput
	}

	return badRequest(err)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
