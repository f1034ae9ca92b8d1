package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ferrianes/foodmarket-backend/internal/krypto"
)

var errNoEncryptor = errors.New("no encryptor set")

// Query helps build SQL queries using bind parameters.
// Use Unsafe to write the static parts of a query and the Param methods
// to add bind parameters. The final query and parameters are retrieved using Get.
//
// The zero value is ready to use, but can't encrypt.
type Query struct {
	Encryptor *krypto.Encryptor
	b         strings.Builder
	params    []any
	err       error
}

// Unsafe writes a non-parameterized part of a query.
func (q *Query) Unsafe(s string) {
	q.b.WriteString(s)
}

// Param writes a parameterized part of a query.
func (q *Query) Param(v any) {
	q.b.WriteString("?")
	q.params = append(q.params, v)
}

// Params writes multiple parameterized parts of a query separated by commas.
func (q *Query) Params(v ...any) {
	for i, p := range v {
		if i > 0 {
			q.b.WriteString(", ")
		}
		q.Param(p)
	}
}

// ParamEncrypted encrypts d for column and writes it as a parameter.
// The value can only be read back by a DecryptionTarget for the same column.
func (q *Query) ParamEncrypted(column string, d []byte) {
	if q.Encryptor == nil {
		q.err = errors.Join(q.err, errNoEncryptor)
		return
	}

	enc, err := q.Encryptor.Encrypt(d, column)
	if err != nil {
		q.err = errors.Join(q.err, fmt.Errorf("failed to encrypt %s: %w", column, err))
		return
	}

	q.Param(enc)
}

// ParamEncryptedText is like ParamEncrypted, but writes NULL for an empty string.
func (q *Query) ParamEncryptedText(column, s string) {
	if s == "" {
		q.Param(nil)
		return
	}

	q.ParamEncrypted(column, []byte(s))
}

// Get returns the constructed query and parameter values.
func (q *Query) Get() (string, []any, error) {
	return q.b.String(), q.params, q.err
}

// DecryptionTarget returns a value that decrypts what is scanned into it
// from column.
func (q *Query) DecryptionTarget(column string) *Decryptable {
	return &Decryptable{
		encryptor: q.Encryptor,
		column:    column,
	}
}

// Decryptable is a sql.Scanner for encrypted columns. NULL scans to nil Data.
type Decryptable struct {
	encryptor *krypto.Encryptor
	column    string
	Data      []byte
}

func (d *Decryptable) Scan(src any) error {
	if src == nil {
		d.Data = nil
		return nil
	}

	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("can't decrypt value of type %T", src)
	}

	if d.encryptor == nil {
		return errNoEncryptor
	}

	data, err := d.encryptor.Decrypt(b, d.column)
	if err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", d.column, err)
	}

	d.Data = data

	return nil
}

// String returns the decrypted data as a string.
func (d *Decryptable) String() string {
	return string(d.Data)
}

// AnySlice converts s so it can be passed to Params.
func AnySlice[T any](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
