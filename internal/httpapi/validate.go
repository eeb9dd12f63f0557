package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskcoin/backend/internal/ledger"
)

var validate = validator.New()

// DecodeValid decodes the request body into dst and checks its `validate`
// tags. Tag failures come back as ErrMissingField naming the first bad
// field, which WriteError turns into a 400.
func DecodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body", ledger.ErrMissingField)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s check", ledger.ErrMissingField, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ledger.ErrMissingField, err)
	}
	return nil
}
