package httpkit

import (
	"errors"

	"dealer_crm_backend/platform/apperr"
)

func asAppErr(err error) (*apperr.Error, bool) {
	var e *apperr.Error
	ok := errors.As(err, &e)
	return e, ok
}
