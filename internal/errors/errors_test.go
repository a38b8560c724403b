package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"prowler/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestFromDomainCodes(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{core.NewValidationError("row 1", "bad"), CodeValidationError},
		{core.NewPreconditionError("empty"), CodeInvalidInput},
		{core.NewDomainMathError("log", "zero"), CodeDomainMath},
		{fmt.Errorf("mean: %w", core.ErrDivision), CodeDivision},
		{&core.TrialError{Index: 3, Strategy: "names", Err: stderrors.New("boom")}, CodeTrialFailed},
		{fmt.Errorf("run: %w", core.ErrTimeout), CodeTimeout},
		{core.NewNotFoundError("run", "x"), CodeNotFound},
		{stderrors.New("plain"), CodeInternalError},
	}
	for _, c := range cases {
		got := FromDomain(c.err)
		assert.Equal(t, c.code, GetCode(got), "%v", c.err)
		assert.ErrorIs(t, got, c.err)
	}
	assert.Nil(t, FromDomain(nil))
}

func TestWrapKeepsCode(t *testing.T) {
	base := ConfigInvalid("PROWLER_TRIALS must be positive")
	wrapped := Wrap(base, "loading config")
	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Equal(t, "loading config: PROWLER_TRIALS must be positive", wrapped.Error())

	domain := Wrapf(core.ErrDivision, "aggregate %d trials", 0)
	assert.Equal(t, CodeDivision, GetCode(domain))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeDatabaseError, stderrors.New("locked"))
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(core.NewValidationError("f", "r")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(core.NewNotFoundError("run", "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(core.NewDomainMathError("log", "0")))
	assert.Equal(t, http.StatusGatewayTimeout, HTTPStatus(core.ErrTimeout))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(stderrors.New("x")))
}
