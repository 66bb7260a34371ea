package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{Auth("nope"), http.StatusBadRequest},
		{Unauthorized("login"), http.StatusUnauthorized},
		{Forbidden("owner"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Persistence("write", errors.New("0 rows")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", Forbidden("no permission to delete this article"))

	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, "no permission to delete this article", PublicMessage(err))
}

func TestPublicMessageHidesCause(t *testing.T) {
	cause := errors.New(`pq: relation "articles" does not exist`)
	err := Persistence("publish article failed", cause)

	assert.Equal(t, "publish article failed", PublicMessage(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", PublicMessage(cause))
}
