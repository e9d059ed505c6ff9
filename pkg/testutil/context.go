package testutil

import (
	"net/http"

	id "kitties/pkg/domain"
	"kitties/pkg/requestcontext"
)

// WithCaller adds a caller to the request context, as the auth middleware
// would for an authenticated request.
func WithCaller(req *http.Request, caller id.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), caller))
}

// Account returns a deterministic non-zero account whose first byte is b.
func Account(b byte) id.AccountID {
	var a id.AccountID
	a[0] = b
	return a
}
