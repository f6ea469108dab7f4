package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/yoohoo-guru/yoohoo-api/internal/domain/auth"
	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
)

var knownClasses = []struct {
	err   error
	class string
}{
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
	{domainauth.ErrExpiredSession, "expired_session"},
	{domainauth.ErrInvalidSession, "invalid_session"},
	{domainauth.ErrNoSession, "no_session"},
	{domainauth.ErrAuthenticationFailed, "authentication_failed"},
	{domainauth.ErrRoleMissing, "role_missing"},
	{domainauth.ErrUnknownRole, "unknown_role"},
	{domainauth.ErrConfiguration, "configuration"},
}

// Classify returns a short, low-cardinality name for err suitable for metric
// tags. Known sentinels and AppError codes win; anything else is named after
// its innermost concrete type.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range knownClasses {
		if goerrors.Is(err, k.err) {
			return k.class
		}
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
}
