package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// ClassifyTransport maps an error returned by http.Client.Do to a coded
// error. Connection-level failures mean the provider is unreachable;
// deadlines are a per-symbol timeout.
func ClassifyTransport(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return core.WrapError(core.ErrSymbolTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return core.WrapError(core.ErrProviderUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return core.WrapError(core.ErrProviderUnreachable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.WrapError(core.ErrSymbolTimeout, err)
	}
	return core.WrapError(core.ErrDataUnavailable, err)
}

// ClassifyStatus maps a non-200 HTTP status to a coded error. Rejected
// credentials make every request fail, so they abort the scan. Server
// errors and rate limiting are provider-side but may be transient for a
// single request.
func ClassifyStatus(provider string, code int) error {
	cause := fmt.Errorf("%s: unexpected status %d", provider, code)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return core.WrapError(core.ErrProviderUnreachable, cause)
	case code == http.StatusNotFound:
		return core.WrapError(core.ErrSymbolNotFound, cause)
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return core.WrapError(core.ErrProviderError, cause)
	default:
		return core.WrapError(core.ErrDataUnavailable, cause)
	}
}
