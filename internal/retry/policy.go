package retry

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Policy decides which responses and errors are worth another attempt. The
// condition names follow envoy's retry_on header.
type Policy struct {
	serverError    bool
	gatewayError   bool
	connectFailure bool
	retriable4xx   bool
	statusCodes    []int
}

func DefaultPolicy() *Policy {
	return &Policy{
		gatewayError:   true,
		connectFailure: true,
		retriable4xx:   true,
	}
}

// ParsePolicy reads a comma separated list of conditions: 5xx,
// gateway-error, connect-failure, retriable-4xx or a literal status code.
func ParsePolicy(s string) (*Policy, error) {
	p := &Policy{}
	for _, condition := range strings.Split(s, ",") {
		switch condition = strings.TrimSpace(condition); condition {
		case "5xx":
			p.serverError = true
		case "gateway-error":
			p.gatewayError = true
		case "connect-failure":
			p.connectFailure = true
		case "retriable-4xx":
			p.retriable4xx = true
		default:
			statusCode, err := strconv.Atoi(condition)
			if err != nil {
				return nil, xerrors.Errorf("invalid retry condition: %s", condition)
			}
			p.statusCodes = append(p.statusCodes, statusCode)
		}
	}
	return p, nil
}

// https://github.com/envoyproxy/envoy/blob/70d6ec1df6384118cf2fa2f02c0041edb76b2377/source/common/router/retry_state_impl.cc#L387
func (p *Policy) RetryResponse(response *http.Response) bool {
	code := response.StatusCode
	switch {
	case p.serverError && code >= 500 && code < 600:
		return true
	case p.gatewayError && code >= 502 && code < 505:
		return true
	case p.retriable4xx && code == http.StatusConflict:
		return true
	}

	for _, statusCode := range p.statusCodes {
		if statusCode == code {
			return true
		}
	}
	return false
}

func (p *Policy) RetryError(err error) bool {
	if !p.connectFailure && !p.serverError {
		return false
	}

	type temporary interface{ Temporary() bool }
	var terr temporary
	return (errors.As(err, &terr) && terr.Temporary()) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
