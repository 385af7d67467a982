package retry

import (
	"net/http"
	"time"

	"golang.org/x/xerrors"
)

// Transport retries round trips according to Policy, sleeping between
// attempts as Strategy dictates. Requests with a body are retried only when
// GetBody is set.
type Transport struct {
	Base     http.RoundTripper
	Strategy Strategy
	Policy   *Policy
}

func (t *Transport) RoundTrip(request *http.Request) (*http.Response, error) {
	for attempt := uint(0); ; attempt++ {
		response, err := t.base().RoundTrip(request)

		retriable := false
		if err != nil {
			retriable = t.Policy != nil && t.Policy.RetryError(err)
		} else {
			retriable = t.Policy != nil && t.Policy.RetryResponse(response)
		}
		if !retriable {
			return response, err
		}

		delay, ok := t.strategy().Next(attempt)
		if !ok {
			return response, err
		}

		next, rewindErr := rewind(request)
		if rewindErr != nil {
			return response, err
		}
		if response != nil {
			response.Body.Close()
		}

		timer := time.NewTimer(delay)
		select {
		case <-request.Context().Done():
			timer.Stop()
			return nil, request.Context().Err()
		case <-timer.C:
		}
		request = next
	}
}

func rewind(request *http.Request) (*http.Request, error) {
	if request.Body == nil || request.Body == http.NoBody {
		return request, nil
	}
	if request.GetBody == nil {
		return nil, xerrors.New("request body cannot be rewound")
	}

	body, err := request.GetBody()
	if err != nil {
		return nil, xerrors.Errorf("failed to rewind request body: %w", err)
	}
	next := request.Clone(request.Context())
	next.Body = body
	return next, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) strategy() Strategy {
	if t.Strategy != nil {
		return t.Strategy
	}
	return Never()
}
