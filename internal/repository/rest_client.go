package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tesatiki/internal/config"
)

const (
	breakerMaxFailures = 5
	breakerOpenTimeout = 30 * time.Second
	maxErrorBody       = 4 << 10
)

// Query builds a PostgREST-style filter string for one table.
type Query struct {
	table  string
	params url.Values
}

func From(table string) *Query {
	return &Query{table: table, params: url.Values{}}
}

func (q *Query) Eq(column, value string) *Query {
	q.params.Add(column, "eq."+value)
	return q
}

func (q *Query) Neq(column, value string) *Query {
	q.params.Add(column, "neq."+value)
	return q
}

func (q *Query) Lt(column, value string) *Query {
	q.params.Add(column, "lt."+value)
	return q
}

func (q *Query) In(column string, values ...string) *Query {
	q.params.Add(column, "in.("+strings.Join(values, ",")+")")
	return q
}

// Select sets the projection. Embedded relations use the table(col,...) form.
func (q *Query) Select(columns string) *Query {
	q.params.Set("select", columns)
	return q
}

func (q *Query) Order(column string, desc bool) *Query {
	direction := "asc"
	if desc {
		direction = "desc"
	}
	q.params.Set("order", column+"."+direction)
	return q
}

func (q *Query) Encode() string {
	return q.params.Encode()
}

// RestClient talks to the hosted records service with the service key.
// Reads are retried with exponential backoff; every call goes through a
// circuit breaker.
type RestClient struct {
	baseURL         string
	serviceKey      string
	http            *http.Client
	breaker         *gobreaker.CircuitBreaker
	retryMaxElapsed time.Duration
	logger          *zap.Logger
}

func NewRestClient(cfg config.Records, logger *zap.Logger) *RestClient {
	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    50,
		IdleConnTimeout: 90 * time.Second,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "records",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerMaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &RestClient{
		baseURL:         strings.TrimSuffix(cfg.URL, "/"),
		serviceKey:      cfg.ServiceKey,
		http:            &http.Client{Transport: tr, Timeout: cfg.Timeout},
		breaker:         breaker,
		retryMaxElapsed: cfg.RetryMaxElapsed,
		logger:          logger,
	}
}

type restResult struct {
	status int
	header http.Header
	body   []byte
}

// retryableError marks failures worth another attempt: transport errors and
// 5xx answers.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *RestClient) do(ctx context.Context, method string, q *Query, payload any, prefer []string) (*restResult, error) {
	var body []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = encoded
	}

	target := c.baseURL + "/" + q.table
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	attempt := func() (*restResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("apikey", c.serviceKey)
		req.Header.Set("Authorization", "Bearer "+c.serviceKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		for _, p := range prefer {
			req.Header.Add("Prefer", p)
		}

		out, err := c.breaker.Execute(func() (interface{}, error) {
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, &retryableError{err: err}
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, &retryableError{err: err}
			}

			res := &restResult{status: resp.StatusCode, header: resp.Header, body: data}
			if resp.StatusCode >= 500 {
				return nil, &retryableError{err: gatewayError(res)}
			}
			// 4xx is the caller's problem, not the upstream's health
			return res, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, backoff.Permanent(&GatewayError{Status: http.StatusServiceUnavailable, Body: err.Error()})
			}
			return nil, err
		}
		return out.(*restResult), nil
	}

	var res *restResult
	var err error
	if method == http.MethodGet || method == http.MethodHead {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = c.retryMaxElapsed
		res, err = backoff.RetryWithData(attempt, backoff.WithContext(b, ctx))
	} else {
		res, err = attempt()
	}

	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		var retryable *retryableError
		if errors.As(err, &retryable) {
			err = retryable.err
		}
		c.logger.Warn("records request failed",
			zap.String("method", method),
			zap.String("table", q.table),
			zap.Error(err))
		return nil, err
	}

	if res.status < 200 || res.status > 299 {
		return nil, gatewayError(res)
	}
	return res, nil
}

func gatewayError(res *restResult) *GatewayError {
	body := res.body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &GatewayError{Status: res.status, Body: string(body)}
}

// Select runs a GET and decodes the JSON array into dest.
func (c *RestClient) Select(ctx context.Context, q *Query, dest any) error {
	res, err := c.do(ctx, http.MethodGet, q, nil, nil)
	if err != nil {
		return err
	}
	return decodeBody(res.body, dest)
}

// Count returns the exact row count of q without transferring rows.
func (c *RestClient) Count(ctx context.Context, q *Query) (int, error) {
	res, err := c.do(ctx, http.MethodHead, q, nil, []string{"count=exact"})
	if err != nil {
		return 0, err
	}
	return parseContentRange(res.header.Get("Content-Range"))
}

func (c *RestClient) Insert(ctx context.Context, table string, rows any, dest any) error {
	res, err := c.do(ctx, http.MethodPost, From(table), rows, []string{"return=representation"})
	if err != nil {
		return err
	}
	return decodeBody(res.body, dest)
}

func (c *RestClient) Patch(ctx context.Context, q *Query, fields any, dest any) error {
	res, err := c.do(ctx, http.MethodPatch, q, fields, []string{"return=representation"})
	if err != nil {
		return err
	}
	return decodeBody(res.body, dest)
}

func (c *RestClient) Delete(ctx context.Context, q *Query, dest any) error {
	res, err := c.do(ctx, http.MethodDelete, q, nil, []string{"return=representation"})
	if err != nil {
		return err
	}
	return decodeBody(res.body, dest)
}

func decodeBody(body []byte, dest any) error {
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode records response: %w", err)
	}
	return nil
}

// parseContentRange reads the total from "0-24/3573" or "*/0".
func parseContentRange(value string) (int, error) {
	idx := strings.LastIndex(value, "/")
	if idx < 0 || idx == len(value)-1 {
		return 0, fmt.Errorf("unexpected Content-Range %q", value)
	}
	total, err := strconv.Atoi(value[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("unexpected Content-Range %q: %w", value, err)
	}
	return total, nil
}
