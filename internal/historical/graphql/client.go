// Package graphql implements the latest-state package fetch and
// transitive dependency resolution of spec.md §6 "GraphQL", fronted by a
// hand-rolled circuit breaker since the retrieved corpus's own circuit
// breaker implementations are private to their repos (spec.md §5 "a
// GraphQL circuit breaker that opens after consecutive timeouts and
// enforces a cooldown").
package graphql

import (
	"context"
	"fmt"
	"sync"
	"time"

	gqlclient "github.com/hasura/go-graphql-client"

	"github.com/sui-sandbox/replay/internal/historical"
	"github.com/sui-sandbox/replay/internal/suitypes"
)

// packageClosureQuery is the shape of the GraphQL response for a
// transitive package-dependency walk (spec.md §6 "transitive dependency
// resolution").
type packageClosureQuery struct {
	Package struct {
		PackageID    string
		Version      uint64
		Dependencies []struct {
			PackageID string
			Version   uint64
		}
	} `graphql:"packageAtVersion(address: $address)"`
}

// breakerState is the circuit breaker's observable mode.
type breakerState uint8

const (
	breakerClosed breakerState = iota
	breakerOpen
)

// CircuitBreaker opens after consecutiveFailureThreshold consecutive
// failed calls and refuses calls until cooldown has elapsed. Errors are
// not classified: a timeout and any other error count alike.
type CircuitBreaker struct {
	mu                         sync.Mutex
	state                      breakerState
	consecutiveFailures        int
	consecutiveFailureThreshold int
	cooldown                   time.Duration
	openedAt                   time.Time
	nowFunc                    func() time.Time
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		consecutiveFailureThreshold: threshold,
		cooldown:                    cooldown,
		nowFunc:                     time.Now,
	}
}

// Allow reports whether a call may proceed, transitioning back to
// closed once the cooldown has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerClosed {
		return true
	}
	if b.nowFunc().Sub(b.openedAt) >= b.cooldown {
		b.state = breakerClosed
		b.consecutiveFailures = 0
		return true
	}
	return false
}

// RecordResult updates the breaker's failure streak.
func (b *CircuitBreaker) RecordResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.consecutiveFailures = 0
		return
	}
	b.consecutiveFailures++
	if b.consecutiveFailures >= b.consecutiveFailureThreshold {
		b.state = breakerOpen
		b.openedAt = b.nowFunc()
	}
}

// Client is the GraphQL package-closure fetcher (spec.md §6, §9 "Open
// question" mitigation path).
type Client struct {
	gql     *gqlclient.Client
	breaker *CircuitBreaker
}

func New(endpoint string, breaker *CircuitBreaker) *Client {
	return &Client{gql: gqlclient.NewClient(endpoint, nil), breaker: breaker}
}

// FetchPackageClosure walks the dependency graph rooted at address,
// returning every reachable package (spec.md §4.2
// "fetch_package_closure").
func (c *Client) FetchPackageClosure(ctx context.Context, root suitypes.Address) ([]suitypes.Address, error) {
	if !c.breaker.Allow() {
		return nil, &historical.ErrCircuitOpen{Source: "graphql"}
	}

	seen := map[suitypes.Address]bool{root: true}
	queue := []suitypes.Address{root}
	var closure []suitypes.Address

	for len(queue) > 0 {
		addr := queue[0]
		queue = queue[1:]
		closure = append(closure, addr)

		var q packageClosureQuery
		err := c.gql.Query(ctx, &q, map[string]any{"address": addr.String()})
		c.breaker.RecordResult(err)
		if err != nil {
			return nil, fmt.Errorf("graphql: querying package %s: %w", addr, err)
		}
		for _, dep := range q.Package.Dependencies {
			depAddr, parseErr := suitypes.ParseAddress(dep.PackageID)
			if parseErr != nil {
				continue
			}
			if !seen[depAddr] {
				seen[depAddr] = true
				queue = append(queue, depAddr)
			}
		}
	}
	return closure, nil
}
