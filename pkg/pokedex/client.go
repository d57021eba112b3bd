// Package pokedex talks to the external contestant-data service. The
// service advertises its query capabilities dynamically (MCP tools/list);
// callers discover them once per run and invoke one by name. Nothing in
// this package interprets response payloads beyond flattening them to raw
// JSON bytes.
package pokedex

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Sentinel errors surfaced from capability invocations. Callers decide the
// retry policy; this package only classifies.
var (
	// ErrNotFound means the service explicitly reported the identifier as
	// unknown. Terminal for that identifier.
	ErrNotFound = eris.New("pokedex: not found")

	// ErrRateLimited means the service reported quota exhaustion or rate
	// limiting for this call.
	ErrRateLimited = eris.New("pokedex: rate limited")
)

// Capability describes one named query operation advertised by the service.
type Capability struct {
	Name        string
	Description string
	// InputSchema lists the accepted parameter names in declared order.
	InputSchema []string
}

// Service is the boundary to the external data service.
type Service interface {
	// Capabilities lists the currently advertised query capabilities.
	Capabilities(ctx context.Context) ([]Capability, error)
	// Invoke calls a capability by name and returns the raw structured
	// response as JSON bytes.
	Invoke(ctx context.Context, capability string, args map[string]any) ([]byte, error)
	// Close releases the underlying session.
	Close() error
}

// Option configures the MCP-backed service.
type Option func(*MCP)

// WithRateLimit sets a client-side limit on invoke calls.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *MCP) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithHTTPClient overrides the default http.Client for the streamable
// transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *MCP) {
		c.httpClient = hc
	}
}

// WithTransport overrides the transport entirely. Used by tests to attach
// an in-memory server.
func WithTransport(t mcp.Transport) Option {
	return func(c *MCP) {
		c.transport = t
	}
}

// MCP implements Service over an MCP client session.
type MCP struct {
	endpoint   string
	httpClient *http.Client
	transport  mcp.Transport
	limiter    *rate.Limiter

	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewMCP creates a service client for the MCP server at endpoint. The
// session is established lazily on first use.
func NewMCP(endpoint string, opts ...Option) *MCP {
	c := &MCP{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *MCP) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "arena-cli", Version: "1.0.0"}, nil)
	transport := c.transport
	if transport == nil {
		transport = &mcp.StreamableClientTransport{
			Endpoint:   c.endpoint,
			HTTPClient: c.httpClient,
		}
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pokedex: connect")
	}
	c.session = session
	return session, nil
}

// Capabilities lists the advertised tools, following pagination.
func (c *MCP) Capabilities(ctx context.Context) ([]Capability, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	var caps []Capability
	cursor := ""
	for {
		res, err := session.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, eris.Wrap(err, "pokedex: list capabilities")
		}
		for _, tool := range res.Tools {
			caps = append(caps, Capability{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: schemaParams(tool.InputSchema),
			})
		}
		if res.NextCursor == "" {
			return caps, nil
		}
		cursor = res.NextCursor
	}
}

// Invoke calls a capability and flattens its result to raw JSON bytes,
// preferring structured content over text blocks.
func (c *MCP) Invoke(ctx context.Context, capability string, args map[string]any) ([]byte, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pokedex: rate limiter")
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      capability,
		Arguments: args,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "pokedex: invoke %s", capability)
	}

	if res.IsError {
		return nil, classifyToolError(capability, flattenText(res.Content))
	}

	if res.StructuredContent != nil {
		raw, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, eris.Wrapf(err, "pokedex: marshal %s result", capability)
		}
		return raw, nil
	}

	text := flattenText(res.Content)
	if text == "" {
		return nil, eris.Errorf("pokedex: %s returned no content", capability)
	}
	return []byte(text), nil
}

// Close shuts down the session if one was established.
func (c *MCP) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// classifyToolError maps a tool-reported failure onto the sentinel errors.
func classifyToolError(capability, message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"), strings.Contains(lower, "unknown pokemon"):
		return eris.Wrapf(ErrNotFound, "pokedex: %s: %s", capability, message)
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "too many requests"):
		return eris.Wrapf(ErrRateLimited, "pokedex: %s: %s", capability, message)
	}
	return eris.Errorf("pokedex: %s failed: %s", capability, message)
}

func flattenText(content []mcp.Content) string {
	var sb strings.Builder
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

// schemaParams extracts the declared property names from a tool's input
// schema, preserving declaration order (map unmarshaling would shuffle it).
func schemaParams(schema any) []string {
	if schema == nil {
		return nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	props := gjson.GetBytes(raw, "properties")
	if !props.IsObject() {
		return nil
	}
	var params []string
	props.ForEach(func(key, _ gjson.Result) bool {
		params = append(params, key.String())
		return true
	})
	return params
}
