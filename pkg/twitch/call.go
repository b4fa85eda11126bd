package twitch

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
)

// CallType selects the base URL an APICall is resolved against.
type CallType int

const (
	// CallTypeHelix resolves against the Helix API.
	CallTypeHelix CallType = iota
	// CallTypeKraken resolves against the legacy Kraken API.
	CallTypeKraken
	// CallTypeAuth resolves against the OAuth2 identity service.
	CallTypeAuth
	// CallTypeCustom uses the URL as given.
	CallTypeCustom
)

// String returns the lowercase call type name.
func (c CallType) String() string {
	switch c {
	case CallTypeHelix:
		return "helix"
	case CallTypeKraken:
		return "kraken"
	case CallTypeAuth:
		return "auth"
	case CallTypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Endpoints holds the base URLs for each call type.
type Endpoints struct {
	Helix  string `json:"helix"  yaml:"helix"`
	Kraken string `json:"kraken" yaml:"kraken"`
	Auth   string `json:"auth"   yaml:"auth"`
}

// DefaultEndpoints returns the production Twitch endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Helix:  constants.HelixBaseURL,
		Kraken: constants.KrakenBaseURL,
		Auth:   constants.AuthBaseURL,
	}
}

// WithDefaults fills empty fields from DefaultEndpoints.
func (e Endpoints) WithDefaults() Endpoints {
	defaults := DefaultEndpoints()

	if e.Helix == "" {
		e.Helix = defaults.Helix
	}

	if e.Kraken == "" {
		e.Kraken = defaults.Kraken
	}

	if e.Auth == "" {
		e.Auth = defaults.Auth
	}

	return e
}

// Base returns the base URL for a call type. Custom calls have no base.
func (e Endpoints) Base(callType CallType) string {
	switch callType {
	case CallTypeHelix:
		return e.Helix
	case CallTypeKraken:
		return e.Kraken
	case CallTypeAuth:
		return e.Auth
	case CallTypeCustom:
		return ""
	default:
		return ""
	}
}

// Param is a single query parameter. Order and repetition are preserved.
type Param struct {
	Key   string
	Value string
}

// APICall describes a single request against one of the Twitch APIs.
type APICall struct {
	URL      string
	Type     CallType
	Method   string
	Params   []Param
	Body     []byte
	JSONBody bool
	Scope    string
}

// FullURL resolves the call against the given endpoints.
func (c *APICall) FullURL(endpoints Endpoints) string {
	path := strings.TrimLeft(c.URL, "/")

	full := path
	if c.Type != CallTypeCustom {
		full = strings.TrimRight(endpoints.WithDefaults().Base(c.Type), "/") + "/" + path
	}

	if len(c.Params) == 0 {
		return full
	}

	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}

	return full + sep + EncodeParams(c.Params)
}

// Query returns the call params as url.Values.
func (c *APICall) Query() url.Values {
	values := url.Values{}
	for _, p := range c.Params {
		values.Add(p.Key, p.Value)
	}

	return values
}

// Scopes returns the call scope as a slice suitable for AuthProvider.AccessToken.
func (c *APICall) Scopes() []string {
	if c.Scope == "" {
		return nil
	}

	return []string{c.Scope}
}

// EncodeParams encodes params in insertion order.
func EncodeParams(params []Param) string {
	var sb strings.Builder

	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	return sb.String()
}

// APICallBuilder assembles an APICall. The zero value is not usable; call NewAPICall.
type APICallBuilder struct {
	call      APICall
	needsBody bool
}

// NewAPICall returns a builder defaulting to a Helix GET.
func NewAPICall() *APICallBuilder {
	return &APICallBuilder{
		call: APICall{
			Type:   CallTypeHelix,
			Method: http.MethodGet,
		},
	}
}

// WithURL sets the path (or absolute URL for custom calls).
func (b *APICallBuilder) WithURL(u string) *APICallBuilder {
	b.call.URL = u

	return b
}

// WithCallType sets the call type.
func (b *APICallBuilder) WithCallType(t CallType) *APICallBuilder {
	b.call.Type = t

	return b
}

// WithMethod sets the HTTP method.
func (b *APICallBuilder) WithMethod(method string) *APICallBuilder {
	b.call.Method = method

	return b
}

// WithParam appends a query parameter.
func (b *APICallBuilder) WithParam(key, value string) *APICallBuilder {
	b.call.Params = append(b.call.Params, Param{Key: key, Value: value})

	return b
}

// WithParams appends a query parameter once per value.
func (b *APICallBuilder) WithParams(key string, values ...string) *APICallBuilder {
	for _, v := range values {
		b.WithParam(key, v)
	}

	return b
}

// WithBody sets a raw request body.
func (b *APICallBuilder) WithBody(body []byte) *APICallBuilder {
	b.call.Body = body

	return b
}

// WithJSONBody sets a JSON request body.
func (b *APICallBuilder) WithJSONBody(body []byte) *APICallBuilder {
	b.call.Body = body
	b.call.JSONBody = true

	return b
}

// RequireBody makes Build fail when no body was set.
func (b *APICallBuilder) RequireBody() *APICallBuilder {
	b.needsBody = true

	return b
}

// WithScope sets the scope the call requires.
func (b *APICallBuilder) WithScope(scope string) *APICallBuilder {
	b.call.Scope = scope

	return b
}

// Build validates and returns the call.
func (b *APICallBuilder) Build() (*APICall, error) {
	if b.call.URL == "" {
		return nil, ErrCallURLRequired
	}

	if b.needsBody && len(b.call.Body) == 0 {
		return nil, ErrCallBodyRequired
	}

	call := b.call
	call.Params = slices.Clone(b.call.Params)

	return &call, nil
}
