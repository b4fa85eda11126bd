// Package twitch provides types, interfaces, and helpers for working with the
// Twitch Helix API and the Twitch OAuth2 identity service.
//
// # Overview
//
// The twitch package defines the domain types (User, AccessToken, TokenInfo),
// the AuthProvider abstraction, the APICall builder, and the interfaces for
// resource-oriented clients (UsersClient). A concrete implementation is
// provided by the twitchclient package, which wires configuration, transport,
// authentication, and caching. Most consumers should import twitchclient to
// construct a client and then interact with the interfaces exposed here.
//
// Getting a client
//
//	import (
//	  "context"
//	  "fmt"
//	  "log"
//
//	  "github.com/fivetwenty-io/twitch-client/pkg/twitchclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  provider := twitchclient.NewStaticAuthProvider("client-id", "access-token")
//	  cli, err := twitchclient.NewWithAuthProvider(ctx, nil, provider)
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  me, err := cli.GetMe(ctx)
//	  if err != nil { log.Fatal(err) }
//	  fmt.Println(me.Login, "=", me.ID)
//	}
//
// # Authentication
//
// AuthProvider supplies the client ID and access token attached to every
// request. StaticAuthProvider wraps a token obtained elsewhere; the client
// credentials provider obtains and renews app access tokens itself. Providers
// implementing RefreshableAuthProvider are refreshed once when Helix answers
// with 401.
//
// # Errors
//
// Non-2xx responses are returned as *APIError. Helpers such as IsNotFound,
// IsUnauthorized, and IsRateLimited make it easy to branch on common cases.
//
// # Interceptors and caching
//
// The package includes request/response interceptors (logging, headers,
// metrics, circuit breaking) and a pluggable Cache abstraction with memory
// and NATS JetStream key-value backends.
package twitch
