// Package twitchclient provides the primary entry point for constructing a
// Twitch API client that implements the twitch.Client interface.
//
// It layers configuration, HTTP transport, authentication, and caching on top
// of the interfaces and types defined in the twitch package. Most
// applications should import twitchclient to build a client, then use the
// returned twitch.Client to look up users or validate tokens.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/twitch-client/pkg/twitch"
//	  "github.com/fivetwenty-io/twitch-client/pkg/twitchclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With a user access token you already have:
//	  cli, err := twitchclient.NewWithCredentials(ctx, "client-id", "access-token")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Or with an app access token obtained from the client secret:
//	  cli, err = twitchclient.NewWithClientCredentials(ctx, "client-id", "client-secret")
//
//	  // Or with full control over configuration:
//	  cli, err = twitchclient.New(ctx, &twitch.Config{
//	    ClientID:     "client-id",
//	    ClientSecret: "client-secret",
//	    AccessToken:  "user-token",
//	    RefreshToken: "refresh-token",
//	    Cache:        twitch.DefaultCacheConfig(),
//	  })
//
//	  me, err := cli.GetMe(ctx)
//	  if err != nil { log.Fatal(err) }
//	  log.Printf("%s = %s", me.Login, me.ID)
//	}
//
// Providers
//
// NewStaticAuthProvider, NewClientCredentialsAuthProvider and
// NewRefreshTokenAuthProvider build the providers used by the constructors
// above. Pass one to NewWithAuthProvider to share it between clients or to
// wrap it, for example to persist refreshed tokens.
package twitchclient
