// Package api is the HTTP client for the hosted notifications platform.
// It implements feed.FetchClient: paginated feed page fetches and batch
// lifecycle status mutations, scoped to one user's feed channel.
//
// # Usage
//
//	client, err := api.New(
//	    "https://api.example.com",
//	    apiKey,
//	    "user_123",
//	    "in-app-feed",
//	    api.WithUserToken(signedToken),
//	)
//	if err != nil {
//	    // handle error
//	}
//
//	resp, err := client.FetchFeed(ctx, feed.FeedRequest{Query: q})
//
// Non-2xx responses decode into *Error; 401/403 and 404 additionally wrap
// ErrUnauthorized and ErrNotFound for errors.Is branching. The client never
// retries on its own; retry policy belongs to the caller.
package api
