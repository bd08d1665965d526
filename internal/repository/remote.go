package repository

import (
	"context"
	"net/url"

	"github.com/noah-isme/sma-rollcall-api/pkg/schoolapi"
)

// remoteClient is the subset of schoolapi.Client used by the remote repositories.
type remoteClient interface {
	Get(ctx context.Context, resource string, query url.Values, out interface{}) error
	Post(ctx context.Context, resource string, body, out interface{}) error
	Put(ctx context.Context, resource string, body, out interface{}) error
	Patch(ctx context.Context, resource string, body, out interface{}) error
}

var _ remoteClient = (*schoolapi.Client)(nil)

func queryOf(pairs ...string) url.Values {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			values.Set(pairs[i], pairs[i+1])
		}
	}
	return values
}
