package media

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Resolver rewrites a submission url into zero or more direct media urls.
// Most resolver implementations only understand a particular host (e.g.
// imgur). A resolver signals "not my url" by returning (nil, nil) so the
// next one can have a look.
type Resolver interface {
	Resolve(ctx context.Context, u string) ([]string, error)
}

// Registry tries each resolver in order and returns the first answer.
type Registry struct {
	resolvers []Resolver
}

func NewRegistry(resolvers ...Resolver) *Registry {
	return &Registry{
		resolvers: resolvers,
	}
}

// Resolve rewrites u into direct media urls. It returns (nil, nil) if no
// resolver recognizes the url; an unsupported host is a skip, not a
// failure. A resolver that recognizes the url but cannot rewrite it reports
// its error.
func (r *Registry) Resolve(ctx context.Context, u string) ([]string, error) {
	for _, res := range r.resolvers {
		urls, err := res.Resolve(ctx, u)
		if err != nil {
			return nil, err
		}
		if urls != nil {
			log.Debugf("resolved: url=%s links=%d", u, len(urls))
			return urls, nil
		}
	}

	return nil, nil
}
