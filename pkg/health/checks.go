package health

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/templatemailer/pkg/resource"
)

// TemplatePackages checks that every package opens and has a
// Private/EmailTemplates directory.
func TemplatePackages(loader resource.Loader, packages []string) CheckFunc {
	return func(ctx context.Context) error {
		if len(packages) == 0 {
			return errors.New("no template packages configured")
		}

		var errs []error
		for _, pkg := range packages {
			fsys, err := loader.Open(ctx, pkg)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			info, err := fs.Stat(fsys, "Private/EmailTemplates")
			if err != nil || !info.IsDir() {
				errs = append(errs, fmt.Errorf("%s: no email templates", pkg))
			}
		}
		return errors.Join(errs...)
	}
}

// Redis pings the client.
func Redis(client redis.UniversalClient) CheckFunc {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		return client.Ping(ctx).Err()
	}
}
