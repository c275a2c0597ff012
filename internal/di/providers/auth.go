package providers

import (
	"github.com/samber/do/v2"

	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/config"
	"github.com/localcircle/localcircle-server/internal/logger"
)

// ProvideTokenService provides the PASETO identity verifier. Without a
// configured key one is loaded from, or generated into, the data directory.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	keyHex, err := auth.ResolveKeyHex(cfg.Auth.TokenKeyHex, cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Identity token verification ready",
		"issuer", cfg.Auth.Issuer,
		"audience", cfg.Auth.Audience,
		"key_source", keySource(cfg.Auth.TokenKeyHex),
	)

	return auth.NewTokenService(keyHex, cfg.Auth.Issuer, cfg.Auth.Audience)
}

func keySource(configured string) string {
	if configured != "" {
		return "config"
	}
	return "data dir"
}
