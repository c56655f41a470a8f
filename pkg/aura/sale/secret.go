package sale

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/pkg/errors"

	"github.com/aura0x/aura-server/pkg/aura/common"
	"github.com/aura0x/aura-server/pkg/config"
)

// ErrMissingSecret indicates the pool authority keypair is not configured.
// The preparer fails the request and nothing else; the process stays up.
var ErrMissingSecret = errors.New("pool authority keypair is not configured")

// SecretProvider resolves the pool authority signing account. The private key
// never leaves the process: it is used for signing only and must not appear
// in logs, errors, or responses.
type SecretProvider interface {
	PoolAuthority(ctx context.Context) (*common.Account, error)
}

type envSecretProvider struct {
	conf config.String

	once    sync.Once
	account *common.Account
	err     error
}

// NewEnvSecretProvider sources the pool authority keypair from a base64
// encoded config value, resolved once at first use.
func NewEnvSecretProvider(conf config.String) SecretProvider {
	return &envSecretProvider{
		conf: conf,
	}
}

func (p *envSecretProvider) PoolAuthority(ctx context.Context) (*common.Account, error) {
	p.once.Do(func() {
		value := p.conf.Get(ctx)
		if len(value) == 0 {
			p.err = ErrMissingSecret
			return
		}

		// Decode errors deliberately omit the offending value.
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			p.err = errors.New("pool authority keypair is not valid base64")
			return
		}

		account, err := common.NewAccountFromPrivateKeyBytes(raw)
		if err != nil {
			p.err = errors.New("pool authority keypair is not a valid ed25519 private key")
			return
		}

		p.account = account
	})

	return p.account, p.err
}

type staticSecretProvider struct {
	account *common.Account
}

// NewStaticSecretProvider wraps an in-memory account, primarily for tests.
func NewStaticSecretProvider(account *common.Account) SecretProvider {
	return &staticSecretProvider{account: account}
}

func (p *staticSecretProvider) PoolAuthority(_ context.Context) (*common.Account, error) {
	if p.account == nil {
		return nil, ErrMissingSecret
	}
	return p.account, nil
}
